package exec

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var ErrTimeout = errors.New("timed out")

// CmdError describes a command that exited unsuccessfully.
type CmdError struct {
	Cause  error
	Args   string
	Stderr string
}

func (ce *CmdError) Error() string {
	res := fmt.Sprintf("`%v` failed %v", ce.Args, ce.Cause)
	if ce.Stderr != "" {
		res = fmt.Sprintf("%s: %s", res, ce.Stderr)
	}

	return res
}

func (ce *CmdError) String() string {
	return ce.Error()
}

func (ce *CmdError) Unwrap() error {
	return ce.Cause
}

func newCmdError(args string, cause error, stderr string) *CmdError {
	return &CmdError{Args: args, Stderr: stderr, Cause: cause}
}

type CmdOpts struct {
	// Dir is the working directory of the command. Empty means the current
	// directory of the process.
	Dir string
	// Timeout determines how long to wait for the command to exit. Zero means
	// no timeout beyond the context deadline.
	Timeout time.Duration
	// SkipErrorLogging defines whether to skip logging of execution errors (rc > 0).
	SkipErrorLogging bool
}

// randString returns a cryptographically-secure pseudo-random alpha-numeric string of a given length
func randString(n int) (string, error) {
	b := make([]byte, n/2+1) // we need one extra letter to discard
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b)[0:n], nil
}

// RunCommand runs and logs a command, returning its stdout without the
// trailing newline. On failure the returned error is a [*CmdError] carrying
// the trimmed stderr.
func RunCommand(ctx context.Context, opts CmdOpts, name string, arg ...string) (string, error) {
	execID, err := randString(5)
	if err != nil {
		return "", fmt.Errorf("generate exec id: %w", err)
	}

	logCtx := slog.With("execID", execID)

	if opts.Timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Dir = opts.Dir

	// log in a way we can copy-and-paste into a terminal
	args := strings.Join(cmd.Args, " ")
	logCtx.Debug(args, "dir", cmd.Dir)

	var stdout bytes.Buffer

	var stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()

	output := stdout.String()

	logCtx.Debug(output, "duration", time.Since(start))

	if runErr != nil {
		cause := runErr
		if ctxErr := ctx.Err(); ctxErr != nil {
			cause = fmt.Errorf("%w: %w", ErrTimeout, ctxErr)
		}

		cerr := newCmdError(args, cause, strings.TrimSpace(stderr.String()))
		if !opts.SkipErrorLogging {
			logCtx.Error(cerr.Error())
		}

		return strings.TrimSuffix(output, "\n"), cerr
	}

	return strings.TrimSuffix(output, "\n"), nil
}
