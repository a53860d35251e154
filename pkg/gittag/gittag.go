package gittag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/macropower/indexstamp/pkg/exec"
)

// ErrNoTag indicates that no tag could be resolved.
var ErrNoTag = errors.New("no tag found")

// Resolver resolves the current release tag.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Static is a [Resolver] that always returns the same tag.
type Static string

func (s Static) Resolve(_ context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty tag", ErrNoTag)
	}

	return string(s), nil
}

// ExecResolver resolves the tag by running `git describe --abbrev=0 --tags`.
type ExecResolver struct {
	// Git is the git executable. Defaults to "git".
	Git string
	// Dir is the directory to run git in. Defaults to the current directory.
	Dir     string
	Timeout time.Duration
}

func (r *ExecResolver) Resolve(ctx context.Context) (string, error) {
	git := r.Git
	if git == "" {
		git = "git"
	}

	out, err := exec.RunCommand(ctx, exec.CmdOpts{
		Dir:              r.Dir,
		Timeout:          r.Timeout,
		SkipErrorLogging: true,
	}, git, "describe", "--abbrev=0", "--tags")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoTag, err)
	}

	tag := strings.Trim(out, "\n")
	if tag == "" {
		return "", fmt.Errorf("%w: git describe printed nothing", ErrNoTag)
	}

	return tag, nil
}
