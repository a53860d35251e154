package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/macropower/indexstamp/pkg/gittag"
	"github.com/macropower/indexstamp/pkg/helmindex"
	"github.com/macropower/indexstamp/pkg/log"
	"github.com/macropower/indexstamp/pkg/updater"
)

const (
	GitExec  = "exec"
	GitGoGit = "go-git"

	rootExample = `  # Stamp ./index.yaml with the latest tag
  indexstamp

  # Use a specific tag instead of asking git
  indexstamp --tag v1.4.0

  # Fail when no chart version matches the tag
  indexstamp --strict

  # Check that the index has been stamped
  indexstamp verify
`
)

var ErrInvalidArgument = errors.New("invalid argument")

// NewRootCmd returns the root command. Running it without a subcommand stamps
// the index.
func NewRootCmd(name, shortDesc, longDesc string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           name,
		Short:         shortDesc,
		Long:          longDesc,
		Example:       rootExample,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       GetVersionString(),
	}

	cmd.PersistentFlags().String("log_level", "warn", "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log_format", "text", "Set the log format (text, logfmt, json)")

	cmd.PersistentFlags().StringP("file", "f", helmindex.DefaultPath, "Path of the chart repository index")
	if err := cmd.MarkPersistentFlagFilename("file", "yaml", "yml"); err != nil {
		panic(err)
	}

	cmd.PersistentFlags().StringP("chart", "c", helmindex.DefaultChart, "Chart whose entries are stamped")
	cmd.PersistentFlags().StringP("tag", "t", "", "Use this tag instead of resolving it from git")
	cmd.PersistentFlags().String("git", GitExec, "How to resolve the tag (exec, go-git)")

	cmd.PersistentFlags().String("dir", ".", "Directory inside the git checkout")
	if err := cmd.MarkPersistentFlagDirname("dir"); err != nil {
		panic(err)
	}

	cmd.PersistentFlags().Duration("timeout", time.Minute, "Timeout for resolving the tag (0 for none)")

	cmd.Flags().Bool("strict", false, "Fail and leave the index untouched when no chart version matches the tag")
	cmd.Flags().Bool("dry-run", false, "Print the stamped index instead of writing it")

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		flags := cc.Flags()

		var merr error

		logLevel, err := flags.GetString("log_level")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		logFormat, err := flags.GetString("log_format")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		if merr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
		}

		h, err := log.CreateHandler(cc.ErrOrStderr(), logLevel, logFormat)
		if err != nil {
			return fmt.Errorf("failed creating log handler: %w", err)
		}

		slog.SetDefault(slog.New(h))

		return nil
	}

	cmd.RunE = func(cc *cobra.Command, _ []string) error {
		var merr error

		flags := cc.Flags()

		strict, err := flags.GetBool("strict")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		dryRun, err := flags.GetBool("dry-run")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		if merr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
		}

		src, err := getSource(cc)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout(cc.Context(), src.timeout)
		defer cancel()

		u := updater.New(src.tags, helmindex.NewOsFileStore(src.file),
			updater.WithChart(src.chart),
			updater.WithOutput(cc.OutOrStdout()),
			updater.WithStrict(strict),
			updater.WithDryRun(dryRun),
		)
		u.Subscribe(logEvent)

		res, err := u.Run(ctx)
		if err != nil {
			return fmt.Errorf("update %s: %w", src.file, err)
		}

		slog.Debug("index updated",
			slog.String("file", src.file),
			slog.Bool("matched", res.Matched),
		)

		return nil
	}

	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func logEvent(evt any) {
	switch e := evt.(type) {
	case updater.EventTagResolved:
		slog.Debug("resolved tag", slog.String("tag", string(e)))
	case updater.EventStamped:
		slog.Debug("searched chart versions",
			slog.String("chart", e.Chart),
			slog.String("tag", e.Tag),
			slog.Int("index", e.Index),
			slog.Bool("matched", e.Matched),
		)
	case updater.EventDone:
		if e.Err != nil {
			slog.Debug("update failed", slog.Any("err", e.Err))
		}
	}
}

// source holds the persistent flags shared by the stamping and verify
// commands. Flag errors returned by getSource wrap [ErrInvalidArgument];
// failures to open the repository do not.
type source struct {
	tags    gittag.Resolver
	file    string
	chart   string
	timeout time.Duration
}

func getSource(cc *cobra.Command) (*source, error) {
	var merr error

	flags := cc.Flags()

	file, err := flags.GetString("file")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	chart, err := flags.GetString("chart")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	tag, err := flags.GetString("tag")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	gitMode, err := flags.GetString("git")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	dir, err := flags.GetString("dir")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	timeout, err := flags.GetDuration("timeout")
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	if merr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
	}

	if chart == "" {
		return nil, fmt.Errorf("%w: --chart must not be empty", ErrInvalidArgument)
	}

	src := &source{file: file, chart: chart, timeout: timeout}

	switch {
	case tag != "":
		src.tags = gittag.Static(tag)
	case gitMode == GitExec:
		src.tags = &gittag.ExecResolver{Dir: dir, Timeout: timeout}
	case gitMode == GitGoGit:
		rr, err := gittag.OpenRepoResolver(dir)
		if err != nil {
			return nil, fmt.Errorf("open repository: %w", err)
		}

		src.tags = rr
	default:
		return nil, fmt.Errorf("%w: unknown --git value %q, want %q or %q",
			ErrInvalidArgument, gitMode, GitExec, GitGoGit)
	}

	return src, nil
}

// withTimeout bounds ctx by d. Zero or negative d means no timeout.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}
