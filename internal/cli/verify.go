package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/indexstamp/pkg/helmindex"
)

const verifyDesc = `Check that the chart version matching the tag has its appVersion set to
the tag. The index is read with Helm's repository types and is not modified.
`

// NewVerifyCmd returns the verify command.
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify that the index has been stamped",
		Long:  verifyDesc,
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			src, err := getSource(cc)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cc.Context(), src.timeout)
			defer cancel()

			tag, err := src.tags.Resolve(ctx)
			if err != nil {
				return fmt.Errorf("resolve tag: %w", err)
			}

			data, err := helmindex.NewOsFileStore(src.file).Read()
			if err != nil {
				return fmt.Errorf("load index: %w", err)
			}

			slog.Debug("verifying index",
				slog.String("file", src.file),
				slog.String("chart", src.chart),
				slog.String("tag", tag),
			)

			if err := helmindex.Verify(data, src.chart, tag); err != nil {
				return fmt.Errorf("verify %s: %w", src.file, err)
			}

			_, err = fmt.Fprintf(cc.OutOrStdout(), "%s %s has appVersion %s\n", src.chart, tag, tag)
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			return nil
		},
		SilenceUsage: true,
	}
}
