package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ethanbetts63/splitcart-sub000/internal/engine"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// PrefixReport is the result of one prefix inference pass.
type PrefixReport struct {
	engine.PrefixSummary
}

func (r PrefixReport) String() string {
	return fmt.Sprintf("prefix inference: examined=%d inferred=%d unchanged=%d skipped=%d",
		r.BrandsExamined, r.Inferred, r.Unchanged, r.Skipped)
}

// NewPrefixCommand creates the prefix command.
func NewPrefixCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefix",
		Short: "Infer barcode-registry prefixes for brands",
		Long: `Infer each brand's likely barcode-registry prefix from the barcodes
of its products. Confirmed prefixes are never overwritten. Inferred
prefixes feed the prefix-driven brand merges of the reconcile command.

Example:
  splitcart prefix --db catalog.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrefix(rootOpts, cmd)
		},
	}
	return cmd
}

func runPrefix(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	eng := engine.NewPrefixEngine(st, slog.Default())
	summary, err := eng.Run(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "prefix inference failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(PrefixReport{PrefixSummary: *summary})
}
