package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ethanbetts63/splitcart-sub000/internal/engine"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// TranslateReport is the result of one translation-table rebuild.
type TranslateReport struct {
	ProductEntries int `json:"productEntries"`
	BrandEntries   int `json:"brandEntries"`
}

func (r TranslateReport) String() string {
	return fmt.Sprintf("translation tables rebuilt: products=%d brands=%d",
		r.ProductEntries, r.BrandEntries)
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Rebuild the variation translation tables",
		Long: `Regenerate the product and brand translation tables from the
variation lists on canonical records. The tables are replaced wholesale;
they are a pure projection of canonical state and always safe to rebuild.

Example:
  splitcart translate --db catalog.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(rootOpts, cmd)
		},
	}
	return cmd
}

func runTranslate(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	builder := engine.NewTranslationBuilder(st, slog.Default())
	products, brands, err := builder.Rebuild(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "translation rebuild failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(TranslateReport{ProductEntries: products, BrandEntries: brands})
}
