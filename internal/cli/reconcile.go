package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ethanbetts63/splitcart-sub000/internal/engine"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// ReconcileReport is the operator-visible result of one reconcile pass.
type ReconcileReport struct {
	Translations engine.MergeSummary `json:"translations"`
	Prefixes     engine.MergeSummary `json:"prefixes"`
}

func (r ReconcileReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "translations: merged=%d brandsMerged=%d stale=%d conflicts=%d moved=%d discarded=%d\n",
		r.Translations.Merged, r.Translations.BrandsMerged, r.Translations.SkippedStale,
		r.Translations.SkippedConflict, r.Translations.MovedObservations, r.Translations.DiscardedObservations)
	fmt.Fprintf(&b, "prefixes: brandsMerged=%d stale=%d",
		r.Prefixes.BrandsMerged, r.Prefixes.SkippedStale)
	return b.String()
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge duplicate canonical records",
		Long: `Run the reconciliation pass: translation-table-driven product and
brand merges, then prefix-driven brand merges.

Reconciliation is a single-writer pass. Never run it concurrently with
itself or with active ingestion.

Example:
  splitcart reconcile --db catalog.db --audit merges.log`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, cmd)
		},
	}
	return cmd
}

func runReconcile(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	sink, closeSink, err := openAudit(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	rec := engine.NewReconciler(st, sink, slog.Default())

	report := ReconcileReport{}
	translations, err := rec.RunTranslations(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "translation merge pass failed", err)
	}
	report.Translations = *translations

	prefixes, err := rec.RunPrefixes(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "prefix merge pass failed", err)
	}
	report.Prefixes = *prefixes

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(report)
}
