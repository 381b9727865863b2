package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/engine"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions

	// SkipHotlist disables the post-commit hotlist reconciliation pass.
	SkipHotlist bool

	// IDGenerator allows overriding record id generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator catalog.IDGenerator
}

// IngestReport is the operator-visible result of one ingest invocation.
type IngestReport struct {
	Files            int                  `json:"files"`
	FailedFiles      []string             `json:"failedFiles,omitempty"`
	MalformedRecords int                  `json:"malformedRecords"`
	Runs             []engine.RunSummary  `json:"runs"`
	Merges           *engine.MergeSummary `json:"merges,omitempty"`
}

func (r IngestReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "files: %d", r.Files)
	if len(r.FailedFiles) > 0 {
		fmt.Fprintf(&b, " (failed: %s)", strings.Join(r.FailedFiles, ", "))
	}
	fmt.Fprintf(&b, "\nmalformed records skipped: %d\n", r.MalformedRecords)
	for _, run := range r.Runs {
		fmt.Fprintf(&b, "%s: created=%d updated=%d skipped=%d errors=%d prices=%d droppedCreates=%d newBrands=%d\n",
			run.Scope, run.Created, run.Updated, run.Skipped, run.Errors,
			run.Prices, run.DroppedCreates, run.NewBrands)
	}
	if r.Merges != nil {
		fmt.Fprintf(&b, "hotlist: merged=%d stale=%d conflicts=%d moved=%d discarded=%d",
			r.Merges.Merged, r.Merges.SkippedStale, r.Merges.SkippedConflict,
			r.Merges.MovedObservations, r.Merges.DiscardedObservations)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <files...>",
		Short: "Ingest NDJSON listing files into the canonical catalog",
		Long: `Ingest newline-delimited JSON listing files.

Listings are grouped into ingestion contexts (one per company, or per
company+store for store-scoped SKU companies). Each context resolves its
records against the canonical catalog and commits all mutations as one
atomic transaction. After every context has committed, the hotlist of
suspected duplicates is reconciled immediately.

Malformed records are skipped and counted. An unparsable file aborts only
that file.

Example:
  splitcart ingest --db catalog.db listings/alpha.ndjson listings/beta.ndjson`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipHotlist, "skip-hotlist", false, "skip the post-commit hotlist reconciliation pass")

	return cmd
}

func runIngest(opts *IngestOptions, files []string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
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

	ids := opts.IDGenerator
	if ids == nil {
		ids = catalog.UUIDv7Generator{}
	}

	report := IngestReport{}
	var all []catalog.RawListing
	for _, path := range files {
		loaded, err := LoadListingsFile(path)
		if err != nil {
			slog.Error("listings file aborted", "file", path, "error", err)
			report.FailedFiles = append(report.FailedFiles, path)
			continue
		}
		report.Files++
		report.MalformedRecords += loaded.Malformed
		all = append(all, loaded.Listings...)
	}

	ingestor := engine.NewIngestor(st, newNormalizer(cfg), ids, slog.Default())
	scopes, groups := groupByScope(all, cfg)

	var hotlist []engine.HotlistEntry
	for _, scope := range scopes {
		summary, entries, err := ingestor.Run(cmd.Context(), scope, groups[scope])
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("ingestion failed for %s", scope.String()), err)
		}
		report.Runs = append(report.Runs, *summary)
		hotlist = append(hotlist, entries...)
	}

	if !opts.SkipHotlist && len(hotlist) > 0 {
		rec := engine.NewReconciler(st, sink, slog.Default())
		merges, err := rec.RunHotlist(cmd.Context(), hotlist)
		if err != nil {
			return WrapExitError(ExitFailure, "hotlist reconciliation failed", err)
		}
		report.Merges = merges
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(report)
}
