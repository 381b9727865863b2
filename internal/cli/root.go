package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ethanbetts63/splitcart-sub000/internal/audit"
	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	Config   string
	Audit    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the splitcart CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "splitcart",
		Short: "Product and brand identity resolution for the canonical catalog",
		Long: `splitcart ingests scraped product listings and maintains one canonical
record per real-world product and brand: tiered identity matching,
atomic batch commits, and duplicate-merge reconciliation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite catalog database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Audit, "audit", "", "path to append-only merge audit log (overrides config)")

	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewPrefixCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves the effective configuration: file values first,
// flags override.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Audit != "" {
		cfg.AuditLog = opts.Audit
	}
	return cfg, nil
}

// newNormalizer builds the normalization service from the configured
// synonym tables.
func newNormalizer(cfg config.Config) *catalog.Normalizer {
	return catalog.NewNormalizer(
		catalog.WithBrandSynonyms(cfg.BrandSynonyms),
		catalog.WithUnitSynonyms(cfg.UnitSynonyms),
	)
}

// openAudit opens the configured audit sink, or a discarding sink when no
// path is set. The caller owns closing.
func openAudit(cfg config.Config) (audit.Writer, func() error, error) {
	if cfg.AuditLog == "" {
		return audit.Discard{}, func() error { return nil }, nil
	}
	w, err := audit.OpenFile(cfg.AuditLog)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open audit log", err)
	}
	return w, w.Close, nil
}
