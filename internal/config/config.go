// Package config loads the run configuration and the normalization lookup
// tables from a single YAML document. The synonym and unit tables are part
// of the configuration artifact, not ambient state: callers pass the loaded
// value to the components that need it.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full run configuration.
type Config struct {
	// Database is the path to the SQLite catalog database.
	Database string `yaml:"database"`

	// AuditLog is the path of the append-only merge audit log.
	// Empty disables audit output.
	AuditLog string `yaml:"audit_log,omitempty"`

	// BrandSynonyms maps known alternate brand spellings to the canonical
	// spelling, e.g. "arnotts: arnott's".
	BrandSynonyms map[string]string `yaml:"brand_synonyms,omitempty"`

	// UnitSynonyms maps size-unit spellings to canonical units on top of
	// the built-in table, e.g. "punnets: ea".
	UnitSynonyms map[string]string `yaml:"unit_synonyms,omitempty"`

	// StoreScopedCompanies lists companies whose SKUs are unique only
	// within a single store. Their ingestion contexts are narrowed to
	// company+store pairs.
	StoreScopedCompanies []string `yaml:"store_scoped_companies,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: "catalog.db",
	}
}

// Load reads and parses a YAML config file. Unknown fields are rejected so
// a typo in a table name fails loudly rather than silently dropping the
// whole table.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Database == "" {
		return Config{}, fmt.Errorf("config %s: database path is required", path)
	}

	return cfg, nil
}

// StoreScoped reports whether a company's SKUs are store-scoped.
func (c Config) StoreScoped(company string) bool {
	for _, sc := range c.StoreScopedCompanies {
		if sc == company {
			return true
		}
	}
	return false
}
