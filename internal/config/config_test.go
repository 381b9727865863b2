package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
database: /var/lib/catalog.db
audit_log: /var/log/merges.jsonl
brand_synonyms:
  arnotts: arnott's
  abbotts: abbott's bakery
unit_synonyms:
  punnet: ea
store_scoped_companies:
  - igamart
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/catalog.db", cfg.Database)
	assert.Equal(t, "/var/log/merges.jsonl", cfg.AuditLog)
	assert.Equal(t, "arnott's", cfg.BrandSynonyms["arnotts"])
	assert.Equal(t, "ea", cfg.UnitSynonyms["punnet"])
	assert.True(t, cfg.StoreScoped("igamart"))
	assert.False(t, cfg.StoreScoped("colesworth"))
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, `
database: catalog.db
brand_synonims:
  arnotts: arnott's
`)

	_, err := Load(path)
	assert.Error(t, err, "misspelled table name must not be dropped silently")
}

func TestLoad_MissingDatabase(t *testing.T) {
	path := writeConfig(t, `
audit_log: merges.jsonl
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "catalog.db", cfg.Database)
	assert.Empty(t, cfg.AuditLog)
}
