package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestIngestCommand_EndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "catalog.db")
	listings := filepath.Join(tmpDir, "alpha.ndjson")

	content := `{"name":"Choc Ripple 250g","brand":"Arnott's","barcode":"111","price":3.5,"observedDate":"2024-01-01","sourceCompany":"alpha","store":"s-1"}
not json at all
{"name":"Bread 700g","brand":"Baker","price":2.5,"observedDate":"2024-01-01","sourceCompany":"alpha","store":"s-1"}
`
	require.NoError(t, os.WriteFile(listings, []byte(content), 0644))

	out, err := executeCommand(t, "ingest", "--db", dbPath, listings)
	require.NoError(t, err)

	assert.Contains(t, out, "created=2")
	assert.Contains(t, out, "malformed records skipped: 1")

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	products, err := s.LoadAllProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)

	brands, err := s.LoadAllBrands(context.Background())
	require.NoError(t, err)
	assert.Len(t, brands, 2)
}

func TestIngestCommand_MissingFileAbortsOnlyThatFile(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "catalog.db")
	good := filepath.Join(tmpDir, "good.ndjson")

	require.NoError(t, os.WriteFile(good, []byte(
		`{"name":"Milk 2L","brand":"Dairy Co","price":2.6,"observedDate":"2024-01-01","sourceCompany":"alpha","store":"s-1"}`+"\n",
	), 0644))

	out, err := executeCommand(t, "ingest", "--db", dbPath,
		filepath.Join(tmpDir, "missing.ndjson"), good)
	require.NoError(t, err)

	assert.Contains(t, out, "failed:")
	assert.Contains(t, out, "created=1")
}

func TestIngestCommand_InvalidFormatRejected(t *testing.T) {
	_, err := executeCommand(t, "ingest", "--format", "xml", "--db", "x.db", "nothing.ndjson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestReconcileCommand_EmptyCatalog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	out, err := executeCommand(t, "reconcile", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "translations:")
	assert.Contains(t, out, "prefixes:")
}

func TestTranslateThenReconcile_MergesRenamedProduct(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "catalog.db")

	// Two sightings of the same barcode under different names create one
	// product with a key variation.
	listings := filepath.Join(tmpDir, "listings.ndjson")
	content := `{"name":"Choc Ripple 250g","brand":"Arnott's","barcode":"9300650658615","price":3.5,"observedDate":"2024-01-01","sourceCompany":"alpha","store":"s-1"}
{"name":"Chocolate Ripple Biscuits 250g","brand":"Arnott's","barcode":"9300650658615","price":3.6,"observedDate":"2024-01-02","sourceCompany":"beta","store":"s-2"}
`
	require.NoError(t, os.WriteFile(listings, []byte(content), 0644))

	_, err := executeCommand(t, "ingest", "--db", dbPath, listings)
	require.NoError(t, err)

	out, err := executeCommand(t, "translate", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "products=1")

	_, err = executeCommand(t, "reconcile", "--db", dbPath)
	require.NoError(t, err)
}

func TestPrefixCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	out, err := executeCommand(t, "prefix", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "prefix inference")
}
