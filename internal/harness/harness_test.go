package harness

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scn, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scn.Name, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "catalog.db")
			res, err := Run(context.Background(), scn, dbPath, discardLogger())
			require.NoError(t, err)

			for _, failure := range scn.Verify(res) {
				t.Error(failure)
			}
		})
	}
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
runs:
  - listings:
      - name: x
        sourceCompany: a
        observedPrice: 1.0
`), "inline")
	require.Error(t, err)
}

func TestParseScenario_RequiresNameAndRuns(t *testing.T) {
	_, err := ParseScenario([]byte("runs:\n  - listings: []\n"), "inline")
	require.ErrorContains(t, err, "name is required")

	_, err = ParseScenario([]byte("name: empty\n"), "inline")
	require.ErrorContains(t, err, "at least one run")
}
