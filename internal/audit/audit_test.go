package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_AppendsOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merges.log")

	w, err := OpenFile(path)
	require.NoError(t, err)

	ts := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	require.NoError(t, w.Write(Record{
		CanonicalID: "canon-1", DuplicateID: "dup-1",
		MovedObservations: 3, DiscardedObservations: 1, Timestamp: ts,
	}))
	require.NoError(t, w.Write(Record{
		CanonicalID: "canon-2", DuplicateID: "dup-2", Timestamp: ts,
	}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, records, 2)
	assert.Equal(t, "canon-1", records[0].CanonicalID)
	assert.Equal(t, 3, records[0].MovedObservations)
	assert.Equal(t, "dup-2", records[1].DuplicateID)
}

func TestFileWriter_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merges.log")
	ts := time.Now().UTC()

	w1, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, w1.Write(Record{CanonicalID: "a", DuplicateID: "b", Timestamp: ts}))
	require.NoError(t, w1.Close())

	w2, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, w2.Write(Record{CanonicalID: "c", DuplicateID: "d", Timestamp: ts}))
	require.NoError(t, w2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"canonicalId":"a"`)
	assert.Contains(t, string(data), `"canonicalId":"c"`)
}

func TestMemory_CollectsInOrder(t *testing.T) {
	m := &Memory{}
	require.NoError(t, m.Write(Record{CanonicalID: "a"}))
	require.NoError(t, m.Write(Record{CanonicalID: "b"}))

	require.Len(t, m.Records, 2)
	assert.Equal(t, "a", m.Records[0].CanonicalID)
}
