// Package audit persists the forensic trail of catalog merges.
//
// Every merge emits exactly one record to an append-only sink. The sink is
// never rewritten or compacted; a merged-away id can always be traced back
// to its surviving canonical record.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Record is one merge event. One record per merge, append-only.
type Record struct {
	CanonicalID           string    `json:"canonicalId"`
	DuplicateID           string    `json:"duplicateId"`
	MovedObservations     int       `json:"movedObservations"`
	DiscardedObservations int       `json:"discardedObservations"`
	Timestamp             time.Time `json:"timestamp"`
}

// Writer receives merge records. Implementations must tolerate being
// called once per merge in a tight loop.
type Writer interface {
	Write(rec Record) error
}

// FileWriter appends JSON-lines records to a file.
// Safe for concurrent use.
type FileWriter struct {
	mu sync.Mutex
	f  *os.File
}

// OpenFile opens (or creates) an append-only audit log at path.
func OpenFile(path string) (*FileWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileWriter{f: f}, nil
}

// Write appends one record as a single JSON line.
func (w *FileWriter) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	return w.f.Close()
}

// Discard is a Writer that drops every record. Used when no audit sink is
// configured.
type Discard struct{}

// Write implements Writer.
func (Discard) Write(Record) error { return nil }

// Memory collects records in order for tests.
type Memory struct {
	Records []Record
}

// Write implements Writer.
func (m *Memory) Write(rec Record) error {
	m.Records = append(m.Records, rec)
	return nil
}
