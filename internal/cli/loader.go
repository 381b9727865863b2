package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/config"
	"github.com/ethanbetts63/splitcart-sub000/internal/engine"
)

// maxLineSize bounds one NDJSON record; listings with full ingredient
// lists run long.
const maxLineSize = 1 << 20

// LoadedFile is one parsed listings file.
type LoadedFile struct {
	Path      string
	Listings  []catalog.RawListing
	Malformed int
}

// LoadListingsFile parses one newline-delimited JSON listings file.
// Malformed lines are skipped and counted; an unreadable file is an error
// the caller treats as aborting that file only.
func LoadListingsFile(path string) (*LoadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listings file: %w", err)
	}
	defer f.Close()

	loaded := &LoadedFile{Path: path}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var l catalog.RawListing
		if err := json.Unmarshal(line, &l); err != nil {
			loaded.Malformed++
			slog.Warn("malformed listing skipped", "file", path, "line", lineNo, "error", err)
			continue
		}
		loaded.Listings = append(loaded.Listings, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read listings file %s: %w", path, err)
	}

	return loaded, nil
}

// groupByScope splits listings into ingestion contexts: one per company,
// or one per company+store for companies with store-scoped SKUs. Scopes
// are returned in deterministic order.
func groupByScope(listings []catalog.RawListing, cfg config.Config) ([]engine.Scope, map[engine.Scope][]catalog.RawListing) {
	groups := map[engine.Scope][]catalog.RawListing{}
	for _, l := range listings {
		scope := engine.Scope{Company: l.Company}
		if cfg.StoreScoped(l.Company) {
			scope.Store = l.Store
		}
		groups[scope] = append(groups[scope], l)
	}

	scopes := make([]engine.Scope, 0, len(groups))
	for s := range groups {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool {
		return scopes[i].String() < scopes[j].String()
	})
	return scopes, groups
}
