package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// Outcome classifies what happened to one raw listing.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// RecordResult is the per-record outcome. Skips and errors carry a reason;
// they are counted, never silently dropped.
type RecordResult struct {
	Outcome Outcome
	Reason  string
}

// RunSummary aggregates the outcomes of one ingestion run.
type RunSummary struct {
	Scope          string `json:"scope"`
	Created        int    `json:"created"`
	Updated        int    `json:"updated"`
	Skipped        int    `json:"skipped"`
	Errors         int    `json:"errors"`
	Prices         int    `json:"prices"`
	DroppedCreates int    `json:"droppedCreates"`
	NewBrands      int    `json:"newBrands"`
}

// Ingestor runs one ingestion context at a time: build cache, resolve,
// stage, commit. A single Ingestor is safe to reuse across sequential
// runs; independent contexts wanting parallelism use separate Run calls
// on separate goroutines, each call owns its own cache and batch.
type Ingestor struct {
	store *store.Store
	norm  *catalog.Normalizer
	ids   catalog.IDGenerator
	log   *slog.Logger
}

// NewIngestor creates an ingestor over the given store and normalizer.
func NewIngestor(s *store.Store, norm *catalog.Normalizer, ids catalog.IDGenerator, log *slog.Logger) *Ingestor {
	return &Ingestor{store: s, norm: norm, ids: ids, log: log}
}

// Run ingests one context's listings. The whole batch commits atomically;
// on error nothing is applied and the caller retries the full input.
// Returns the run summary and the hotlist for the post-commit
// reconciliation pass.
func (in *Ingestor) Run(ctx context.Context, scope Scope, listings []catalog.RawListing) (*RunSummary, []HotlistEntry, error) {
	cache, err := BuildMatchCache(ctx, in.store, storeIDs(listings))
	if err != nil {
		return nil, nil, err
	}

	batch := NewStagedBatch()
	tracker := NewVariationTracker(batch)
	summary := &RunSummary{Scope: scope.String()}

	for _, l := range listings {
		res := in.process(l, cache, batch, tracker, summary)
		switch res.Outcome {
		case OutcomeCreated:
			summary.Created++
		case OutcomeUpdated:
			summary.Updated++
		case OutcomeSkipped:
			summary.Skipped++
			in.log.Debug("listing skipped", "scope", scope.String(), "name", l.Name, "reason", res.Reason)
		case OutcomeError:
			summary.Errors++
			in.log.Warn("listing failed", "scope", scope.String(), "name", l.Name, "reason", res.Reason)
		}
	}

	seenBarcodes, seenKeys := cache.PersistedSeeds()
	batch.DeduplicateCreates(seenBarcodes, seenKeys)

	if err := batch.Commit(ctx, in.store); err != nil {
		return nil, nil, fmt.Errorf("ingest %s: %w", scope.String(), err)
	}

	creates, updates, prices, dropped := batch.Counts()
	summary.Created = creates
	summary.Prices = prices
	summary.DroppedCreates = dropped
	in.log.Info("ingestion committed",
		"scope", scope.String(),
		"created", creates,
		"updated", updates,
		"prices", prices,
		"droppedCreates", dropped,
	)

	return summary, tracker.Hotlist(), nil
}

// process resolves one listing and stages its mutations.
func (in *Ingestor) process(l catalog.RawListing, cache *MatchCache, batch *StagedBatch, tracker *VariationTracker, summary *RunSummary) RecordResult {
	if l.Name == "" {
		return RecordResult{Outcome: OutcomeSkipped, Reason: "missing name"}
	}
	if l.Company == "" {
		return RecordResult{Outcome: OutcomeSkipped, Reason: "missing source company"}
	}

	barcode := catalog.NormalizeBarcode(l.Barcode)
	key := in.norm.Key(l.Name, l.Brand, l.Size)
	brandKey := in.norm.Brand(l.Brand)

	if barcode == catalog.BarcodeNotFound && l.SourceSKU == "" && key == "" {
		return RecordResult{Outcome: OutcomeSkipped, Reason: "no usable identity key"}
	}

	if p := cache.Resolve(barcode, l.SourceSKU, key); p != nil {
		in.applyMatch(l, p, key, brandKey, barcode, cache, batch, tracker)
		batch.AddPrice(p, l.Store, l)
		return RecordResult{Outcome: OutcomeUpdated}
	}

	brandID := in.resolveBrand(l, brandKey, cache, batch, summary)

	p := &catalog.Product{
		ID:            in.ids.NewID(),
		Name:          l.Name,
		BrandID:       brandID,
		Size:          l.Size,
		Barcode:       barcode,
		NormalizedKey: key,
		NameVariations: []catalog.NameVariation{
			{Name: l.Name, Company: l.Company},
		},
		KeyVariations:   appendNonEmpty(nil, key),
		URL:             l.URL,
		ImageURL:        l.ImageURL,
		Description:     l.Description,
		CountryOfOrigin: l.CountryOfOrigin,
		Ingredients:     l.Ingredients,
	}
	batch.StageCreate(p)
	cache.RegisterProvisional(p, l.SourceSKU)
	batch.AddPrice(p, l.Store, l)
	return RecordResult{Outcome: OutcomeCreated}
}

// applyMatch records variation drift and fill-if-empty enrichment on a
// matched product.
func (in *Ingestor) applyMatch(l catalog.RawListing, p *catalog.Product, key, brandKey, barcode string, cache *MatchCache, batch *StagedBatch, tracker *VariationTracker) {
	tracker.OnProductMatch(l.Name, p, l.Company)
	tracker.OnProductKeyMatch(key, p)

	if b := cache.BrandByID(p.BrandID); b != nil {
		tracker.OnBrandMatch(l.Brand, brandKey, b, l.Company, p.HasBarcode())
	}

	changed := false

	// A matched product without a barcode adopts the incoming one when no
	// other product claims it. The global uniqueness invariant holds
	// because the claim is registered in the cache immediately.
	if !p.HasBarcode() && barcode != "" && barcode != catalog.BarcodeNotFound {
		if cache.Resolve(barcode, "", "") == nil {
			p.Barcode = barcode
			cache.byBarcode[barcode] = p
			changed = true
		}
	}

	incoming := catalog.Product{
		URL:             l.URL,
		ImageURL:        l.ImageURL,
		Description:     l.Description,
		CountryOfOrigin: l.CountryOfOrigin,
		Ingredients:     l.Ingredients,
	}
	if fillEmptyFields(p, &incoming) {
		changed = true
	}

	if changed {
		batch.StageUpdate(p)
	}
}

// resolveBrand returns the brand id for a listing, creating a provisional
// brand when the normalized name is unknown.
func (in *Ingestor) resolveBrand(l catalog.RawListing, brandKey string, cache *MatchCache, batch *StagedBatch, summary *RunSummary) string {
	if brandKey == "" {
		return ""
	}
	if b := cache.ResolveBrand(brandKey); b != nil {
		return b.ID
	}
	b := &catalog.Brand{
		ID:             in.ids.NewID(),
		Name:           l.Brand,
		NormalizedName: brandKey,
		NameVariations: []catalog.NameVariation{
			{Name: l.Brand, Company: l.Company},
		},
		KeyVariations: []string{brandKey},
	}
	batch.StageBrandCreate(b)
	cache.RegisterProvisionalBrand(b)
	summary.NewBrands++
	return b.ID
}

// storeIDs returns the distinct store references appearing in a run.
func storeIDs(listings []catalog.RawListing) []string {
	seen := map[string]bool{}
	var ids []string
	for _, l := range listings {
		if l.Store != "" && !seen[l.Store] {
			seen[l.Store] = true
			ids = append(ids, l.Store)
		}
	}
	return ids
}

func appendNonEmpty(list []string, s string) []string {
	if s == "" {
		return list
	}
	return append(list, s)
}
