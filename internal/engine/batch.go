package engine

import (
	"context"
	"fmt"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// StagedBatch buffers every proposed mutation for one ingestion run.
// Nothing touches the store until Commit, and Commit is all-or-nothing:
// a failure rolls back the whole batch and the input stays unconsumed.
//
// A record is only dirty when explicitly staged. Mutating a cached product
// without calling StageUpdate writes nothing.
type StagedBatch struct {
	creates []*catalog.Product
	updates []*catalog.Product
	created map[string]bool
	updated map[string]bool

	brandCreates []*catalog.Brand
	brandUpdates []*catalog.Brand
	brandStaged  map[string]bool

	prices []catalog.PriceObservation

	droppedCreates int
}

// NewStagedBatch returns an empty batch.
func NewStagedBatch() *StagedBatch {
	return &StagedBatch{
		created:     map[string]bool{},
		updated:     map[string]bool{},
		brandStaged: map[string]bool{},
	}
}

// StageCreate stages a new canonical product for insertion.
func (b *StagedBatch) StageCreate(p *catalog.Product) {
	if b.created[p.ID] {
		return
	}
	b.created[p.ID] = true
	b.creates = append(b.creates, p)
}

// StageUpdate stages an existing product for a field rewrite. Staging the
// same product twice is a no-op; a product staged for creation is never
// also staged for update, its pending insert already carries every field.
func (b *StagedBatch) StageUpdate(p *catalog.Product) {
	if b.created[p.ID] || b.updated[p.ID] {
		return
	}
	b.updated[p.ID] = true
	b.updates = append(b.updates, p)
}

// StageBrandCreate stages a new canonical brand for insertion.
func (b *StagedBatch) StageBrandCreate(br *catalog.Brand) {
	if b.brandStaged[br.ID] {
		return
	}
	b.brandStaged[br.ID] = true
	b.brandCreates = append(b.brandCreates, br)
}

// StageBrandUpdate stages an existing brand for a field rewrite.
func (b *StagedBatch) StageBrandUpdate(br *catalog.Brand) {
	if b.brandStaged[br.ID] {
		return
	}
	b.brandStaged[br.ID] = true
	b.brandUpdates = append(b.brandUpdates, br)
}

// AddPrice stages one price observation for a product. No-ops when the
// listing carries no usable price or no observation date.
func (b *StagedBatch) AddPrice(p *catalog.Product, storeID string, l catalog.RawListing) {
	if l.Price <= 0 || l.Date == "" || storeID == "" {
		return
	}
	b.prices = append(b.prices, catalog.PriceObservation{
		ProductID:   p.ID,
		StoreID:     storeID,
		Price:       l.Price,
		WasPrice:    l.WasPrice,
		UnitPrice:   l.UnitPrice,
		IsOnSpecial: l.OnSpecial,
		IsAvailable: l.Available,
		Date:        l.Date,
		SourceSKU:   l.SourceSKU,
	})
}

// DeduplicateCreates walks the staged creates in order and drops any
// candidate whose barcode or normalized key is already claimed, either by
// persisted state (the seed maps) or by an earlier kept create. The
// dropped candidate's sighting is folded into the kept product: staged
// prices are repointed and its variations appended. Returns the number of
// creates dropped.
func (b *StagedBatch) DeduplicateCreates(seenBarcodes, seenKeys map[string]*catalog.Product) int {
	kept := b.creates[:0]
	dropped := 0
	for _, p := range b.creates {
		var winner *catalog.Product
		if p.HasBarcode() {
			winner = seenBarcodes[p.Barcode]
		}
		if winner == nil && p.NormalizedKey != "" {
			winner = seenKeys[p.NormalizedKey]
		}
		if winner != nil && winner != p {
			b.foldInto(winner, p)
			dropped++
			continue
		}
		if p.HasBarcode() {
			seenBarcodes[p.Barcode] = p
		}
		if p.NormalizedKey != "" {
			seenKeys[p.NormalizedKey] = p
		}
		kept = append(kept, p)
	}
	b.creates = kept
	b.droppedCreates += dropped
	return dropped
}

// foldInto merges a dropped create candidate into the product that already
// owns its identity key.
func (b *StagedBatch) foldInto(winner, loser *catalog.Product) {
	delete(b.created, loser.ID)

	for i := range b.prices {
		if b.prices[i].ProductID == loser.ID {
			b.prices[i].ProductID = winner.ID
		}
	}

	changed := false
	for _, v := range loser.NameVariations {
		if !winner.HasVariation(v.Name, v.Company) {
			winner.NameVariations = append(winner.NameVariations, v)
			changed = true
		}
	}
	for _, k := range loser.KeyVariations {
		if !winner.HasKeyVariation(k) {
			winner.KeyVariations = append(winner.KeyVariations, k)
			changed = true
		}
	}
	if fillEmptyFields(winner, loser) {
		changed = true
	}

	// A winner that is already persisted needs its variation growth
	// written back; a winner still pending creation carries it in the
	// insert.
	if changed && !b.created[winner.ID] {
		b.StageUpdate(winner)
	}
}

// fillEmptyFields copies enrichment fields from src into dst where dst is
// empty. Returns true when anything changed.
func fillEmptyFields(dst, src *catalog.Product) bool {
	changed := false
	fill := func(dstField *string, src string) {
		if *dstField == "" && src != "" {
			*dstField = src
			changed = true
		}
	}
	fill(&dst.URL, src.URL)
	fill(&dst.ImageURL, src.ImageURL)
	fill(&dst.Description, src.Description)
	fill(&dst.CountryOfOrigin, src.CountryOfOrigin)
	fill(&dst.Ingredients, src.Ingredients)
	return changed
}

// Commit applies the whole batch as one atomic transaction: insert brands,
// insert deduplicated products, insert prices, update products, update
// brands. Identity-key conflicts on insert are silently skipped; any other
// failure rolls everything back.
func (b *StagedBatch) Commit(ctx context.Context, s *store.Store) error {
	err := s.RunInTransaction(ctx, func(tx *store.Tx) error {
		if err := tx.InsertBrands(derefBrands(b.brandCreates)); err != nil {
			return err
		}
		if err := tx.InsertProducts(derefProducts(b.creates)); err != nil {
			return err
		}
		if err := tx.InsertPrices(b.prices); err != nil {
			return err
		}
		if err := tx.UpdateProducts(derefProducts(b.updates)); err != nil {
			return err
		}
		return tx.UpdateBrands(derefBrands(b.brandUpdates))
	})
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Counts reports the staged mutation volumes for run summaries.
func (b *StagedBatch) Counts() (creates, updates, prices, dropped int) {
	return len(b.creates), len(b.updates), len(b.prices), b.droppedCreates
}

func derefProducts(in []*catalog.Product) []catalog.Product {
	out := make([]catalog.Product, len(in))
	for i, p := range in {
		out[i] = *p
	}
	return out
}

func derefBrands(in []*catalog.Brand) []catalog.Brand {
	out := make([]catalog.Brand, len(in))
	for i, b := range in {
		out[i] = *b
	}
	return out
}
