package engine

import (
	"strings"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
)

// HotlistEntry records one suspected-duplicate sighting: a matched product
// gained a display name it had never been seen under. The hotlist is
// consumed immediately after the run that produced it commits, then
// discarded.
type HotlistEntry struct {
	NewVariation  string
	CanonicalName string
	Barcode       string
}

// VariationTracker records display-name drift on matched records and
// collects the hotlist for the post-commit reconciliation pass.
//
// A variation is only trustworthy evidence of the same item when a barcode
// ties the match down, so matches on SKU or normalized key alone record
// nothing.
type VariationTracker struct {
	batch   *StagedBatch
	hotlist []HotlistEntry
}

// NewVariationTracker creates a tracker that stages its updates on batch.
func NewVariationTracker(batch *StagedBatch) *VariationTracker {
	return &VariationTracker{batch: batch}
}

// OnProductMatch inspects a matched sighting. When the incoming display
// name differs from the canonical name and the (name, company) pair is
// new, the variation is appended, the product staged for update, and a
// hotlist entry emitted.
func (t *VariationTracker) OnProductMatch(incomingName string, p *catalog.Product, company string) {
	if !p.HasBarcode() {
		return
	}
	if incomingName == "" || strings.EqualFold(incomingName, p.Name) {
		return
	}
	if p.HasVariation(incomingName, company) {
		return
	}
	p.NameVariations = append(p.NameVariations, catalog.NameVariation{
		Name:    incomingName,
		Company: company,
	})
	t.batch.StageUpdate(p)
	t.hotlist = append(t.hotlist, HotlistEntry{
		NewVariation:  incomingName,
		CanonicalName: p.Name,
		Barcode:       p.Barcode,
	})
}

// OnProductKeyMatch records a previously unseen normalized key for a
// barcode-anchored match. Key variations feed the translation table
// rebuild; they emit no hotlist entry.
func (t *VariationTracker) OnProductKeyMatch(incomingKey string, p *catalog.Product) {
	if !p.HasBarcode() {
		return
	}
	if incomingKey == "" || incomingKey == p.NormalizedKey {
		return
	}
	if p.HasKeyVariation(incomingKey) {
		return
	}
	p.KeyVariations = append(p.KeyVariations, incomingKey)
	t.batch.StageUpdate(p)
}

// OnBrandMatch follows the same rule for brands. anchored reports whether
// the sighting was tied down by a product barcode match.
func (t *VariationTracker) OnBrandMatch(incomingName, incomingKey string, b *catalog.Brand, company string, anchored bool) {
	if !anchored {
		return
	}
	changed := false
	if incomingName != "" && !strings.EqualFold(incomingName, b.Name) && !b.HasVariation(incomingName, company) {
		b.NameVariations = append(b.NameVariations, catalog.NameVariation{
			Name:    incomingName,
			Company: company,
		})
		changed = true
	}
	if incomingKey != "" && incomingKey != b.NormalizedName && !b.HasKeyVariation(incomingKey) {
		b.KeyVariations = append(b.KeyVariations, incomingKey)
		changed = true
	}
	if changed {
		t.batch.StageBrandUpdate(b)
	}
}

// Hotlist returns the entries collected during this run.
func (t *VariationTracker) Hotlist() []HotlistEntry {
	return t.hotlist
}
