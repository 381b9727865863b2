package engine

import (
	"context"
	"fmt"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// Scope identifies one ingestion context. Store-scoped SKUs are assumed
// unique within a scope and nowhere else.
type Scope struct {
	Company string
	// Store narrows the scope to a single store for companies whose SKUs
	// are not shared network-wide. Empty means company-wide.
	Store string
}

// String returns the scope in "company" or "company/store" form.
func (s Scope) String() string {
	if s.Store == "" {
		return s.Company
	}
	return s.Company + "/" + s.Store
}

// MatchCache is the per-run snapshot of canonical identities.
//
// Three product indices are consulted in a fixed order: barcode, then
// store-scoped SKU, then normalized key. The order never changes and
// resolution stops at the first hit, so a barcode match can never be
// overridden by a coincidental normalized-key collision.
//
// The cache is ephemeral. It is rebuilt at the start of every ingestion
// context and requires no locking because a context is single-threaded.
type MatchCache struct {
	byBarcode map[string]*catalog.Product
	bySKU     map[string]*catalog.Product
	byKey     map[string]*catalog.Product

	brandsByName map[string]*catalog.Brand
	brandsByID   map[string]*catalog.Brand

	// Persisted identity keys captured at build time, before any
	// provisional registration. Seeds in-batch create deduplication.
	persistedBarcodes map[string]*catalog.Product
	persistedKeys     map[string]*catalog.Product
}

// BuildMatchCache loads all canonical products and brands and builds the
// lookup indices for one ingestion scope. storeIDs restricts the SKU index
// to the stores this run will touch; nil loads every recorded SKU link.
func BuildMatchCache(ctx context.Context, s *store.Store, storeIDs []string) (*MatchCache, error) {
	products, err := s.LoadAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("build match cache: %w", err)
	}
	brands, err := s.LoadAllBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("build match cache: %w", err)
	}
	links, err := s.LoadSKULinks(ctx, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("build match cache: %w", err)
	}

	c := &MatchCache{
		byBarcode:         map[string]*catalog.Product{},
		bySKU:             map[string]*catalog.Product{},
		byKey:             map[string]*catalog.Product{},
		brandsByName:      map[string]*catalog.Brand{},
		brandsByID:        map[string]*catalog.Brand{},
		persistedBarcodes: map[string]*catalog.Product{},
		persistedKeys:     map[string]*catalog.Product{},
	}

	byID := map[string]*catalog.Product{}
	for i := range products {
		p := &products[i]
		byID[p.ID] = p
		if p.HasBarcode() {
			c.byBarcode[p.Barcode] = p
			c.persistedBarcodes[p.Barcode] = p
		}
		if p.NormalizedKey != "" {
			c.byKey[p.NormalizedKey] = p
			c.persistedKeys[p.NormalizedKey] = p
		}
	}
	for sku, productID := range links {
		if p, ok := byID[productID]; ok {
			c.bySKU[sku] = p
		}
	}
	for i := range brands {
		b := &brands[i]
		c.brandsByName[b.NormalizedName] = b
		c.brandsByID[b.ID] = b
	}

	return c, nil
}

// Resolve returns the canonical product matching the given identity keys,
// or nil when no tier matches. Tiers are tried in fixed order and the
// first hit wins; later tiers are never consulted after a hit.
func (c *MatchCache) Resolve(barcode, sku, normalizedKey string) *catalog.Product {
	if barcode != "" && barcode != catalog.BarcodeNotFound {
		if p, ok := c.byBarcode[barcode]; ok {
			return p
		}
	}
	if sku != "" {
		if p, ok := c.bySKU[sku]; ok {
			return p
		}
	}
	if normalizedKey != "" {
		if p, ok := c.byKey[normalizedKey]; ok {
			return p
		}
	}
	return nil
}

// RegisterProvisional inserts a not-yet-persisted product into all indices
// so later records in the same run resolve to it before it is written.
func (c *MatchCache) RegisterProvisional(p *catalog.Product, sku string) {
	if p.HasBarcode() {
		c.byBarcode[p.Barcode] = p
	}
	if sku != "" {
		c.bySKU[sku] = p
	}
	if p.NormalizedKey != "" {
		c.byKey[p.NormalizedKey] = p
	}
}

// ResolveBrand returns the canonical brand for a normalized name, or nil.
func (c *MatchCache) ResolveBrand(normalizedName string) *catalog.Brand {
	if normalizedName == "" {
		return nil
	}
	return c.brandsByName[normalizedName]
}

// BrandByID returns the cached brand with the given id, or nil.
func (c *MatchCache) BrandByID(id string) *catalog.Brand {
	return c.brandsByID[id]
}

// RegisterProvisionalBrand makes a not-yet-persisted brand resolvable for
// the rest of the run.
func (c *MatchCache) RegisterProvisionalBrand(b *catalog.Brand) {
	if b.NormalizedName != "" {
		c.brandsByName[b.NormalizedName] = b
	}
	c.brandsByID[b.ID] = b
}

// PersistedSeeds returns copies of the barcode and normalized-key indices
// as they stood before any provisional registration. StagedBatch create
// deduplication starts from these.
func (c *MatchCache) PersistedSeeds() (barcodes, keys map[string]*catalog.Product) {
	barcodes = make(map[string]*catalog.Product, len(c.persistedBarcodes))
	for k, v := range c.persistedBarcodes {
		barcodes[k] = v
	}
	keys = make(map[string]*catalog.Product, len(c.persistedKeys))
	for k, v := range c.persistedKeys {
		keys[k] = v
	}
	return barcodes, keys
}
