package engine

import (
	"context"
	"log/slog"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// TranslationBuilder rebuilds the persisted variation-to-canonical tables
// from the variation lists on canonical records. The tables are a pure
// projection of current canonical state: regenerating them is always safe
// and always wholesale, never an incremental patch.
type TranslationBuilder struct {
	store *store.Store
	log   *slog.Logger
}

// NewTranslationBuilder creates a builder over the given store.
func NewTranslationBuilder(s *store.Store, log *slog.Logger) *TranslationBuilder {
	return &TranslationBuilder{store: s, log: log}
}

// Rebuild regenerates both translation tables and persists each as a full
// replacement. Returns the entry counts.
func (b *TranslationBuilder) Rebuild(ctx context.Context) (products, brands int, err error) {
	allProducts, err := b.store.LoadAllProducts(ctx)
	if err != nil {
		return 0, 0, err
	}
	allBrands, err := b.store.LoadAllBrands(ctx)
	if err != nil {
		return 0, 0, err
	}

	productTable := BuildProductTable(allProducts)
	brandTable := BuildBrandTable(allBrands)

	if err := b.store.ReplaceProductTranslations(ctx, productTable); err != nil {
		return 0, 0, err
	}
	if err := b.store.ReplaceBrandTranslations(ctx, brandTable); err != nil {
		return 0, 0, err
	}

	b.log.Info("translation tables rebuilt",
		"productEntries", len(productTable),
		"brandEntries", len(brandTable),
	)
	return len(productTable), len(brandTable), nil
}

// BuildProductTable derives the variationKey -> canonicalKey mapping from
// product key variations. Self-mappings are omitted; a variation key
// claimed by two canonical records keeps the first by id order.
func BuildProductTable(products []catalog.Product) map[string]string {
	table := map[string]string{}
	for _, p := range products {
		if p.NormalizedKey == "" {
			continue
		}
		for _, k := range p.KeyVariations {
			if k == "" || k == p.NormalizedKey {
				continue
			}
			if _, ok := table[k]; !ok {
				table[k] = p.NormalizedKey
			}
		}
	}
	return table
}

// BuildBrandTable derives the brand-name mapping from brand key variations.
func BuildBrandTable(brands []catalog.Brand) map[string]string {
	table := map[string]string{}
	for _, b := range brands {
		if b.NormalizedName == "" {
			continue
		}
		for _, k := range b.KeyVariations {
			if k == "" || k == b.NormalizedName {
				continue
			}
			if _, ok := table[k]; !ok {
				table[k] = b.NormalizedName
			}
		}
	}
	return table
}
