package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
)

func TestBuildProductTable(t *testing.T) {
	products := []catalog.Product{
		{
			ID: "p-1", NormalizedKey: "biscuits choc ripple 250g",
			KeyVariations: []string{
				"biscuits choc ripple 250g", // self-mapping, omitted
				"biscuits chocolate ripple 250g",
			},
		},
		{ID: "p-2", NormalizedKey: "", KeyVariations: []string{"orphan key"}},
	}

	table := BuildProductTable(products)
	assert.Equal(t, map[string]string{
		"biscuits chocolate ripple 250g": "biscuits choc ripple 250g",
	}, table)
}

func TestBuildProductTable_FirstClaimWins(t *testing.T) {
	products := []catalog.Product{
		{ID: "p-1", NormalizedKey: "key one", KeyVariations: []string{"shared variation"}},
		{ID: "p-2", NormalizedKey: "key two", KeyVariations: []string{"shared variation"}},
	}

	table := BuildProductTable(products)
	assert.Equal(t, "key one", table["shared variation"])
}

func TestBuildBrandTable(t *testing.T) {
	brands := []catalog.Brand{
		{ID: "b-1", NormalizedName: "abbotts bakery", KeyVariations: []string{"abbotts", "abbotts bakery"}},
	}

	table := BuildBrandTable(brands)
	assert.Equal(t, map[string]string{"abbotts": "abbotts bakery"}, table)
}

func TestTranslationBuilder_RebuildPersistsWholesale(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// A stale entry that must vanish after the rebuild.
	require.NoError(t, s.ReplaceProductTranslations(ctx, map[string]string{
		"stale": "gone",
	}))

	seedProducts(t, s, catalog.Product{
		ID: "p-1", Name: "Choc Ripple", NormalizedKey: "biscuits choc ripple 250g",
		KeyVariations: []string{"biscuits chocolate ripple 250g"},
	})
	seedBrands(t, s, catalog.Brand{
		ID: "b-1", Name: "Arnott's", NormalizedName: "arnotts",
		KeyVariations: []string{"arnotts biscuits"},
	})

	b := NewTranslationBuilder(s, discardLogger())
	products, brands, err := b.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, products)
	assert.Equal(t, 1, brands)

	table, err := s.LoadProductTranslations(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"biscuits chocolate ripple 250g": "biscuits choc ripple 250g",
	}, table)

	brandTable, err := s.LoadBrandTranslations(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"arnotts biscuits": "arnotts"}, brandTable)
}
