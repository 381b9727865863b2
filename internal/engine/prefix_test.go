package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
)

func TestPrefixEngine_InfersAndPersists(t *testing.T) {
	s := setupTestStore(t)
	seedBrands(t, s, catalog.Brand{ID: "b-1", Name: "Arnott's", NormalizedName: "arnotts"})

	var products []catalog.Product
	for i := 0; i < 5; i++ {
		products = append(products, catalog.Product{
			ID:      fmt.Sprintf("p-%d", i),
			Name:    fmt.Sprintf("Product %d", i),
			BrandID: "b-1",
			Barcode: fmt.Sprintf("931007200%04d", i),
		})
	}
	seedProducts(t, s, products...)

	e := NewPrefixEngine(s, discardLogger())
	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inferred)

	brands, err := s.LoadAllBrands(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 1)
	// LCP is 12 digits; capacity forces one step down to 11.
	assert.Equal(t, "93100720000", brands[0].InferredPrefix)
}

func TestPrefixEngine_ConfirmedPrefixUntouched(t *testing.T) {
	s := setupTestStore(t)
	seedBrands(t, s, catalog.Brand{
		ID: "b-1", Name: "X", NormalizedName: "x", ConfirmedPrefix: "9300650",
	})
	seedProducts(t, s,
		catalog.Product{ID: "p-1", Name: "A", BrandID: "b-1", Barcode: "9310072001234"},
		catalog.Product{ID: "p-2", Name: "B", BrandID: "b-1", Barcode: "9310072005678"},
	)

	e := NewPrefixEngine(s, discardLogger())
	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Inferred)
	assert.Equal(t, 1, summary.Skipped)

	brands, err := s.LoadAllBrands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9300650", brands[0].ConfirmedPrefix)
	assert.Empty(t, brands[0].InferredPrefix)
}

func TestPrefixEngine_ShortLCPSkipped(t *testing.T) {
	s := setupTestStore(t)
	seedBrands(t, s, catalog.Brand{ID: "b-1", Name: "X", NormalizedName: "x"})
	seedProducts(t, s,
		catalog.Product{ID: "p-1", Name: "A", BrandID: "b-1", Barcode: "9310072001234"},
		catalog.Product{ID: "p-2", Name: "B", BrandID: "b-1", Barcode: "4006381333931"},
	)

	e := NewPrefixEngine(s, discardLogger())
	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Inferred)

	brands, err := s.LoadAllBrands(context.Background())
	require.NoError(t, err)
	assert.Empty(t, brands[0].InferredPrefix)
}

func TestPrefixEngine_SecondRunUnchanged(t *testing.T) {
	s := setupTestStore(t)
	seedBrands(t, s, catalog.Brand{ID: "b-1", Name: "X", NormalizedName: "x"})
	seedProducts(t, s,
		catalog.Product{ID: "p-1", Name: "A", BrandID: "b-1", Barcode: "9310072001234"},
		catalog.Product{ID: "p-2", Name: "B", BrandID: "b-1", Barcode: "9310072005678"},
	)

	e := NewPrefixEngine(s, discardLogger())
	_, err := e.Run(context.Background())
	require.NoError(t, err)

	second, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inferred)
	assert.Equal(t, 1, second.Unchanged)
}
