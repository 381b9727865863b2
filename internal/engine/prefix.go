package engine

import (
	"context"
	"log/slog"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// PrefixEngine infers barcode-registry prefixes for brands from the
// barcodes of their products. The inference is a capacity heuristic, never
// ground truth: it only rejects prefixes too short to plausibly belong to
// one registrant given how many items are already observed under them.
type PrefixEngine struct {
	store *store.Store
	log   *slog.Logger
}

// NewPrefixEngine creates a prefix engine over the given store.
func NewPrefixEngine(s *store.Store, log *slog.Logger) *PrefixEngine {
	return &PrefixEngine{store: s, log: log}
}

// PrefixSummary aggregates one inference pass.
type PrefixSummary struct {
	BrandsExamined int `json:"brandsExamined"`
	Inferred       int `json:"inferred"`
	Unchanged      int `json:"unchanged"`
	Skipped        int `json:"skipped"`
}

// Run infers prefixes for every brand without a confirmed one and persists
// the changes in a single transaction.
func (e *PrefixEngine) Run(ctx context.Context) (*PrefixSummary, error) {
	brands, err := e.store.LoadAllBrands(ctx)
	if err != nil {
		return nil, err
	}
	products, err := e.store.LoadAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	barcodesByBrand := map[string][]string{}
	for _, p := range products {
		if p.BrandID != "" && p.HasBarcode() {
			barcodesByBrand[p.BrandID] = append(barcodesByBrand[p.BrandID], p.Barcode)
		}
	}

	summary := &PrefixSummary{}
	var changed []catalog.Brand
	for _, b := range brands {
		summary.BrandsExamined++
		// A confirmed prefix is operator-verified; never overwrite it.
		if b.ConfirmedPrefix != "" {
			summary.Skipped++
			continue
		}
		codes := barcodesByBrand[b.ID]
		inferred := catalog.InferPrefix(codes, len(codes))
		if inferred == "" {
			summary.Skipped++
			continue
		}
		if inferred == b.InferredPrefix {
			summary.Unchanged++
			continue
		}
		b.InferredPrefix = inferred
		changed = append(changed, b)
		summary.Inferred++
		e.log.Debug("inferred brand prefix", "brand", b.ID, "prefix", inferred, "products", len(codes))
	}

	if len(changed) > 0 {
		err := e.store.RunInTransaction(ctx, func(tx *store.Tx) error {
			return tx.UpdateBrands(changed)
		})
		if err != nil {
			return summary, err
		}
	}

	e.log.Info("prefix inference complete",
		"examined", summary.BrandsExamined,
		"inferred", summary.Inferred,
		"unchanged", summary.Unchanged,
	)
	return summary, nil
}
