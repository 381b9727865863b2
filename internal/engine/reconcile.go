package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethanbetts63/splitcart-sub000/internal/audit"
	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// Reconciler merges duplicate canonical records discovered after ingestion.
//
// It is a single-writer pass: never run it concurrently with itself or
// with active ingestion contexts. Each merge is its own atomic
// transaction; a pair that fails its preconditions is skipped and counted,
// never fatal to the rest of the pass.
type Reconciler struct {
	store *store.Store
	audit audit.Writer
	log   *slog.Logger
	now   func() time.Time
}

// NewReconciler creates a reconciler writing merge records to sink.
func NewReconciler(s *store.Store, sink audit.Writer, log *slog.Logger) *Reconciler {
	return &Reconciler{store: s, audit: sink, log: log, now: time.Now}
}

// MergeSummary aggregates the outcomes of one reconciliation pass.
type MergeSummary struct {
	Merged                int `json:"merged"`
	BrandsMerged          int `json:"brandsMerged"`
	SkippedStale          int `json:"skippedStale"`
	SkippedConflict       int `json:"skippedConflict"`
	MovedObservations     int `json:"movedObservations"`
	DiscardedObservations int `json:"discardedObservations"`
}

// catalogView is an in-memory index over current canonical state, kept
// consistent as merges remove records during a pass.
type catalogView struct {
	products     map[string]*catalog.Product
	productsName map[string]*catalog.Product
	productsKey  map[string]*catalog.Product
	brands       map[string]*catalog.Brand
	brandsName   map[string]*catalog.Brand
}

func (r *Reconciler) loadView(ctx context.Context) (*catalogView, error) {
	products, err := r.store.LoadAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}
	brands, err := r.store.LoadAllBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("load view: %w", err)
	}

	v := &catalogView{
		products:     map[string]*catalog.Product{},
		productsName: map[string]*catalog.Product{},
		productsKey:  map[string]*catalog.Product{},
		brands:       map[string]*catalog.Brand{},
		brandsName:   map[string]*catalog.Brand{},
	}
	for i := range products {
		p := &products[i]
		v.products[p.ID] = p
		if _, ok := v.productsName[strings.ToLower(p.Name)]; !ok {
			v.productsName[strings.ToLower(p.Name)] = p
		}
		if p.NormalizedKey != "" {
			v.productsKey[p.NormalizedKey] = p
		}
	}
	for i := range brands {
		b := &brands[i]
		v.brands[b.ID] = b
		v.brandsName[b.NormalizedName] = b
	}
	return v, nil
}

// removeProduct drops a merged-away product from every index and repoints
// its identity keys at the survivor, so later entries in the same pass
// resolve to the canonical record instead of going stale.
func (v *catalogView) removeProduct(dup, canonical *catalog.Product) {
	delete(v.products, dup.ID)
	if v.productsName[strings.ToLower(dup.Name)] == dup {
		v.productsName[strings.ToLower(dup.Name)] = canonical
	}
	if dup.NormalizedKey != "" && v.productsKey[dup.NormalizedKey] == dup {
		v.productsKey[dup.NormalizedKey] = canonical
	}
}

func (v *catalogView) removeBrand(dup, canonical *catalog.Brand) {
	delete(v.brands, dup.ID)
	if v.brandsName[dup.NormalizedName] == dup {
		v.brandsName[dup.NormalizedName] = canonical
	}
}

// RunHotlist consumes the hotlist produced by one ingestion run. For each
// entry it resolves both display names to products; a pair that is stale,
// self-referential, or barcode-conflicted is skipped and counted.
func (r *Reconciler) RunHotlist(ctx context.Context, entries []HotlistEntry) (*MergeSummary, error) {
	view, err := r.loadView(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MergeSummary{}
	for _, e := range entries {
		dup := view.productsName[strings.ToLower(e.NewVariation)]
		canonical := view.productsName[strings.ToLower(e.CanonicalName)]
		if dup == nil || canonical == nil || dup == canonical {
			summary.SkippedStale++
			r.log.Debug("hotlist entry stale", "variation", e.NewVariation, "canonical", e.CanonicalName)
			continue
		}
		if dup.HasBarcode() && canonical.HasBarcode() && dup.Barcode != canonical.Barcode {
			summary.SkippedConflict++
			r.log.Warn("hotlist merge skipped", "error", NewBarcodeMismatchError(canonical.ID, dup.ID).Error())
			continue
		}
		if err := r.mergeProducts(ctx, canonical, dup, view, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// RunTranslations merges duplicates named by the persisted translation
// tables, products first, then brands.
func (r *Reconciler) RunTranslations(ctx context.Context) (*MergeSummary, error) {
	productTable, err := r.store.LoadProductTranslations(ctx)
	if err != nil {
		return nil, err
	}
	brandTable, err := r.store.LoadBrandTranslations(ctx)
	if err != nil {
		return nil, err
	}
	view, err := r.loadView(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MergeSummary{}
	for variation, canonicalKey := range productTable {
		dup := view.productsKey[variation]
		canonical := view.productsKey[canonicalKey]
		if dup == nil || canonical == nil || dup == canonical {
			summary.SkippedStale++
			continue
		}
		if dup.HasBarcode() && canonical.HasBarcode() && dup.Barcode != canonical.Barcode {
			summary.SkippedConflict++
			r.log.Warn("translation merge skipped", "error", NewBarcodeMismatchError(canonical.ID, dup.ID).Error())
			continue
		}
		if err := r.mergeProducts(ctx, canonical, dup, view, summary); err != nil {
			return summary, err
		}
	}

	for variation, canonicalKey := range brandTable {
		dup := view.brandsName[variation]
		canonical := view.brandsName[canonicalKey]
		if dup == nil || canonical == nil || dup == canonical {
			summary.SkippedStale++
			continue
		}
		if err := r.mergeBrands(ctx, canonical, dup, view, summary); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// RunPrefixes merges brands whose products fall under another brand's
// barcode-registry prefix. A brand carrying its own prefix is never the
// duplicate side; two registered brands sharing a prefix range is operator
// territory, not heuristic territory.
func (r *Reconciler) RunPrefixes(ctx context.Context) (*MergeSummary, error) {
	view, err := r.loadView(ctx)
	if err != nil {
		return nil, err
	}

	owners := map[string]*catalog.Brand{}
	for _, b := range view.brands {
		if p := brandPrefix(b); p != "" {
			owners[p] = b
		}
	}

	summary := &MergeSummary{}
	queued := map[string]*catalog.Brand{}
	var order []string
	for _, p := range view.products {
		if !p.HasBarcode() || p.BrandID == "" {
			continue
		}
		for prefix, owner := range owners {
			if !strings.HasPrefix(p.Barcode, prefix) || p.BrandID == owner.ID {
				continue
			}
			dup := view.brands[p.BrandID]
			if dup == nil || brandPrefix(dup) != "" {
				continue
			}
			if _, ok := queued[dup.ID]; !ok {
				queued[dup.ID] = owner
				order = append(order, dup.ID)
			}
		}
	}

	for _, dupID := range order {
		dup := view.brands[dupID]
		canonical := queued[dupID]
		if dup == nil || view.brands[canonical.ID] == nil {
			summary.SkippedStale++
			continue
		}
		if err := r.mergeBrands(ctx, canonical, dup, view, summary); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// mergeProducts folds duplicate into canonical atomically: price
// observations are repointed (same-day collisions on the canonical side
// discard the duplicate's row), variations appended, the duplicate
// deleted. The duplicate's id is never reused.
func (r *Reconciler) mergeProducts(ctx context.Context, canonical, dup *catalog.Product, view *catalogView, summary *MergeSummary) error {
	absorbProductIdentity(canonical, dup)

	var moved, discarded int
	err := r.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		var err error
		moved, discarded, err = tx.RepointPrices(dup.ID, canonical.ID)
		if err != nil {
			return err
		}
		if err := tx.DeleteProduct(dup.ID); err != nil {
			return err
		}
		return tx.UpdateProducts([]catalog.Product{*canonical})
	})
	if err != nil {
		return fmt.Errorf("merge %s into %s: %w", dup.ID, canonical.ID, err)
	}

	view.removeProduct(dup, canonical)
	summary.Merged++
	summary.MovedObservations += moved
	summary.DiscardedObservations += discarded

	rec := audit.Record{
		CanonicalID:           canonical.ID,
		DuplicateID:           dup.ID,
		MovedObservations:     moved,
		DiscardedObservations: discarded,
		Timestamp:             r.now().UTC(),
	}
	if err := r.audit.Write(rec); err != nil {
		return fmt.Errorf("audit merge %s into %s: %w", dup.ID, canonical.ID, err)
	}

	r.log.Info("merged product",
		"canonical", canonical.ID,
		"duplicate", dup.ID,
		"moved", moved,
		"discarded", discarded,
	)
	return nil
}

// mergeBrands folds a duplicate brand into its canonical: products are
// reassigned, variations appended, the duplicate deleted.
func (r *Reconciler) mergeBrands(ctx context.Context, canonical, dup *catalog.Brand, view *catalogView, summary *MergeSummary) error {
	absorbBrandIdentity(canonical, dup)

	var movedProducts int
	err := r.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		var err error
		movedProducts, err = tx.ReassignBrand(dup.ID, canonical.ID)
		if err != nil {
			return err
		}
		if err := tx.DeleteBrand(dup.ID); err != nil {
			return err
		}
		return tx.UpdateBrands([]catalog.Brand{*canonical})
	})
	if err != nil {
		return fmt.Errorf("merge brand %s into %s: %w", dup.ID, canonical.ID, err)
	}

	for _, p := range view.products {
		if p.BrandID == dup.ID {
			p.BrandID = canonical.ID
		}
	}
	view.removeBrand(dup, canonical)
	summary.BrandsMerged++

	rec := audit.Record{
		CanonicalID: canonical.ID,
		DuplicateID: dup.ID,
		Timestamp:   r.now().UTC(),
	}
	if err := r.audit.Write(rec); err != nil {
		return fmt.Errorf("audit brand merge %s into %s: %w", dup.ID, canonical.ID, err)
	}

	r.log.Info("merged brand",
		"canonical", canonical.ID,
		"duplicate", dup.ID,
		"reassignedProducts", movedProducts,
	)
	return nil
}

// absorbProductIdentity appends the duplicate's variations (plus its own
// name and key) into the canonical record, skipping entries already
// present, and fills empty canonical fields from the duplicate.
func absorbProductIdentity(canonical, dup *catalog.Product) {
	for _, v := range dup.NameVariations {
		if !canonical.HasVariation(v.Name, v.Company) {
			canonical.NameVariations = append(canonical.NameVariations, v)
		}
	}
	if !strings.EqualFold(dup.Name, canonical.Name) && !hasNameAnyCompany(canonical.NameVariations, dup.Name) {
		canonical.NameVariations = append(canonical.NameVariations, catalog.NameVariation{Name: dup.Name})
	}
	for _, k := range dup.KeyVariations {
		if !canonical.HasKeyVariation(k) {
			canonical.KeyVariations = append(canonical.KeyVariations, k)
		}
	}
	if dup.NormalizedKey != "" && dup.NormalizedKey != canonical.NormalizedKey && !canonical.HasKeyVariation(dup.NormalizedKey) {
		canonical.KeyVariations = append(canonical.KeyVariations, dup.NormalizedKey)
	}
	if !canonical.HasBarcode() && dup.HasBarcode() {
		canonical.Barcode = dup.Barcode
	}
	fillEmptyFields(canonical, dup)
}

func absorbBrandIdentity(canonical, dup *catalog.Brand) {
	for _, v := range dup.NameVariations {
		if !canonical.HasVariation(v.Name, v.Company) {
			canonical.NameVariations = append(canonical.NameVariations, v)
		}
	}
	if !strings.EqualFold(dup.Name, canonical.Name) && !hasNameAnyCompany(canonical.NameVariations, dup.Name) {
		canonical.NameVariations = append(canonical.NameVariations, catalog.NameVariation{Name: dup.Name})
	}
	for _, k := range dup.KeyVariations {
		if !canonical.HasKeyVariation(k) {
			canonical.KeyVariations = append(canonical.KeyVariations, k)
		}
	}
	if dup.NormalizedName != "" && dup.NormalizedName != canonical.NormalizedName && !canonical.HasKeyVariation(dup.NormalizedName) {
		canonical.KeyVariations = append(canonical.KeyVariations, dup.NormalizedName)
	}
	if canonical.ConfirmedPrefix == "" {
		canonical.ConfirmedPrefix = dup.ConfirmedPrefix
	}
	if canonical.InferredPrefix == "" {
		canonical.InferredPrefix = dup.InferredPrefix
	}
}

func hasNameAnyCompany(list []catalog.NameVariation, name string) bool {
	for _, v := range list {
		if strings.EqualFold(v.Name, name) {
			return true
		}
	}
	return false
}

// brandPrefix returns the brand's effective registry prefix, preferring
// the operator-confirmed one.
func brandPrefix(b *catalog.Brand) string {
	if b.ConfirmedPrefix != "" {
		return b.ConfirmedPrefix
	}
	return b.InferredPrefix
}
