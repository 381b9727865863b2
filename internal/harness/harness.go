package harness

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ethanbetts63/splitcart-sub000/internal/audit"
	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
	"github.com/ethanbetts63/splitcart-sub000/internal/engine"
	"github.com/ethanbetts63/splitcart-sub000/internal/store"
)

// Result is the final catalog state a scenario produced.
type Result struct {
	Products []catalog.Product
	Brands   []catalog.Brand

	// Observations maps product id to its price observation count.
	Observations map[string]int

	// Merged counts product merges across every reconciliation pass.
	Merged int
}

// Run executes a scenario against a fresh database at dbPath. Runs execute
// in order; within a run, scopes execute in sorted order so results are
// reproducible. Ids come from a sequence generator, so a scenario's
// product ids are stable across executions.
func Run(ctx context.Context, scn *Scenario, dbPath string, log *slog.Logger) (*Result, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	norm := catalog.NewNormalizer(catalog.WithBrandSynonyms(scn.BrandSynonyms))
	ing := engine.NewIngestor(st, norm, catalog.NewSequenceGenerator("h"), log)
	rec := engine.NewReconciler(st, audit.Discard{}, log)

	res := &Result{Observations: map[string]int{}}

	for i, run := range scn.Runs {
		scopes, grouped := groupListings(run.Listings, scn.StoreScopedCompanies)
		for _, scope := range scopes {
			_, hotlist, err := ing.Run(ctx, scope, grouped[scope])
			if err != nil {
				return nil, fmt.Errorf("scenario %s run %d scope %s: %w", scn.Name, i+1, scope.String(), err)
			}
			if scn.Reconcile && len(hotlist) > 0 {
				sum, err := rec.RunHotlist(ctx, hotlist)
				if err != nil {
					return nil, fmt.Errorf("scenario %s run %d hotlist: %w", scn.Name, i+1, err)
				}
				res.Merged += sum.Merged
			}
		}
	}

	if scn.Reconcile {
		builder := engine.NewTranslationBuilder(st, log)
		if _, _, err := builder.Rebuild(ctx); err != nil {
			return nil, fmt.Errorf("scenario %s translations: %w", scn.Name, err)
		}
		sum, err := rec.RunTranslations(ctx)
		if err != nil {
			return nil, fmt.Errorf("scenario %s translation merge: %w", scn.Name, err)
		}
		res.Merged += sum.Merged
	}

	res.Products, err = st.LoadAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	res.Brands, err = st.LoadAllBrands(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range res.Products {
		n, err := st.CountPriceObservations(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		res.Observations[p.ID] = n
	}
	return res, nil
}

// Verify checks the scenario's expectations against a result and returns
// one message per failed assertion. An empty slice means the scenario
// passed.
func (s *Scenario) Verify(res *Result) []string {
	var failures []string

	if s.Expect.Products != nil && len(res.Products) != *s.Expect.Products {
		failures = append(failures, fmt.Sprintf("products: want %d, got %d", *s.Expect.Products, len(res.Products)))
	}
	if s.Expect.Brands != nil && len(res.Brands) != *s.Expect.Brands {
		failures = append(failures, fmt.Sprintf("brands: want %d, got %d", *s.Expect.Brands, len(res.Brands)))
	}
	if s.Expect.Merged != nil && res.Merged != *s.Expect.Merged {
		failures = append(failures, fmt.Sprintf("merged: want %d, got %d", *s.Expect.Merged, res.Merged))
	}

	for _, exp := range s.Expect.Observations {
		p := findProduct(res.Products, exp.Product)
		if p == nil {
			failures = append(failures, fmt.Sprintf("observations for %q: product not found", exp.Product))
			continue
		}
		if got := res.Observations[p.ID]; got != exp.Count {
			failures = append(failures, fmt.Sprintf("observations for %q: want %d, got %d", exp.Product, exp.Count, got))
		}
	}

	for _, exp := range s.Expect.Variations {
		p := findProduct(res.Products, exp.Product)
		if p == nil {
			failures = append(failures, fmt.Sprintf("variation on %q: product not found", exp.Product))
			continue
		}
		if !p.HasVariation(exp.Name, exp.Company) {
			failures = append(failures, fmt.Sprintf("variation on %q: (%q, %q) not recorded", exp.Product, exp.Name, exp.Company))
		}
	}

	return failures
}

// findProduct looks a product up by display name, falling back to a
// case-insensitive scan of recorded variations so expectations survive
// merges that changed the canonical name.
func findProduct(products []catalog.Product, name string) *catalog.Product {
	for i := range products {
		if strings.EqualFold(products[i].Name, name) {
			return &products[i]
		}
	}
	for i := range products {
		for _, v := range products[i].NameVariations {
			if strings.EqualFold(v.Name, name) {
				return &products[i]
			}
		}
	}
	return nil
}

// groupListings splits a run's listings into ingestion scopes. Companies
// in storeScoped get one scope per store; everything else is company-wide.
func groupListings(listings []Listing, storeScoped []string) ([]engine.Scope, map[engine.Scope][]catalog.RawListing) {
	scoped := map[string]bool{}
	for _, c := range storeScoped {
		scoped[c] = true
	}

	groups := map[engine.Scope][]catalog.RawListing{}
	for _, l := range listings {
		scope := engine.Scope{Company: l.Company}
		if scoped[l.Company] {
			scope.Store = l.Store
		}
		groups[scope] = append(groups[scope], rawListing(l))
	}

	scopes := make([]engine.Scope, 0, len(groups))
	for scope := range groups {
		scopes = append(scopes, scope)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].String() < scopes[j].String() })
	return scopes, groups
}

func rawListing(l Listing) catalog.RawListing {
	return catalog.RawListing{
		Name:      l.Name,
		Brand:     l.Brand,
		Size:      l.Size,
		Barcode:   l.Barcode,
		SourceSKU: l.SourceSKU,
		Price:     l.Price,
		Date:      l.Date,
		Company:   l.Company,
		Store:     l.Store,
		Available: true,
	}
}
