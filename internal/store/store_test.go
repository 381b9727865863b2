package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertProducts(t *testing.T, s *Store, products ...catalog.Product) {
	t.Helper()
	err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		return tx.InsertProducts(products)
	})
	if err != nil {
		t.Fatalf("InsertProducts failed: %v", err)
	}
}

func insertPrices(t *testing.T, s *Store, obs ...catalog.PriceObservation) {
	t.Helper()
	err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		return tx.InsertPrices(obs)
	})
	if err != nil {
		t.Fatalf("InsertPrices failed: %v", err)
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestProducts_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	insertProducts(t, s, catalog.Product{
		ID:            "p-1",
		Name:          "Plain Flour 1kg",
		BrandID:       "b-1",
		Size:          "1kg",
		Barcode:       "9300650658615",
		NormalizedKey: "flour plain brandx 1kg",
		NameVariations: []catalog.NameVariation{
			{Name: "Plain Flour 1kg", Company: "alpha"},
		},
		KeyVariations: []string{"flour plain brandx 1kg"},
		URL:           "https://example.com/p1",
	})

	products, err := s.LoadAllProducts(context.Background())
	if err != nil {
		t.Fatalf("LoadAllProducts failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}

	p := products[0]
	if p.Name != "Plain Flour 1kg" || p.Barcode != "9300650658615" {
		t.Errorf("unexpected product: %+v", p)
	}
	if len(p.NameVariations) != 1 || p.NameVariations[0].Company != "alpha" {
		t.Errorf("name variations did not round-trip: %+v", p.NameVariations)
	}
	if len(p.KeyVariations) != 1 {
		t.Errorf("key variations did not round-trip: %+v", p.KeyVariations)
	}
}

func TestInsertProducts_DuplicateBarcodeIgnored(t *testing.T) {
	s := openTestStore(t)

	insertProducts(t, s,
		catalog.Product{ID: "p-1", Name: "First", Barcode: "9300650658615"},
		catalog.Product{ID: "p-2", Name: "Second", Barcode: "9300650658615"},
	)

	products, err := s.LoadAllProducts(context.Background())
	if err != nil {
		t.Fatalf("LoadAllProducts failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1 (duplicate barcode should be dropped)", len(products))
	}
	if products[0].ID != "p-1" {
		t.Errorf("surviving product = %s, want p-1", products[0].ID)
	}
}

func TestInsertProducts_SentinelBarcodeNotUnique(t *testing.T) {
	s := openTestStore(t)

	insertProducts(t, s,
		catalog.Product{ID: "p-1", Name: "First", Barcode: catalog.BarcodeNotFound},
		catalog.Product{ID: "p-2", Name: "Second", Barcode: catalog.BarcodeNotFound},
		catalog.Product{ID: "p-3", Name: "Third", Barcode: ""},
		catalog.Product{ID: "p-4", Name: "Fourth", Barcode: ""},
	)

	products, err := s.LoadAllProducts(context.Background())
	if err != nil {
		t.Fatalf("LoadAllProducts failed: %v", err)
	}
	if len(products) != 4 {
		t.Fatalf("got %d products, want 4 (sentinel and empty barcodes are exempt)", len(products))
	}
}

func TestInsertPrices_SameDayReplaces(t *testing.T) {
	s := openTestStore(t)
	insertProducts(t, s, catalog.Product{ID: "p-1", Name: "X"})

	insertPrices(t, s, catalog.PriceObservation{
		ProductID: "p-1", StoreID: "s-1", Price: 4.00, Date: "2026-08-01",
	})
	insertPrices(t, s, catalog.PriceObservation{
		ProductID: "p-1", StoreID: "s-1", Price: 3.50, IsOnSpecial: true, Date: "2026-08-01",
	})

	obs, err := s.LoadPriceObservations(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("LoadPriceObservations failed: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("got %d observations, want 1", len(obs))
	}
	if obs[0].Price != 3.50 || !obs[0].IsOnSpecial {
		t.Errorf("later same-day observation should win: %+v", obs[0])
	}
}

func TestRepointPrices_DiscardsCollisions(t *testing.T) {
	s := openTestStore(t)
	insertProducts(t, s,
		catalog.Product{ID: "canon", Name: "Canonical"},
		catalog.Product{ID: "dup", Name: "Duplicate"},
	)
	insertPrices(t, s,
		catalog.PriceObservation{ProductID: "canon", StoreID: "s-1", Price: 2.00, Date: "2026-08-01"},
		catalog.PriceObservation{ProductID: "dup", StoreID: "s-1", Price: 9.99, Date: "2026-08-01"},
		catalog.PriceObservation{ProductID: "dup", StoreID: "s-1", Price: 2.50, Date: "2026-08-02"},
		catalog.PriceObservation{ProductID: "dup", StoreID: "s-2", Price: 2.25, Date: "2026-08-01"},
	)

	var moved, discarded int
	err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		var err error
		moved, discarded, err = tx.RepointPrices("dup", "canon")
		return err
	})
	if err != nil {
		t.Fatalf("RepointPrices failed: %v", err)
	}
	if moved != 2 || discarded != 1 {
		t.Errorf("moved=%d discarded=%d, want moved=2 discarded=1", moved, discarded)
	}

	obs, err := s.LoadPriceObservations(context.Background(), "canon")
	if err != nil {
		t.Fatalf("LoadPriceObservations failed: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("got %d observations on canonical, want 3", len(obs))
	}
	// The canonical's own same-day observation survives.
	for _, o := range obs {
		if o.StoreID == "s-1" && o.Date == "2026-08-01" && o.Price != 2.00 {
			t.Errorf("canonical observation was overwritten: %+v", o)
		}
	}
}

func TestDeleteProduct_AfterRepoint(t *testing.T) {
	s := openTestStore(t)
	insertProducts(t, s,
		catalog.Product{ID: "canon", Name: "Canonical"},
		catalog.Product{ID: "dup", Name: "Duplicate"},
	)
	insertPrices(t, s,
		catalog.PriceObservation{ProductID: "dup", StoreID: "s-1", Price: 1.00, Date: "2026-08-01"},
	)

	err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		if _, _, err := tx.RepointPrices("dup", "canon"); err != nil {
			return err
		}
		return tx.DeleteProduct("dup")
	})
	if err != nil {
		t.Fatalf("merge transaction failed: %v", err)
	}

	products, err := s.LoadAllProducts(context.Background())
	if err != nil {
		t.Fatalf("LoadAllProducts failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != "canon" {
		t.Errorf("duplicate should be gone, got %+v", products)
	}
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)

	err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		if err := tx.InsertProducts([]catalog.Product{{ID: "p-1", Name: "X"}}); err != nil {
			return err
		}
		return os.ErrInvalid
	})
	if err == nil {
		t.Fatal("expected error from transaction")
	}

	products, err := s.LoadAllProducts(context.Background())
	if err != nil {
		t.Fatalf("LoadAllProducts failed: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("rollback left %d products behind", len(products))
	}
}

func TestBrands_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		return tx.InsertBrands([]catalog.Brand{{
			ID:              "b-1",
			Name:            "Abbott's Bakery",
			NormalizedName:  "abbotts bakery",
			NameVariations:  []catalog.NameVariation{{Name: "Abbott's", Company: "alpha"}},
			KeyVariations:   []string{"abbotts"},
			ConfirmedPrefix: "9300650",
		}})
	})
	if err != nil {
		t.Fatalf("InsertBrands failed: %v", err)
	}

	brands, err := s.LoadAllBrands(context.Background())
	if err != nil {
		t.Fatalf("LoadAllBrands failed: %v", err)
	}
	if len(brands) != 1 {
		t.Fatalf("got %d brands, want 1", len(brands))
	}
	b := brands[0]
	if b.NormalizedName != "abbotts bakery" || b.ConfirmedPrefix != "9300650" {
		t.Errorf("unexpected brand: %+v", b)
	}
	if len(b.KeyVariations) != 1 || b.KeyVariations[0] != "abbotts" {
		t.Errorf("key variations did not round-trip: %+v", b.KeyVariations)
	}
}

func TestInsertBrands_DuplicateNormalizedNameIgnored(t *testing.T) {
	s := openTestStore(t)

	err := s.RunInTransaction(context.Background(), func(tx *Tx) error {
		return tx.InsertBrands([]catalog.Brand{
			{ID: "b-1", Name: "Arnott's", NormalizedName: "arnotts"},
			{ID: "b-2", Name: "Arnotts", NormalizedName: "arnotts"},
		})
	})
	if err != nil {
		t.Fatalf("InsertBrands failed: %v", err)
	}

	brands, err := s.LoadAllBrands(context.Background())
	if err != nil {
		t.Fatalf("LoadAllBrands failed: %v", err)
	}
	if len(brands) != 1 || brands[0].ID != "b-1" {
		t.Errorf("duplicate normalized name should be dropped, got %+v", brands)
	}
}

func TestTranslations_ReplaceAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.ReplaceProductTranslations(ctx, map[string]string{
		"flour plain 1kg": "flour plain brandx 1kg",
	})
	if err != nil {
		t.Fatalf("ReplaceProductTranslations failed: %v", err)
	}

	// A rebuild replaces the table wholesale.
	err = s.ReplaceProductTranslations(ctx, map[string]string{
		"bread white 700g": "bread white brandy 700g",
		"bread 700g":       "bread white brandy 700g",
	})
	if err != nil {
		t.Fatalf("second ReplaceProductTranslations failed: %v", err)
	}

	table, err := s.LoadProductTranslations(ctx)
	if err != nil {
		t.Fatalf("LoadProductTranslations failed: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("got %d entries, want 2", len(table))
	}
	if table["bread 700g"] != "bread white brandy 700g" {
		t.Errorf("unexpected mapping: %v", table)
	}
	if _, ok := table["flour plain 1kg"]; ok {
		t.Error("stale entry survived the rebuild")
	}
}
