package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
)

// LoadAllProducts returns every canonical product, ordered by id for
// deterministic iteration.
//
// Returns an empty slice (not nil) when the catalog is empty.
func (s *Store) LoadAllProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, brand_id, size, barcode, normalized_key,
		       name_variations, key_variations,
		       url, image_url, description, country_of_origin, ingredients
		FROM products
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []catalog.Product{}
	for rows.Next() {
		var p catalog.Product
		var nameVars, keyVars string
		if err := rows.Scan(
			&p.ID, &p.Name, &p.BrandID, &p.Size, &p.Barcode, &p.NormalizedKey,
			&nameVars, &keyVars,
			&p.URL, &p.ImageURL, &p.Description, &p.CountryOfOrigin, &p.Ingredients,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.NameVariations, err = unmarshalNameVariations(nameVars); err != nil {
			return nil, fmt.Errorf("product %s: %w", p.ID, err)
		}
		if p.KeyVariations, err = unmarshalKeyVariations(keyVars); err != nil {
			return nil, fmt.Errorf("product %s: %w", p.ID, err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// LoadAllBrands returns every canonical brand, ordered by id.
//
// Returns an empty slice (not nil) when no brands exist.
func (s *Store) LoadAllBrands(ctx context.Context) ([]catalog.Brand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, normalized_name, name_variations, key_variations,
		       confirmed_prefix, inferred_prefix
		FROM brands
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	brands := []catalog.Brand{}
	for rows.Next() {
		var b catalog.Brand
		var nameVars, keyVars string
		if err := rows.Scan(
			&b.ID, &b.Name, &b.NormalizedName, &nameVars, &keyVars,
			&b.ConfirmedPrefix, &b.InferredPrefix,
		); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		if b.NameVariations, err = unmarshalNameVariations(nameVars); err != nil {
			return nil, fmt.Errorf("brand %s: %w", b.ID, err)
		}
		if b.KeyVariations, err = unmarshalKeyVariations(keyVars); err != nil {
			return nil, fmt.Errorf("brand %s: %w", b.ID, err)
		}
		brands = append(brands, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brands: %w", err)
	}

	return brands, nil
}

// LoadPriceObservations returns the observations for one product, ordered
// by date then store for deterministic output.
func (s *Store) LoadPriceObservations(ctx context.Context, productID string) ([]catalog.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, store_id, price, was_price, unit_price,
		       is_on_special, is_available, observed_date, source_sku
		FROM price_observations
		WHERE product_id = ?
		ORDER BY observed_date ASC, store_id ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query price observations: %w", err)
	}
	defer rows.Close()

	obs := []catalog.PriceObservation{}
	for rows.Next() {
		var o catalog.PriceObservation
		if err := rows.Scan(
			&o.ProductID, &o.StoreID, &o.Price, &o.WasPrice, &o.UnitPrice,
			&o.IsOnSpecial, &o.IsAvailable, &o.Date, &o.SourceSKU,
		); err != nil {
			return nil, fmt.Errorf("scan price observation: %w", err)
		}
		obs = append(obs, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observations: %w", err)
	}

	return obs, nil
}

// LoadSKULinks returns the sourceSku -> productID associations recorded by
// past price observations, restricted to the given stores. An empty store
// list loads every association.
//
// When two stores map the same SKU to different products the first row by
// (store, date) order wins; store-scoped identifiers are only assumed
// unique within one ingestion context.
func (s *Store) LoadSKULinks(ctx context.Context, storeIDs []string) (map[string]string, error) {
	query := `
		SELECT source_sku, product_id
		FROM price_observations
		WHERE source_sku != ''
	`
	args := []any{}
	if len(storeIDs) > 0 {
		query += " AND store_id IN (?" + strings.Repeat(", ?", len(storeIDs)-1) + ")"
		for _, id := range storeIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY store_id ASC, observed_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sku links: %w", err)
	}
	defer rows.Close()

	links := map[string]string{}
	for rows.Next() {
		var sku, productID string
		if err := rows.Scan(&sku, &productID); err != nil {
			return nil, fmt.Errorf("scan sku link: %w", err)
		}
		if _, ok := links[sku]; !ok {
			links[sku] = productID
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sku links: %w", err)
	}

	return links, nil
}

// CountPriceObservations returns the number of observations attached to a
// product. Used by merge audits and tests.
func (s *Store) CountPriceObservations(ctx context.Context, productID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM price_observations WHERE product_id = ?
	`, productID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count price observations: %w", err)
	}
	return n, nil
}
