package store

import (
	"fmt"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
)

// InsertProducts bulk-inserts new canonical products.
// Uses ON CONFLICT DO NOTHING so a parallel ingestion context that already
// claimed a shared unique key (barcode, normalized key) wins the race and
// this insert is silently skipped for the colliding row.
func (t *Tx) InsertProducts(products []catalog.Product) error {
	stmt, err := t.tx.Prepare(`
		INSERT INTO products
		(id, name, brand_id, size, barcode, normalized_key,
		 name_variations, key_variations,
		 url, image_url, description, country_of_origin, ingredients)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare product insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		nameVars, err := marshalNameVariations(p.NameVariations)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
		keyVars, err := marshalKeyVariations(p.KeyVariations)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
		if _, err := stmt.Exec(
			p.ID, p.Name, p.BrandID, p.Size, p.Barcode, p.NormalizedKey,
			nameVars, keyVars,
			p.URL, p.ImageURL, p.Description, p.CountryOfOrigin, p.Ingredients,
		); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}
	return nil
}

// InsertBrands bulk-inserts new canonical brands with the same
// conflict-tolerant semantics as InsertProducts.
func (t *Tx) InsertBrands(brands []catalog.Brand) error {
	stmt, err := t.tx.Prepare(`
		INSERT INTO brands
		(id, name, normalized_name, name_variations, key_variations,
		 confirmed_prefix, inferred_prefix)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare brand insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range brands {
		nameVars, err := marshalNameVariations(b.NameVariations)
		if err != nil {
			return fmt.Errorf("insert brand %s: %w", b.ID, err)
		}
		keyVars, err := marshalKeyVariations(b.KeyVariations)
		if err != nil {
			return fmt.Errorf("insert brand %s: %w", b.ID, err)
		}
		if _, err := stmt.Exec(
			b.ID, b.Name, b.NormalizedName, nameVars, keyVars,
			b.ConfirmedPrefix, b.InferredPrefix,
		); err != nil {
			return fmt.Errorf("insert brand %s: %w", b.ID, err)
		}
	}
	return nil
}

// InsertPrices bulk-inserts price observations. A row with the same
// (product_id, store_id, observed_date) replaces the existing one, so a
// later same-day sighting supersedes the earlier observation.
func (t *Tx) InsertPrices(obs []catalog.PriceObservation) error {
	stmt, err := t.tx.Prepare(`
		INSERT INTO price_observations
		(product_id, store_id, price, was_price, unit_price,
		 is_on_special, is_available, observed_date, source_sku)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, store_id, observed_date) DO UPDATE SET
			price = excluded.price,
			was_price = excluded.was_price,
			unit_price = excluded.unit_price,
			is_on_special = excluded.is_on_special,
			is_available = excluded.is_available,
			source_sku = excluded.source_sku
	`)
	if err != nil {
		return fmt.Errorf("prepare price insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.Exec(
			o.ProductID, o.StoreID, o.Price, o.WasPrice, o.UnitPrice,
			o.IsOnSpecial, o.IsAvailable, o.Date, o.SourceSKU,
		); err != nil {
			return fmt.Errorf("insert price %s/%s/%s: %w", o.ProductID, o.StoreID, o.Date, err)
		}
	}
	return nil
}

// UpdateProducts rewrites the mutable fields of existing products.
// Variation lists are written wholesale; callers append before calling.
func (t *Tx) UpdateProducts(products []catalog.Product) error {
	stmt, err := t.tx.Prepare(`
		UPDATE products SET
			name = ?, brand_id = ?, size = ?, barcode = ?, normalized_key = ?,
			name_variations = ?, key_variations = ?,
			url = ?, image_url = ?, description = ?, country_of_origin = ?, ingredients = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare product update: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		nameVars, err := marshalNameVariations(p.NameVariations)
		if err != nil {
			return fmt.Errorf("update product %s: %w", p.ID, err)
		}
		keyVars, err := marshalKeyVariations(p.KeyVariations)
		if err != nil {
			return fmt.Errorf("update product %s: %w", p.ID, err)
		}
		if _, err := stmt.Exec(
			p.Name, p.BrandID, p.Size, p.Barcode, p.NormalizedKey,
			nameVars, keyVars,
			p.URL, p.ImageURL, p.Description, p.CountryOfOrigin, p.Ingredients,
			p.ID,
		); err != nil {
			return fmt.Errorf("update product %s: %w", p.ID, err)
		}
	}
	return nil
}

// UpdateBrands rewrites the mutable fields of existing brands.
func (t *Tx) UpdateBrands(brands []catalog.Brand) error {
	stmt, err := t.tx.Prepare(`
		UPDATE brands SET
			name = ?, normalized_name = ?, name_variations = ?, key_variations = ?,
			confirmed_prefix = ?, inferred_prefix = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare brand update: %w", err)
	}
	defer stmt.Close()

	for _, b := range brands {
		nameVars, err := marshalNameVariations(b.NameVariations)
		if err != nil {
			return fmt.Errorf("update brand %s: %w", b.ID, err)
		}
		keyVars, err := marshalKeyVariations(b.KeyVariations)
		if err != nil {
			return fmt.Errorf("update brand %s: %w", b.ID, err)
		}
		if _, err := stmt.Exec(
			b.Name, b.NormalizedName, nameVars, keyVars,
			b.ConfirmedPrefix, b.InferredPrefix,
			b.ID,
		); err != nil {
			return fmt.Errorf("update brand %s: %w", b.ID, err)
		}
	}
	return nil
}

// RepointPrices moves all price observations from one product to another.
// Observations that would collide with an existing (store, date) row on the
// destination are discarded; the destination's own observation wins.
// Returns how many rows moved and how many were discarded.
func (t *Tx) RepointPrices(fromID, toID string) (moved, discarded int, err error) {
	// Delete the source rows that would violate the destination's natural
	// key first, then the remaining rows can be repointed with a plain
	// UPDATE.
	res, err := t.tx.Exec(`
		DELETE FROM price_observations
		WHERE product_id = ?
		  AND EXISTS (
			SELECT 1 FROM price_observations dst
			WHERE dst.product_id = ?
			  AND dst.store_id = price_observations.store_id
			  AND dst.observed_date = price_observations.observed_date
		  )
	`, fromID, toID)
	if err != nil {
		return 0, 0, fmt.Errorf("discard colliding prices: %w", err)
	}
	d, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("discard colliding prices: %w", err)
	}

	res, err = t.tx.Exec(`
		UPDATE price_observations SET product_id = ? WHERE product_id = ?
	`, toID, fromID)
	if err != nil {
		return 0, 0, fmt.Errorf("repoint prices: %w", err)
	}
	m, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("repoint prices: %w", err)
	}

	return int(m), int(d), nil
}

// ReassignBrand repoints every product of one brand onto another.
// Returns the number of products moved.
func (t *Tx) ReassignBrand(fromID, toID string) (int, error) {
	res, err := t.tx.Exec(`
		UPDATE products SET brand_id = ? WHERE brand_id = ?
	`, toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("reassign brand: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign brand: %w", err)
	}
	return int(n), nil
}

// DeleteProduct removes a product row. Callers must have repointed or
// discarded its price observations first; the foreign key constraint
// rejects the delete otherwise.
func (t *Tx) DeleteProduct(id string) error {
	if _, err := t.tx.Exec(`DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

// DeleteBrand removes a brand row. Callers must have reassigned its
// products first.
func (t *Tx) DeleteBrand(id string) error {
	if _, err := t.tx.Exec(`DELETE FROM brands WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete brand %s: %w", id, err)
	}
	return nil
}
