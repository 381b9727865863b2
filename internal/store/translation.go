package store

import (
	"context"
	"fmt"
)

// translation tables are derived data, rebuilt in full from the variation
// lists after reconciliation. ReplaceProductTranslations and
// ReplaceBrandTranslations swap the whole table atomically.

// ReplaceProductTranslations replaces the product translation table with
// the given variation-to-canonical mapping.
func (s *Store) ReplaceProductTranslations(ctx context.Context, table map[string]string) error {
	return s.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.replaceTranslations("product_translations", table)
	})
}

// ReplaceBrandTranslations replaces the brand translation table.
func (s *Store) ReplaceBrandTranslations(ctx context.Context, table map[string]string) error {
	return s.RunInTransaction(ctx, func(tx *Tx) error {
		return tx.replaceTranslations("brand_translations", table)
	})
}

func (t *Tx) replaceTranslations(table string, entries map[string]string) error {
	if _, err := t.tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	stmt, err := t.tx.Prepare(fmt.Sprintf(`
		INSERT INTO %s (variation_key, canonical_key) VALUES (?, ?)
	`, table))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for variation, canonical := range entries {
		if _, err := stmt.Exec(variation, canonical); err != nil {
			return fmt.Errorf("insert %s %q: %w", table, variation, err)
		}
	}
	return nil
}

// LoadProductTranslations returns the full product translation table.
// Returns an empty map (not nil) when the table is empty.
func (s *Store) LoadProductTranslations(ctx context.Context) (map[string]string, error) {
	return s.loadTranslations(ctx, "product_translations")
}

// LoadBrandTranslations returns the full brand translation table.
func (s *Store) LoadBrandTranslations(ctx context.Context) (map[string]string, error) {
	return s.loadTranslations(ctx, "brand_translations")
}

func (s *Store) loadTranslations(ctx context.Context, table string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT variation_key, canonical_key FROM %s
	`, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var variation, canonical string
		if err := rows.Scan(&variation, &canonical); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out[variation] = canonical
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	return out, nil
}
