// Package store provides SQLite-backed durable storage for the canonical
// catalog: products, brands, price observations, and the derived
// translation tables.
//
// The engine reaches the catalog only through the primitives exposed
// here - load-all reads, conflict-tolerant bulk inserts, field updates,
// deletes, and RunInTransaction - so any relational backend exposing the
// same primitives could replace the SQLite implementation.
//
// # Identity constraints
//
//   - products.barcode: partial UNIQUE index, excluding the empty string
//     and the "notfound" sentinel
//   - products.normalized_key: partial UNIQUE index, excluding empty
//   - brands.normalized_name: UNIQUE
//   - price_observations: PRIMARY KEY (product_id, store_id, observed_date)
//
// Bulk inserts use ON CONFLICT DO NOTHING so parallel ingestion contexts
// colliding on a shared key (global barcode, global normalized key) lose
// the race silently rather than failing the batch.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
