// Package engine implements identity resolution and reconciliation for the
// canonical catalog.
//
// ARCHITECTURE:
//
// Ingestion is organized as independent contexts (one company, optionally
// narrowed to one store when SKUs are not shared across a company's stores).
// Within a context processing is strictly sequential:
//
//  1. Build the MatchCache from persisted canonical state
//  2. Resolve every raw listing against the cache (barcode, then SKU, then
//     normalized key, stopping at the first hit)
//  3. Stage all mutations in a StagedBatch (nothing touches the store)
//  4. Commit the batch as one atomic transaction
//
// Separate contexts may run in parallel because they operate on disjoint
// store-scoped identifiers; the commit uses conflict-tolerant inserts so a
// race on a shared key (global barcode, global normalized key) loses
// silently instead of failing the batch.
//
// Reconciliation is a single-writer pass. It must never run concurrently
// with itself or with active ingestion contexts: merges mutate canonical
// rows that ingestion contexts hold cached. Each merge is its own atomic
// transaction, so a crash mid-pass leaves every completed merge durable and
// every pending merge untouched; re-running the pass skips the already
// merged pairs as stale.
//
// No operation here blocks on the network. All suspension points are
// database round-trips.
package engine
