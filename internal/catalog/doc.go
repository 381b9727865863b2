// Package catalog defines the canonical domain types for the product
// catalog and the pure identity functions that operate on them: name/key
// normalization, barcode validation, and GS1 prefix arithmetic.
//
// Nothing in this package performs I/O. The store package persists these
// types; the engine package mutates them.
package catalog
