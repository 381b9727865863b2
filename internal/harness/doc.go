// Package harness runs scenario-driven conformance tests for the identity
// resolution engine.
//
// A scenario is a YAML document describing a sequence of ingestion runs
// (each committed atomically, with its hotlist reconciled immediately
// after when the scenario opts into reconciliation) followed by
// expectations over the resulting catalog: canonical
// record counts, recorded variations, and price observation counts.
//
// Scenarios execute against a throwaway SQLite database with a
// deterministic id generator, so the same scenario always produces the
// same catalog.
package harness
