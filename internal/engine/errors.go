package engine

import (
	"errors"
	"fmt"
)

// MergeError represents a non-fatal fault detected while evaluating one
// proposed merge pair. Merge errors skip the pair and are counted; they
// never abort the rest of a reconciliation pass.
type MergeError struct {
	// Code identifies the error category.
	Code MergeErrorCode

	// Message is a human-readable description.
	Message string

	// Canonical identifies the intended surviving record, when known.
	Canonical string

	// Duplicate identifies the intended merged-away record, when known.
	Duplicate string
}

// MergeErrorCode categorizes merge errors.
type MergeErrorCode string

const (
	// ErrCodeBarcodeMismatch indicates both sides of a proposed merge carry
	// a usable barcode and the barcodes differ.
	ErrCodeBarcodeMismatch MergeErrorCode = "BARCODE_MISMATCH"

	// ErrCodeStaleEntry indicates a hotlist or translation entry whose
	// canonical or duplicate side no longer resolves to any record.
	ErrCodeStaleEntry MergeErrorCode = "STALE_ENTRY"
)

// Error implements the error interface.
func (e *MergeError) Error() string {
	if e.Canonical != "" && e.Duplicate != "" {
		return fmt.Sprintf("%s: %s (canonical=%s, duplicate=%s)", e.Code, e.Message, e.Canonical, e.Duplicate)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsBarcodeMismatch returns true if the error is a barcode mismatch.
// Uses errors.As to handle wrapped errors.
func IsBarcodeMismatch(err error) bool {
	var me *MergeError
	if errors.As(err, &me) {
		return me.Code == ErrCodeBarcodeMismatch
	}
	return false
}

// IsStaleEntry returns true if the error is a stale hotlist/translation entry.
// Uses errors.As to handle wrapped errors.
func IsStaleEntry(err error) bool {
	var me *MergeError
	if errors.As(err, &me) {
		return me.Code == ErrCodeStaleEntry
	}
	return false
}

// NewBarcodeMismatchError creates a MergeError for conflicting barcodes.
func NewBarcodeMismatchError(canonical, duplicate string) *MergeError {
	return &MergeError{
		Code:      ErrCodeBarcodeMismatch,
		Message:   "both sides carry different usable barcodes",
		Canonical: canonical,
		Duplicate: duplicate,
	}
}

// NewStaleEntryError creates a MergeError for an unresolvable entry.
func NewStaleEntryError(detail string) *MergeError {
	return &MergeError{
		Code:    ErrCodeStaleEntry,
		Message: detail,
	}
}
