package store

import (
	"encoding/json"
	"fmt"

	"github.com/ethanbetts63/splitcart-sub000/internal/catalog"
)

// marshalNameVariations converts a variation list to JSON TEXT for storage.
// nil and empty lists both serialize as "[]" so the column never holds NULL.
func marshalNameVariations(list []catalog.NameVariation) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal name variations: %w", err)
	}
	return string(data), nil
}

// marshalKeyVariations converts a key-variation list to JSON TEXT for storage.
func marshalKeyVariations(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal key variations: %w", err)
	}
	return string(data), nil
}

// unmarshalNameVariations parses JSON TEXT back into a variation list.
// Returns nil for empty input so zero-value records round-trip cleanly.
func unmarshalNameVariations(data string) ([]catalog.NameVariation, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var list []catalog.NameVariation
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal name variations: %w", err)
	}
	return list, nil
}

// unmarshalKeyVariations parses JSON TEXT back into a key-variation list.
func unmarshalKeyVariations(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal key variations: %w", err)
	}
	return list, nil
}
