package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBarcode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty passes through", "", ""},
		{"sentinel passes through", BarcodeNotFound, BarcodeNotFound},
		{"strips formatting", "9 300650-658615", "9300650658615"},
		{"all zeros is a placeholder", "0000000000000", BarcodeNotFound},
		{"non-digits only", "n/a", BarcodeNotFound},
		{"upc-a widened to ean-13", "036000291452", "0036000291452"},
		{"valid ean-13 kept", "9300650658615", "9300650658615"},
		{"bad check digit rejected", "9300650658616", BarcodeNotFound},
		{"short internal code kept", "12345678", "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBarcode(tt.in))
		})
	}
}

func TestValidEAN13CheckDigit(t *testing.T) {
	assert.True(t, validEAN13CheckDigit("4006381333931"))
	assert.False(t, validEAN13CheckDigit("4006381333932"))
}
