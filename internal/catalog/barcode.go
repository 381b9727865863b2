package catalog

import (
	"regexp"
	"strings"
)

var nonDigitRe = regexp.MustCompile(`[^0-9]`)

// NormalizeBarcode cleans a scraped barcode into a form safe to use as a
// global identity key.
//
// Rules:
//   - the sentinel BarcodeNotFound and empty input pass through unchanged
//   - non-digits are stripped
//   - all-zero placeholders become the sentinel
//   - 12-digit UPC-A codes are widened to EAN-13 with a leading zero
//   - 13-digit codes with a failing check digit become the sentinel
//
// Shorter internal codes are returned as-is: some sources use 8-digit
// EAN-8 or proprietary codes, and those are still stable identity within
// the catalog even though they carry no GS1 prefix.
func NormalizeBarcode(barcode string) string {
	if barcode == "" || barcode == BarcodeNotFound {
		return barcode
	}

	bc := nonDigitRe.ReplaceAllString(barcode, "")
	if bc == "" || strings.Trim(bc, "0") == "" {
		return BarcodeNotFound
	}

	if len(bc) == 12 {
		bc = "0" + bc
	}

	if len(bc) == 13 && !validEAN13CheckDigit(bc) {
		return BarcodeNotFound
	}

	return bc
}

// validEAN13CheckDigit verifies the final digit of a 13-digit code against
// the GS1 weighting (1,3,1,3,... over the first 12 digits).
func validEAN13CheckDigit(bc string) bool {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(bc[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	return int(bc[12]-'0') == (10-sum%10)%10
}
