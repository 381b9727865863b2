package catalog

// MinPrefixLen is the shortest GS1 prefix worth trusting. Anything shorter
// covers so much of the barcode space that shared prefixes are coincidence.
const MinPrefixLen = 7

// barcodeDataDigits is the number of identity digits in an EAN-13 barcode
// (13 total minus the check digit).
const barcodeDataDigits = 12

// LongestCommonPrefix returns the longest prefix shared by every code in
// the slice. An empty slice has an empty prefix.
func LongestCommonPrefix(codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	prefix := codes[0]
	for _, c := range codes[1:] {
		for len(prefix) > 0 && (len(c) < len(prefix) || c[:len(prefix)] != prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			break
		}
	}
	return prefix
}

// AddressSpace returns how many distinct items a registrant holding a
// prefix of the given length could assign: 10^(12-L) for EAN-13. Lengths
// outside 1..12 have no address space.
func AddressSpace(prefixLen int) int {
	if prefixLen < 1 || prefixLen > barcodeDataDigits {
		return 0
	}
	space := 1
	for i := 0; i < barcodeDataDigits-prefixLen; i++ {
		space *= 10
	}
	return space
}

// InferPrefix applies the capacity heuristic: starting from the longest
// common prefix of a brand's barcodes, search downwards to MinPrefixLen
// for the longest length whose address space exceeds the brand's product
// count. Returns "" when the LCP is too short or no length qualifies.
//
// This only rejects prefixes that could not plausibly belong to one
// registrant given how many distinct items are already observed; it is a
// heuristic, not proof of registration.
func InferPrefix(codes []string, productCount int) string {
	lcp := LongestCommonPrefix(codes)
	if len(lcp) < MinPrefixLen {
		return ""
	}
	for l := len(lcp); l >= MinPrefixLen; l-- {
		if productCount < AddressSpace(l) {
			return lcp[:l]
		}
	}
	return ""
}
