package catalog

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer derives deterministic identity keys from dirty display text.
//
// The same physical item arrives under different names, word orders, and
// size spellings across sources. Normalizer collapses those differences:
// size tokens are extracted and canonicalized, brand synonyms are stripped
// from the name, punctuation and diacritics are removed, and the remaining
// words are sorted so the key is insensitive to word order.
//
// Normalizer is pure and safe for concurrent use after construction.
type Normalizer struct {
	brandSynonyms map[string]string // lowercase synonym -> canonical brand form
	unitSynonyms  map[string]string // lowercase unit spelling -> canonical unit
	sizeRe        *regexp.Regexp
	punctRe       *regexp.Regexp
}

// Default unit spellings. Metric units map to themselves; count units
// collapse to their short forms.
var defaultUnits = map[string]string{
	"g": "g", "gram": "g", "grams": "g", "gr": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"mg": "mg", "ml": "ml", "millilitre": "ml", "milliliter": "ml",
	"l": "l", "litre": "l", "liter": "l",
	"ea": "ea", "each": "ea",
	"pk": "pk", "pack": "pk",
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithBrandSynonyms adds synonym -> canonical brand mappings. Both sides
// are folded, so lookups stay deterministic regardless of how the table
// was spelled. Synonyms match whole brand strings and brand words embedded
// in product names.
func WithBrandSynonyms(synonyms map[string]string) NormalizerOption {
	return func(n *Normalizer) {
		for k, v := range synonyms {
			n.brandSynonyms[foldText(k)] = foldText(v)
		}
	}
}

// WithUnitSynonyms adds unit spelling -> canonical unit mappings on top of
// the defaults.
func WithUnitSynonyms(units map[string]string) NormalizerOption {
	return func(n *Normalizer) {
		for k, v := range units {
			n.unitSynonyms[strings.ToLower(k)] = strings.ToLower(v)
		}
	}
}

// NewNormalizer creates a Normalizer with the default unit table and any
// configured synonym tables.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		brandSynonyms: make(map[string]string),
		unitSynonyms:  make(map[string]string, len(defaultUnits)),
		// number immediately followed (optionally via space) by a unit word
		sizeRe:  regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-z]+)`),
		punctRe: regexp.MustCompile(`[^a-z0-9.\s]`),
	}
	for k, v := range defaultUnits {
		n.unitSynonyms[k] = v
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Key returns the normalized identity key for a product sighting.
//
// The key is cleanedName + cleanedBrand + cleanedSizes, space-joined, where
// cleanedName has brand words and size tokens removed and its remaining
// words sorted. Size tokens are collected from both the name and the size
// field, so "Choc Ripple 250g" with an empty size and "Choc Ripple" with
// size "250g" produce the same key.
//
// Key is a fixed point: Key(Key(name, brand, size), brand, size) equals
// Key(name, brand, size).
func (n *Normalizer) Key(name, brand, size string) string {
	cleanBrand := n.Brand(brand)

	nameText, nameSizes := n.extractSizes(foldText(name))
	_, fieldSizes := n.extractSizes(foldText(size))
	sizes := dedupSorted(append(nameSizes, fieldSizes...))

	words := strings.Fields(n.stripBrandWords(nameText, cleanBrand))
	sort.Strings(words)

	parts := make([]string, 0, len(words)+1+len(sizes))
	parts = append(parts, words...)
	if cleanBrand != "" {
		parts = append(parts, strings.Fields(cleanBrand)...)
	}
	parts = append(parts, sizes...)
	return strings.Join(parts, " ")
}

// Brand returns the normalized form of a brand name: folded, stripped of
// punctuation, and mapped through the synonym table.
func (n *Normalizer) Brand(brand string) string {
	b := strings.Join(strings.Fields(foldText(brand)), " ")
	if canonical, ok := n.brandSynonyms[b]; ok {
		return canonical
	}
	return b
}

// extractSizes pulls size tokens like "250g", "2 pack" or "6.5ml" out of
// folded text. It returns the text with the tokens removed and the tokens
// in canonical "<value><unit>" form. Number-word pairs whose word is not a
// known unit are left in place.
func (n *Normalizer) extractSizes(text string) (string, []string) {
	var sizes []string
	out := n.sizeRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := n.sizeRe.FindStringSubmatch(m)
		unit, ok := n.unitSynonyms[sub[2]]
		if !ok {
			return m
		}
		sizes = append(sizes, trimNumber(sub[1])+unit)
		return " "
	})
	return out, sizes
}

// stripBrandWords removes the brand's words (and any synonym spelling of
// the brand) from folded name text. Matching is on whole words only.
func (n *Normalizer) stripBrandWords(text, cleanBrand string) string {
	if cleanBrand == "" {
		return text
	}
	drop := make(map[string]bool)
	for _, w := range strings.Fields(cleanBrand) {
		drop[w] = true
	}
	for synonym, canonical := range n.brandSynonyms {
		if canonical == cleanBrand {
			for _, w := range strings.Fields(synonym) {
				drop[w] = true
			}
		}
	}
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !drop[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lowercases, removes diacritics, and strips punctuation except
// the decimal point, collapsing whitespace.
func foldText(s string) string {
	folded, _, err := transform.String(foldTransform, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	folded = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == ' ':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// trimNumber drops a trailing ".0" style fraction and any trailing dot so
// "250.0" and "250." both canonicalize to "250".
func trimNumber(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func dedupSorted(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	sort.Strings(tokens)
	out := tokens[:1]
	for _, t := range tokens[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}
