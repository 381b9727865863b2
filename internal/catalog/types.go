package catalog

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// BarcodeNotFound is the sentinel stored when a source explicitly reported
// that no barcode exists for a listing. It never participates in identity
// matching or uniqueness checks.
const BarcodeNotFound = "notfound"

// NameVariation records one display name observed for a canonical record,
// together with the company that reported it. Variation lists are
// append-only and de-duplicated on (Name, Company).
type NameVariation struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}

// Product is the single authoritative row for one real-world product.
//
// Lifecycle: created on first unmatched sighting, mutated on every
// subsequent matched sighting, and destroyed only as the duplicate side of
// a merge. Its ID is never reassigned afterwards.
type Product struct {
	ID            string
	Name          string
	BrandID       string
	Size          string
	Barcode       string // empty = absent; BarcodeNotFound = sentinel
	NormalizedKey string

	NameVariations []NameVariation
	KeyVariations  []string

	// Enrichment fields, fill-if-empty only.
	URL             string
	ImageURL        string
	Description     string
	CountryOfOrigin string
	Ingredients     string
}

// HasBarcode reports whether the product carries a usable barcode,
// i.e. one that is present and not the sentinel.
func (p *Product) HasBarcode() bool {
	return p.Barcode != "" && p.Barcode != BarcodeNotFound
}

// HasVariation reports whether the (name, company) pair is already recorded.
// The comparison on the name is case-insensitive, matching the rule used
// when deciding whether an incoming display name is new.
func (p *Product) HasVariation(name, company string) bool {
	return hasVariation(p.NameVariations, name, company)
}

// HasKeyVariation reports whether the normalized key is already recorded.
func (p *Product) HasKeyVariation(key string) bool {
	return containsString(p.KeyVariations, key)
}

// Brand is the single authoritative row for one real-world brand.
type Brand struct {
	ID             string
	Name           string
	NormalizedName string

	NameVariations []NameVariation
	KeyVariations  []string

	// ConfirmedPrefix is an operator-verified GS1 registration prefix.
	// InferredPrefix is the capacity-heuristic guess; it is only written
	// when no confirmed prefix exists.
	ConfirmedPrefix string
	InferredPrefix  string
}

// HasVariation reports whether the (name, company) pair is already recorded.
func (b *Brand) HasVariation(name, company string) bool {
	return hasVariation(b.NameVariations, name, company)
}

// HasKeyVariation reports whether the normalized name is already recorded.
func (b *Brand) HasKeyVariation(key string) bool {
	return containsString(b.KeyVariations, key)
}

// PriceObservation is one price sighting of a product at a store on a
// calendar date. The natural key is (ProductID, StoreID, Date); at most one
// observation exists per key. Observations are never amended in place - a
// later same-day sighting replaces the earlier one during ingestion.
type PriceObservation struct {
	ProductID   string
	StoreID     string
	Price       float64
	WasPrice    float64
	UnitPrice   float64
	IsOnSpecial bool
	IsAvailable bool
	Date        string // calendar date, "2006-01-02"
	SourceSKU   string // store-scoped external identifier
}

// RawListing is one scraped product record as delivered by a source,
// before any identity resolution. Company and Store are already resolved
// to stable internal references by the external collaborator.
type RawListing struct {
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Size      string  `json:"size"`
	Barcode   string  `json:"barcode,omitempty"`
	SourceSKU string  `json:"sourceSku,omitempty"`
	Price     float64 `json:"price"`
	WasPrice  float64 `json:"wasPrice,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	OnSpecial bool    `json:"isOnSpecial,omitempty"`
	Available bool    `json:"isAvailable,omitempty"`
	Date      string  `json:"observedDate"`
	Company   string  `json:"sourceCompany"`
	Store     string  `json:"store,omitempty"`

	URL             string `json:"url,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
	Description     string `json:"description,omitempty"`
	CountryOfOrigin string `json:"countryOfOrigin,omitempty"`
	Ingredients     string `json:"ingredients,omitempty"`
}

// IDGenerator produces identifiers for new canonical records.
// Implemented by UUIDv7Generator (production) and SequenceGenerator (tests).
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 record ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids sort by
// creation time, which keeps catalog scans and audit logs readable.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns deterministic ids for tests: prefix-1,
// prefix-2, and so on. Safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator with the given id prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// NewID returns the next id in the sequence.
func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + "-" + strconv.Itoa(g.n)
}

func hasVariation(list []NameVariation, name, company string) bool {
	for _, v := range list {
		if v.Company == company && strings.EqualFold(v.Name, name) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
