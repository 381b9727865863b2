package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance test: a sequence of ingestion runs and
// the catalog state they must produce.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// BrandSynonyms feeds the normalizer, e.g. "arnotts: arnott's".
	BrandSynonyms map[string]string `yaml:"brand_synonyms,omitempty"`

	// StoreScopedCompanies narrows those companies' runs to one store.
	StoreScopedCompanies []string `yaml:"store_scoped_companies,omitempty"`

	// Runs are executed in order. Each run is one ingestion context
	// commit; its hotlist is reconciled immediately afterwards when
	// Reconcile is set.
	Runs []ScenarioRun `yaml:"runs"`

	// Reconcile enables the post-commit hotlist pass after each run and
	// a translation rebuild plus translation-driven merge pass at the end.
	Reconcile bool `yaml:"reconcile,omitempty"`

	// Expect describes the final catalog state.
	Expect Expectations `yaml:"expect"`
}

// ScenarioRun is one ingestion invocation.
type ScenarioRun struct {
	Listings []Listing `yaml:"listings"`
}

// Listing mirrors one raw scraped record.
type Listing struct {
	Name      string  `yaml:"name"`
	Brand     string  `yaml:"brand,omitempty"`
	Size      string  `yaml:"size,omitempty"`
	Barcode   string  `yaml:"barcode,omitempty"`
	SourceSKU string  `yaml:"sourceSku,omitempty"`
	Price     float64 `yaml:"price,omitempty"`
	Date      string  `yaml:"observedDate,omitempty"`
	Company   string  `yaml:"sourceCompany"`
	Store     string  `yaml:"store,omitempty"`
}

// Expectations are subset assertions over final catalog state. Nil counts
// are not checked.
type Expectations struct {
	// Products is the expected number of canonical products.
	Products *int `yaml:"products,omitempty"`

	// Brands is the expected number of canonical brands.
	Brands *int `yaml:"brands,omitempty"`

	// Merged is the expected total of product merges across the scenario.
	Merged *int `yaml:"merged,omitempty"`

	// Observations asserts per-product price observation counts.
	// Products are addressed by display name.
	Observations []ObservationExpect `yaml:"observations,omitempty"`

	// Variations asserts recorded (name, company) variation pairs.
	Variations []VariationExpect `yaml:"variations,omitempty"`
}

// ObservationExpect asserts the observation count of one product.
type ObservationExpect struct {
	Product string `yaml:"product"`
	Count   int    `yaml:"count"`
}

// VariationExpect asserts one recorded name variation.
type VariationExpect struct {
	Product string `yaml:"product"`
	Name    string `yaml:"name"`
	Company string `yaml:"company,omitempty"`
}

// LoadScenario reads and validates a scenario YAML file. Unknown fields
// are rejected so a typo in an expectation fails loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data, path)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte, source string) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", source, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", source)
	}
	if len(s.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s: at least one run is required", source)
	}
	return &s, nil
}
