package drugbank

import (
	"errors"
	"fmt"
	"slices"

	"github.com/giygas/drugbank-mapping/logging"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ProductPolicy decides what happens to a product entry without a readable name
type ProductPolicy string

const (
	// ProductSkip drops the product and keeps processing the record
	ProductSkip ProductPolicy = "skip"
	// ProductHalt reports the product as a field extraction failure
	ProductHalt ProductPolicy = "halt"
)

// ParseProductPolicy converts a configuration value into a ProductPolicy
func ParseProductPolicy(s string) (ProductPolicy, error) {
	switch p := ProductPolicy(s); p {
	case ProductSkip, ProductHalt:
		return p, nil
	}
	return "", fmt.Errorf("product policy must be one of [skip halt], got: %s", s)
}

var (
	errMissing = errors.New("element not found")
	errEmpty   = errors.New("element has no text")
)

// Mapping is the condensed form of one drug record.
// GenericName and every brand name are lowercased.
type Mapping struct {
	GenericName string
	BrandNames  map[string]struct{}
}

// Brands returns the brand names sorted, so repeated runs produce identical output
func (m Mapping) Brands() []string {
	brands := make([]string, 0, len(m.BrandNames))
	for b := range m.BrandNames {
		brands = append(brands, b)
	}
	slices.Sort(brands)
	return brands
}

// Extractor condenses drug records. It is not safe for concurrent use.
type Extractor struct {
	schema Schema
	policy ProductPolicy
	lower  cases.Caser
}

// NewExtractor creates an extractor for the given schema
func NewExtractor(schema Schema, policy ProductPolicy) *Extractor {
	if policy == "" {
		policy = ProductSkip
	}
	return &Extractor{
		schema: schema,
		policy: policy,
		lower:  cases.Lower(language.Und),
	}
}

// Extract reads the generic name and the set of product names of one record
func (e *Extractor) Extract(record *Element) (Mapping, error) {
	id := e.recordID(record)

	generic, err := e.text(record, e.schema.NameElement)
	if err != nil {
		return Mapping{}, &ExtractionError{Field: FieldGenericName, Record: id, Err: err}
	}

	mapping := Mapping{
		GenericName: e.lower.String(generic),
		BrandNames:  make(map[string]struct{}),
	}

	products := record.Find(e.schema.Namespace, e.schema.ProductsElement)
	if products == nil {
		return mapping, nil
	}

	for i, product := range products.FindAll(e.schema.Namespace, e.schema.ProductElement) {
		brand, err := e.text(product, e.schema.NameElement)
		if err != nil {
			if e.policy == ProductHalt {
				return Mapping{}, &ExtractionError{
					Field:  FieldBrandName,
					Record: id,
					Err:    fmt.Errorf("product %d: %w", i+1, err),
				}
			}
			logging.Warn("Skipping product without name", "record", id, "product", i+1, "error", err)
			continue
		}
		mapping.BrandNames[e.lower.String(brand)] = struct{}{}
	}

	return mapping, nil
}

func (e *Extractor) text(parent *Element, local string) (string, error) {
	el := parent.Find(e.schema.Namespace, local)
	if el == nil {
		return "", fmt.Errorf("%s: %w", local, errMissing)
	}
	if el.Text == "" {
		return "", fmt.Errorf("%s: %w", local, errEmpty)
	}
	return el.Text, nil
}

// recordID prefers the primary DrugBank id and falls back to the first one
func (e *Extractor) recordID(record *Element) string {
	if e.schema.IDElement == "" {
		return ""
	}
	ids := record.FindAll(e.schema.Namespace, e.schema.IDElement)
	for _, id := range ids {
		if primary, ok := id.Attr("primary"); ok && primary == "true" {
			return id.Text
		}
	}
	if len(ids) > 0 {
		return ids[0].Text
	}
	return ""
}
