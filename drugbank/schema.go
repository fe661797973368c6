// Package drugbank reads DrugBank-style XML documents and condenses each drug
// record into its generic name and the set of brand names it is sold under.
package drugbank

import (
	"fmt"
	"strings"
)

// Default element names and namespace of the DrugBank full database export
const (
	DefaultNamespace       = "http://www.drugbank.ca"
	DefaultNameElement     = "name"
	DefaultProductsElement = "products"
	DefaultProductElement  = "product"
	DefaultIDElement       = "drugbank-id"
)

// Schema names the elements the extractor looks up inside a drug record.
// All lookups are direct children in Namespace; an empty Namespace matches
// elements without a namespace.
type Schema struct {
	Namespace       string
	NameElement     string
	ProductsElement string
	ProductElement  string
	// IDElement is only used to label diagnostics, it is never required
	IDElement string
}

// DefaultSchema returns the schema of the reference DrugBank dataset
func DefaultSchema() Schema {
	return Schema{
		Namespace:       DefaultNamespace,
		NameElement:     DefaultNameElement,
		ProductsElement: DefaultProductsElement,
		ProductElement:  DefaultProductElement,
		IDElement:       DefaultIDElement,
	}
}

// Validate checks that every required element name is set
func (s Schema) Validate() error {
	required := map[string]string{
		"name element":     s.NameElement,
		"products element": s.ProductsElement,
		"product element":  s.ProductElement,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("schema %s cannot be empty", field)
		}
		if strings.ContainsAny(value, " <>{}") {
			return fmt.Errorf("schema %s %q is not a valid element name", field, value)
		}
	}
	return nil
}
