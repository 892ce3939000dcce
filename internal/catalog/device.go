package catalog

import (
	"regexp"
	"strings"
)

// Device is an immutable inventory snapshot item. Devices are fetched per
// query and never mutated client-side.
type Device struct {
	ID                 string         `json:"id"`
	Manufacturer       string         `json:"manufacturer"`
	Model              string         `json:"model"`
	ModelFamily        string         `json:"model_family,omitempty"`
	Category           string         `json:"category"`
	Grade              string         `json:"grade"`
	Region             string         `json:"region"`
	Storage            string         `json:"storage"`
	UnitPrice          int            `json:"unit_price"`
	TotalQuantity      int            `json:"total_quantity"`
	LocationQuantities map[string]int `json:"location_quantities,omitempty"`
}

// Facet field names. Model family is derived but behaves exactly like the
// stored fields.
const (
	FieldManufacturer = "manufacturer"
	FieldModelFamily  = "model_family"
	FieldRegion       = "region"
	FieldStorage      = "storage"
)

// FacetFields lists the filterable fields in display order.
var FacetFields = []string{FieldManufacturer, FieldModelFamily, FieldRegion, FieldStorage}

var capacityToken = regexp.MustCompile(`(?i)^\d+(gb|tb)$`)

// ModelFamily derives the family from a model name by dropping
// whitespace-delimited capacity tokens such as "128GB" or "1TB".
func ModelFamily(model string) string {
	fields := strings.Fields(model)
	kept := fields[:0]
	for _, f := range fields {
		if capacityToken.MatchString(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// Family returns the device's model family, deriving it from the model name
// when the snapshot did not carry one.
func (d Device) Family() string {
	if d.ModelFamily != "" {
		return d.ModelFamily
	}
	return ModelFamily(d.Model)
}

// FieldValue returns the device's value for a facet field. Unknown fields
// yield "", which no selection can match.
func (d Device) FieldValue(field string) string {
	switch field {
	case FieldManufacturer:
		return d.Manufacturer
	case FieldModelFamily:
		return d.Family()
	case FieldRegion:
		return d.Region
	case FieldStorage:
		return d.Storage
	default:
		return ""
	}
}

// searchText is the haystack for free-text matching.
func (d Device) searchText() string {
	return strings.ToLower(d.Manufacturer + " " + d.Model + " " + d.Family() + " " + d.Category)
}
