package domain

// Urgency tags carried by extracted line items.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyNormal   = "normal"
)

// LineItem is one free-text request extracted from a customer order.
// Immutable once handed to the matching engine.
type LineItem struct {
	ID             string   `json:"id"`
	RawText        string   `json:"raw_text"`
	Quantity       float64  `json:"quantity,omitempty"`
	Unit           string   `json:"unit,omitempty"`
	MaterialHint   string   `json:"material_hint,omitempty"`
	PartNumberHint string   `json:"part_number_hint,omitempty"`
	DimensionsHint string   `json:"dimensions_hint,omitempty"`
	Urgency        string   `json:"urgency,omitempty"`
	Requirements   []string `json:"special_requirements,omitempty"`
}

// SearchFilters narrows catalog candidates. Zero values mean "no constraint".
type SearchFilters struct {
	MaterialContains string
	Category         string
	Availability     AvailabilityStatus
	MinPrice         float64
	MaxPrice         float64
	InStockOnly      bool
	// DimensionTolerance is the relative tolerance applied when matching
	// dimensional hints, e.g. 0.05 for 5%.
	DimensionTolerance float64
}

// IsZero reports whether no constraint is set.
func (f SearchFilters) IsZero() bool {
	return f == SearchFilters{}
}
