package domain

// AvailabilityStatus is the catalog stock state of a part.
type AvailabilityStatus string

const (
	AvailabilityInStock      AvailabilityStatus = "in_stock"
	AvailabilityLimited      AvailabilityStatus = "limited"
	AvailabilitySpecialOrder AvailabilityStatus = "special_order"
	AvailabilityOutOfStock   AvailabilityStatus = "out_of_stock"
)

// Part is one catalog row. Dimensional fields are millimeters; zero means
// the dimension is not specified for the part.
type Part struct {
	Number       string             `json:"part_number"`
	Description  string             `json:"description"`
	Category     string             `json:"category"`
	Material     string             `json:"material"`
	Keywords     string             `json:"keywords"`
	Availability AvailabilityStatus `json:"availability"`
	ListPrice    float64            `json:"list_price"`

	DiameterMM    float64 `json:"diameter_mm,omitempty"`
	LengthMM      float64 `json:"length_mm,omitempty"`
	WidthMM       float64 `json:"width_mm,omitempty"`
	HeightMM      float64 `json:"height_mm,omitempty"`
	ThicknessMM   float64 `json:"thickness_mm,omitempty"`
	MaterialGrade string  `json:"material_grade,omitempty"`
}

// Dimensions returns the specified dimensional values of the part.
func (p Part) Dimensions() []float64 {
	out := make([]float64, 0, 5)
	for _, v := range []float64{p.DiameterMM, p.LengthMM, p.WidthMM, p.HeightMM, p.ThicknessMM} {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}
