package catalog

import "github.com/shopspring/decimal"

// Product is a read-only snapshot owned by the catalog service. The nutrition
// and environmental metrics are optional; the catalog omits them for products
// it has no data for.
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Brand    string          `json:"brand,omitempty"`
	Category string          `json:"category,omitempty"`
	Price    decimal.Decimal `json:"price"`

	ProteinG    *float64 `json:"protein_g,omitempty"`
	FatG        *float64 `json:"fat_g,omitempty"`
	CarbsG      *float64 `json:"carbs_g,omitempty"`
	SodiumMg    *float64 `json:"sodium_mg,omitempty"`
	FiberG      *float64 `json:"fiber_g,omitempty"`
	CO2Kg       *float64 `json:"co2_kg,omitempty"`
	WaterLiters *float64 `json:"water_liters,omitempty"`
	LandM2      *float64 `json:"land_m2,omitempty"`

	Source string `json:"source,omitempty"`

	// Derived 0-100 scores and the A-E letter computed by the catalog.
	NutriScore           *float64 `json:"nutri_score,omitempty"`
	EnvScore             *float64 `json:"env_score,omitempty"`
	SustainabilityScore  *float64 `json:"sustainability_score,omitempty"`
	SustainabilityLetter *string  `json:"sustainability_letter,omitempty"`
}
