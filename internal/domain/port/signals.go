package port

import (
	"context"
	"time"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Weather is the observed weather at a place and time.
type Weather struct {
	Condition       string  `json:"condition"`
	TemperatureC    float64 `json:"temperature_c"`
	PrecipitationMM float64 `json:"precipitation_mm"`
}

// VendorRisk is the external risk assessment of a provider.
type VendorRisk struct {
	Score      float64 `json:"risk_score"`
	Fraudulent bool    `json:"is_fraudulent"`
}

// WeatherProvider looks up historical or current weather.
type WeatherProvider interface {
	Conditions(ctx context.Context, location string, at time.Time) (Weather, error)
}

// VendorRiskProvider queries an external vendor-risk service.
type VendorRiskProvider interface {
	VendorRisk(ctx context.Context, provider string) (VendorRisk, error)
}

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}
