// Package model defines the input and output documents of the feature
// engineering pipeline. Input records are produced by the enrichment
// pipeline; this package only mirrors its schema.
package model

import "time"

// RecordIdentifiers uniquely identify a crop/location series. All fields are
// required; their absence is a record-level contract violation.
type RecordIdentifiers struct {
	CropType      string `json:"crop_type"`
	Variety       string `json:"variety"`
	LocationKey   string `json:"location_key"`
	PlantingMonth int    `json:"planting_month"`
	DurationDays  int    `json:"duration_days"`
}

// StaticContext carries year-invariant context for a record.
type StaticContext struct {
	ElevationM     *float64           `json:"elevation_m,omitempty"`
	SoilProperties map[string]float64 `json:"soil_properties,omitempty"`
	Region         string             `json:"region,omitempty"`
}

// DailyWeatherObservation is one day of raw weather. Pointer fields are nil
// when the upstream source had no reading for that variable.
type DailyWeatherObservation struct {
	Date            time.Time `json:"date"`
	TemperatureMax  *float64  `json:"temperature_max,omitempty"`
	TemperatureMin  *float64  `json:"temperature_min,omitempty"`
	TemperatureMean *float64  `json:"temperature_mean,omitempty"`
	HumidityMax     *float64  `json:"humidity_max,omitempty"`
	HumidityMin     *float64  `json:"humidity_min,omitempty"`
	HumidityMean    *float64  `json:"humidity_mean,omitempty"`
	WindMean        *float64  `json:"wind_mean,omitempty"`
	WindMax         *float64  `json:"wind_max,omitempty"`
	PrecipitationSum *float64 `json:"precipitation_sum,omitempty"`
	RainSum         *float64  `json:"rain_sum,omitempty"`
	SoilMoisture    *float64  `json:"soil_moisture,omitempty"`
}

// EnrichedCropRecord is the canonical input document. Weather series and
// performance scores are keyed by calendar year. Configuration holds raw
// record-level override fragments and may contain fields this version does
// not recognize; those are retained but unused.
type EnrichedCropRecord struct {
	Identifiers       RecordIdentifiers                 `json:"identifiers"`
	StaticContext     *StaticContext                    `json:"static_context,omitempty"`
	Configuration     map[string]interface{}            `json:"configuration,omitempty"`
	WeatherTimeSeries map[int][]DailyWeatherObservation `json:"weather_time_series"`
	PerformanceScores map[int]float64                   `json:"performance_scores"`
}

// Validate re-checks the enrichment pipeline's contract on required
// identifier fields. Returns a *ValidationError on the first violation.
func (r *EnrichedCropRecord) Validate() error {
	if r.Identifiers.CropType == "" {
		return &ValidationError{Field: "identifiers.crop_type", Reason: "missing"}
	}
	if r.Identifiers.Variety == "" {
		return &ValidationError{Field: "identifiers.variety", Reason: "missing"}
	}
	if r.Identifiers.LocationKey == "" {
		return &ValidationError{Field: "identifiers.location_key", Reason: "missing"}
	}
	if r.Identifiers.PlantingMonth < 1 || r.Identifiers.PlantingMonth > 12 {
		return &ValidationError{Field: "identifiers.planting_month", Reason: "out of range"}
	}
	if r.Identifiers.DurationDays <= 0 {
		return &ValidationError{Field: "identifiers.duration_days", Reason: "non-positive"}
	}
	return nil
}
