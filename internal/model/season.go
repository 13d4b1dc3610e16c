package model

import (
	"math"
	"time"
)

// SeasonDay is one day of the cleaned, gap-filled season grid. Values are
// NaN when the reading is missing and was not interpolated. VPD is derived
// during preparation so every consumer shares one series.
type SeasonDay struct {
	Date          time.Time
	Day           int // 1-based day of season
	TempMax       float64
	TempMin       float64
	TempMean      float64
	HumidityMax   float64
	HumidityMin   float64
	HumidityMean  float64
	WindMean      float64
	WindMax       float64
	Precipitation float64
	Rain          float64
	SoilMoisture  float64
	VPD           float64
	Observed      bool // false when no observation existed for this date
}

// Valid reports whether the day carries usable temperature data.
func (d SeasonDay) Valid() bool {
	return !math.IsNaN(d.TempMean)
}

// SeasonSeries is one year's chronological daily grid plus quality counters.
type SeasonSeries struct {
	Days             []SeasonDay
	MissingDays      int
	InterpolatedDays int
	OutliersReplaced int
}

// Length returns the season length in calendar days.
func (s *SeasonSeries) Length() int {
	return len(s.Days)
}

// Variable identifies one tracked daily series for rolling analysis.
type Variable struct {
	Name string
	Get  func(SeasonDay) float64
}

// TrackedVariables enumerates the series rolling statistics are computed
// over, in fixed order for deterministic output.
func TrackedVariables() []Variable {
	return []Variable{
		{Name: "temp_mean", Get: func(d SeasonDay) float64 { return d.TempMean }},
		{Name: "temp_max", Get: func(d SeasonDay) float64 { return d.TempMax }},
		{Name: "precipitation", Get: func(d SeasonDay) float64 { return d.Precipitation }},
		{Name: "soil_moisture", Get: func(d SeasonDay) float64 { return d.SoilMoisture }},
		{Name: "vpd", Get: func(d SeasonDay) float64 { return d.VPD }},
	}
}
