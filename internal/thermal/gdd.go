// Package thermal computes growing-degree-day accumulation.
package thermal

import (
	"math"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
	"github.com/fieldsense/cropfeatures/internal/phenology"
)

// Calculator accumulates thermal time under the configured method.
type Calculator struct {
	cfg config.ThermalConfig
}

// NewCalculator creates a calculator from resolved thermal configuration.
func NewCalculator(cfg config.ThermalConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// DailyGDD computes one day's growing-degree-days. Days with mean
// temperature above max_temperature contribute zero under every method:
// growth stops above the maximum.
func (c *Calculator) DailyGDD(day model.SeasonDay) float64 {
	if !day.Valid() {
		return 0
	}
	if day.TempMean > c.cfg.MaxTemperature {
		return 0
	}
	switch c.cfg.GDDMethod {
	case "modified":
		mean := math.Min(day.TempMean, c.cfg.UpperThreshold)
		return math.Max(0, mean-c.cfg.BaseTemperature)
	case "triangular":
		tmax := clamp(day.TempMax, c.cfg.BaseTemperature, c.cfg.MaxTemperature)
		tmin := clamp(day.TempMin, c.cfg.BaseTemperature, c.cfg.MaxTemperature)
		return math.Max(0, (tmax+tmin)/2-c.cfg.BaseTemperature)
	default: // simple
		return math.Max(0, day.TempMean-c.cfg.BaseTemperature)
	}
}

// Summary holds chronological GDD accumulation for one season.
type Summary struct {
	Daily          []float64
	Total          float64
	ByStage        map[string]float64
	CriticalPeriod float64
}

// Accumulate computes daily and cumulative GDD in chronological order.
// The running sums are ordered by date regardless of caller parallelism,
// keeping floating-point results reproducible.
func (c *Calculator) Accumulate(season *model.SeasonSeries, part phenology.Partition) Summary {
	sum := Summary{
		Daily:   make([]float64, len(season.Days)),
		ByStage: make(map[string]float64, len(part.Stages)),
	}
	for _, s := range part.Stages {
		sum.ByStage[s.Name] = 0
	}
	for i, day := range season.Days {
		g := c.DailyGDD(day)
		sum.Daily[i] = g
		sum.Total += g
		if s, ok := part.StageAt(day.Day); ok {
			sum.ByStage[s.Name] += g
		}
		if part.InCritical(day.Day) {
			sum.CriticalPeriod += g
		}
	}
	return sum
}

// Features returns the thermal feature group.
func (s Summary) Features() model.FeatureVector {
	fv := model.FeatureVector{
		"gdd_total":           s.Total,
		"gdd_critical_period": s.CriticalPeriod,
	}
	if n := len(s.Daily); n > 0 {
		fv["gdd_daily_mean"] = s.Total / float64(n)
	}
	for name, v := range s.ByStage {
		fv["gdd_"+name] = v
	}
	return fv
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
