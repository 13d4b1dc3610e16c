// Package stress scans daily weather series for threshold breaches,
// applies consecutive-day duration gating, and computes combined-stress
// interaction features.
package stress

import (
	"math"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
	"github.com/fieldsense/cropfeatures/internal/phenology"
)

// Category names, fixed order for deterministic iteration.
const (
	CategoryHeat         = "heat"
	CategoryCold         = "cold"
	CategoryDrought      = "drought"
	CategoryWaterlogging = "waterlogging"
	CategoryVPD          = "vpd"
	CategoryWind         = "wind"
)

var categoryOrder = []string{
	CategoryHeat, CategoryCold, CategoryDrought, CategoryWaterlogging, CategoryVPD, CategoryWind,
}

// CategoryStats aggregates one stress category over a season. Only runs
// that reached the category's configured duration count as events; their
// days are the stress days below.
type CategoryStats struct {
	EventCount           int                 `json:"event_count"`
	StressDays           int                 `json:"stress_days"`
	WeightedStressDays   float64             `json:"weighted_stress_days"`
	MaxSeverity          float64             `json:"max_severity"`
	CriticalMeanSeverity float64             `json:"critical_mean_severity"`
	Events               []model.StressEvent `json:"events,omitempty"`
}

// Summary holds all category aggregates plus day-level interaction features.
type Summary struct {
	Categories map[string]CategoryStats

	HeatDroughtDays     int
	HeatDroughtSeverity float64
	WindRainDays        int
	WindRainSeverity    float64
}

// Detector applies resolved stress thresholds to a prepared season.
type Detector struct {
	thresholds   config.StressThresholds
	interactions config.Interactions
}

// NewDetector creates a detector from resolved configuration.
func NewDetector(cfg *config.ResolvedConfig) *Detector {
	return &Detector{
		thresholds:   cfg.StressThresholds,
		interactions: cfg.Interactions,
	}
}

// category binds a name to its qualification rule. severity is the
// exceedance over the threshold; ok is false for days without a usable
// reading, which break consecutive runs.
type category struct {
	name     string
	duration int
	severity func(d model.SeasonDay) (float64, bool)
}

func above(value, threshold float64) (float64, bool) {
	if math.IsNaN(value) {
		return 0, false
	}
	return value - threshold, value > threshold
}

func below(value, threshold float64) (float64, bool) {
	if math.IsNaN(value) {
		return 0, false
	}
	return threshold - value, value < threshold
}

func (det *Detector) categories() []category {
	t := det.thresholds
	return []category{
		{CategoryHeat, t.HeatStressDuration, func(d model.SeasonDay) (float64, bool) {
			return above(d.TempMax, t.HeatStressTemp)
		}},
		{CategoryCold, t.ColdStressDuration, func(d model.SeasonDay) (float64, bool) {
			return below(d.TempMin, t.ColdStressTemp)
		}},
		{CategoryDrought, t.DroughtDuration, func(d model.SeasonDay) (float64, bool) {
			return below(d.SoilMoisture, t.DroughtSoilMoisture)
		}},
		{CategoryWaterlogging, t.WaterloggingDuration, func(d model.SeasonDay) (float64, bool) {
			return above(d.SoilMoisture, t.WaterloggingMoisture)
		}},
		{CategoryVPD, t.VPDDuration, func(d model.SeasonDay) (float64, bool) {
			return above(d.VPD, t.VPDThreshold)
		}},
		{CategoryWind, t.WindDuration, func(d model.SeasonDay) (float64, bool) {
			return above(d.WindMax, t.WindStressSpeed)
		}},
	}
}

// Detect scans the season once per category in chronological order.
func (det *Detector) Detect(season *model.SeasonSeries, part phenology.Partition) Summary {
	sum := Summary{Categories: make(map[string]CategoryStats, len(categoryOrder))}

	// Day-level qualification masks, reused by interaction features.
	qualifies := make(map[string][]bool, len(categoryOrder))
	severities := make(map[string][]float64, len(categoryOrder))

	cats := det.categories()
	for _, cat := range cats {
		q := make([]bool, len(season.Days))
		sev := make([]float64, len(season.Days))
		for i, day := range season.Days {
			s, ok := cat.severity(day)
			if ok && s > 0 {
				q[i] = true
				sev[i] = s
			}
		}
		qualifies[cat.name] = q
		severities[cat.name] = sev
	}
	// Masks for every category exist before aggregation so interaction
	// factors can look across categories.
	for _, cat := range cats {
		sum.Categories[cat.name] = det.aggregate(cat, season, part, qualifies[cat.name], severities[cat.name], qualifies)
	}

	det.interactionAggregates(&sum, season, qualifies, severities)
	return sum
}

// aggregate walks maximal qualifying runs and folds counted events into
// category statistics.
func (det *Detector) aggregate(cat category, season *model.SeasonSeries, part phenology.Partition,
	qualifying []bool, severity []float64, allMasks map[string][]bool) CategoryStats {

	var stats CategoryStats
	var critSum float64
	var critDays int

	i := 0
	n := len(season.Days)
	for i < n {
		if !qualifying[i] {
			i++
			continue
		}
		start := i
		for i < n && qualifying[i] {
			i++
		}
		runLen := i - start
		if runLen < cat.duration {
			continue
		}

		event := model.StressEvent{
			Type:         cat.name,
			StartDay:     season.Days[start].Day,
			DurationDays: runLen,
		}
		for j := start; j < i; j++ {
			day := season.Days[j].Day
			s := severity[j]
			if s > event.PeakSeverity {
				event.PeakSeverity = s
			}
			if part.InCritical(day) {
				event.WithinCriticalPeriod = true
				critSum += s
				critDays++
			}
			stats.WeightedStressDays += s * part.WeightAt(day) * det.interactionFactor(cat.name, j, season, allMasks)
		}
		stats.EventCount++
		stats.StressDays += runLen
		if event.PeakSeverity > stats.MaxSeverity {
			stats.MaxSeverity = event.PeakSeverity
		}
		stats.Events = append(stats.Events, event)
	}

	if critDays > 0 {
		stats.CriticalMeanSeverity = critSum / float64(critDays)
	}
	return stats
}

// interactionFactor scales a day's severity contribution when combined
// stresses hold on the same day: heat with drought, wind with rain.
func (det *Detector) interactionFactor(name string, idx int, season *model.SeasonSeries, masks map[string][]bool) float64 {
	switch name {
	case CategoryHeat:
		if drought, ok := masks[CategoryDrought]; ok && drought[idx] {
			return det.interactions.HeatDroughtMultiplier
		}
	case CategoryDrought:
		if heat, ok := masks[CategoryHeat]; ok && heat[idx] {
			return det.interactions.HeatDroughtMultiplier
		}
	case CategoryWind:
		if rain := season.Days[idx].Rain; !math.IsNaN(rain) && rain >= det.thresholds.RainMinMM {
			return det.interactions.WindPrecipitationFactor
		}
	}
	return 1.0
}

// interactionAggregates computes day-level combined-stress features over
// all qualifying days, independent of duration gating.
func (det *Detector) interactionAggregates(sum *Summary, season *model.SeasonSeries,
	qualifies map[string][]bool, severities map[string][]float64) {

	heat, drought := qualifies[CategoryHeat], qualifies[CategoryDrought]
	wind := qualifies[CategoryWind]
	for i, day := range season.Days {
		if heat[i] && drought[i] {
			sum.HeatDroughtDays++
			sum.HeatDroughtSeverity += (severities[CategoryHeat][i] + severities[CategoryDrought][i]) *
				det.interactions.HeatDroughtMultiplier
		}
		if wind[i] && !math.IsNaN(day.Rain) && day.Rain >= det.thresholds.RainMinMM {
			sum.WindRainDays++
			sum.WindRainSeverity += severities[CategoryWind][i] * det.interactions.WindPrecipitationFactor
		}
	}
}

// Features returns the stress feature group.
func (s Summary) Features() model.FeatureVector {
	fv := make(model.FeatureVector, len(categoryOrder)*5+4)
	for _, name := range categoryOrder {
		stats := s.Categories[name]
		fv[name+"_event_count"] = float64(stats.EventCount)
		fv[name+"_stress_days"] = float64(stats.StressDays)
		fv[name+"_weighted_stress_days"] = stats.WeightedStressDays
		fv[name+"_max_severity"] = stats.MaxSeverity
		fv[name+"_critical_mean_severity"] = stats.CriticalMeanSeverity
	}
	fv["heat_drought_days"] = float64(s.HeatDroughtDays)
	fv["heat_drought_severity"] = s.HeatDroughtSeverity
	fv["wind_rain_days"] = float64(s.WindRainDays)
	fv["wind_rain_severity"] = s.WindRainSeverity
	return fv
}
