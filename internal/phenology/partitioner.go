// Package phenology converts configured stage boundaries into absolute
// day ranges over one growing season.
package phenology

import (
	"math"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
)

// Partition holds the absolute day ranges for one season. Day numbers are
// 1-based and inclusive. Named stages never overlap; the critical period
// is computed independently and may overlap any stage.
type Partition struct {
	Stages         []model.GrowthStage
	CriticalPeriod model.GrowthStage
	DurationDays   int
}

// Partitioner computes partitions from resolved phenology configuration.
type Partitioner struct {
	cfg *config.ResolvedConfig
}

// NewPartitioner creates a partitioner over a resolved config.
func NewPartitioner(cfg *config.ResolvedConfig) *Partitioner {
	return &Partitioner{cfg: cfg}
}

// Partition resolves every configured stage into absolute days for a
// season of the given duration. Percentage boundaries round half away
// from zero; absolute start_day/end_day fields, when present, override
// the percentage for that field.
func (p *Partitioner) Partition(durationDays int) Partition {
	out := Partition{DurationDays: durationDays}

	prevEnd := 0
	for _, spec := range p.cfg.Phenology.Stages {
		stage := resolveStage(spec, durationDays, p.cfg.StageWeight(spec))
		// Percentage-derived boundaries of adjacent stages land on the
		// same day; pull the start forward so named stages stay disjoint.
		if spec.StartDay == nil && stage.StartDay <= prevEnd {
			stage.StartDay = prevEnd + 1
		}
		if stage.EndDay >= stage.StartDay {
			prevEnd = stage.EndDay
		}
		out.Stages = append(out.Stages, stage)
	}

	cp := p.cfg.Phenology.CriticalPeriod
	out.CriticalPeriod = resolveStage(cp, durationDays, p.cfg.FeatureImportance.WeightReproductive)
	if out.CriticalPeriod.Name == "" {
		out.CriticalPeriod.Name = "critical_period"
	}
	return out
}

func resolveStage(spec config.StageSpec, durationDays int, weight float64) model.GrowthStage {
	start := int(math.Round(spec.StartPct / 100 * float64(durationDays)))
	end := int(math.Round(spec.EndPct / 100 * float64(durationDays)))
	if spec.StartDay != nil {
		start = *spec.StartDay
	}
	if spec.EndDay != nil {
		end = *spec.EndDay
	}
	if start < 1 {
		start = 1
	}
	if end > durationDays {
		end = durationDays
	}
	return model.GrowthStage{Name: spec.Name, StartDay: start, EndDay: end, Weight: weight}
}

// StageAt returns the named stage containing the 1-based season day.
func (pt Partition) StageAt(day int) (model.GrowthStage, bool) {
	for _, s := range pt.Stages {
		if s.Contains(day) {
			return s, true
		}
	}
	return model.GrowthStage{}, false
}

// InCritical reports whether the day falls inside the critical period.
func (pt Partition) InCritical(day int) bool {
	return pt.CriticalPeriod.Contains(day)
}

// WeightAt returns the stress weight for a day: the critical-period weight
// when the day is inside it, otherwise the containing stage's weight, and
// 1.0 when the day falls in no stage.
func (pt Partition) WeightAt(day int) float64 {
	if pt.InCritical(day) {
		return pt.CriticalPeriod.Weight
	}
	if s, ok := pt.StageAt(day); ok {
		return s.Weight
	}
	return 1.0
}
