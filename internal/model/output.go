package model

// FeatureVector maps feature names to numeric values. Static and temporal
// feature groups share one namespace with no collisions.
type FeatureVector map[string]float64

// Merge copies all entries of other into the vector.
func (fv FeatureVector) Merge(other FeatureVector) {
	for k, v := range other {
		fv[k] = v
	}
}

// Clone returns an independent copy.
func (fv FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(fv))
	for k, v := range fv {
		out[k] = v
	}
	return out
}

// SkipReason explains why a year was excluded from output.
type SkipReason string

const (
	SkipSeasonLength SkipReason = "season_length_out_of_bounds"
	SkipMissingData  SkipReason = "excess_missing_data"
	SkipNoLabel      SkipReason = "no_label"
)

// GrowthStage is a named phase of the growing season with inclusive
// 1-based day bounds. A stage with EndDay < StartDay is empty and
// contributes no observations.
type GrowthStage struct {
	Name     string  `json:"name"`
	StartDay int     `json:"start_day"`
	EndDay   int     `json:"end_day"`
	Weight   float64 `json:"weight"`
}

// Contains reports whether the 1-based season day falls inside the stage.
func (s GrowthStage) Contains(day int) bool {
	return day >= s.StartDay && day <= s.EndDay
}

// Length returns the stage length in days, zero for empty stages.
func (s GrowthStage) Length() int {
	if s.EndDay < s.StartDay {
		return 0
	}
	return s.EndDay - s.StartDay + 1
}

// StressEvent is a maximal run of consecutive days breaching one stress
// threshold, counted only once the run reached the category's duration.
type StressEvent struct {
	Type                 string  `json:"type"`
	StartDay             int     `json:"start_day"`
	DurationDays         int     `json:"duration_days"`
	PeakSeverity         float64 `json:"peak_severity"`
	WithinCriticalPeriod bool    `json:"within_critical_period"`
}

// ConfigSummary is the config_used snapshot attached to every emitted year.
type ConfigSummary struct {
	CropType        string  `json:"crop_type"`
	GDDMethod       string  `json:"gdd_method"`
	BaseTemperature float64 `json:"base_temperature"`
	HeatStressTemp  float64 `json:"heat_stress_temp"`
	CropDefaultUsed bool    `json:"crop_default_used"`
	OverrideApplied bool    `json:"override_applied"`
}

// YearResult is one emitted feature/label pair.
type YearResult struct {
	Year       int           `json:"year"`
	Features   FeatureVector `json:"features"`
	Label      float64       `json:"label"`
	ConfigUsed ConfigSummary `json:"config_used"`
}

// YearSkip is the diagnostic for a year omitted from output.
type YearSkip struct {
	Year   int        `json:"year"`
	Reason SkipReason `json:"reason"`
}

// TransformedRecord is the output document for one input record. Years are
// ordered ascending; skipped years appear only in the diagnostics list.
// Never mutated after emission.
type TransformedRecord struct {
	Identifiers RecordIdentifiers `json:"identifiers"`
	Years       []YearResult      `json:"years"`
	Skipped     []YearSkip        `json:"skipped,omitempty"`
}
