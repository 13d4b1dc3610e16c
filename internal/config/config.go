// Package config resolves the three configuration tiers (system default,
// crop-type default, record override) into one typed ResolvedConfig.
package config

import "github.com/fieldsense/cropfeatures/internal/model"

// StageSpec declares one phenology stage boundary. Percentage bounds are
// relative to season duration; absolute StartDay/EndDay, when present,
// override the percentage fields for that stage.
type StageSpec struct {
	Name     string  `yaml:"name" json:"name"`
	StartPct float64 `yaml:"start_pct" json:"start_pct"`
	EndPct   float64 `yaml:"end_pct" json:"end_pct"`
	StartDay *int    `yaml:"start_day,omitempty" json:"start_day,omitempty"`
	EndDay   *int    `yaml:"end_day,omitempty" json:"end_day,omitempty"`
	Weight   float64 `yaml:"weight" json:"weight"`
}

// PhenologyConfig declares the ordered stage list plus the critical period.
// The critical period marks sensitivity, not phase, and may overlap stages.
type PhenologyConfig struct {
	Stages         []StageSpec `yaml:"stages" json:"stages"`
	CriticalPeriod StageSpec   `yaml:"critical_period" json:"critical_period"`
}

// ThermalConfig drives growing-degree-day accumulation.
type ThermalConfig struct {
	BaseTemperature    float64 `yaml:"base_temperature" json:"base_temperature"`
	OptimalTemperature float64 `yaml:"optimal_temperature" json:"optimal_temperature"`
	MaxTemperature     float64 `yaml:"max_temperature" json:"max_temperature"`
	GDDMethod          string  `yaml:"gdd_method" json:"gdd_method"` // simple | modified | triangular
	UpperThreshold     float64 `yaml:"upper_threshold" json:"upper_threshold"`
}

// StressThresholds hold per-category breach thresholds and the minimum
// consecutive-day run length before a run counts as an event.
type StressThresholds struct {
	HeatStressTemp       float64 `yaml:"heat_stress_temp" json:"heat_stress_temp"`
	HeatStressDuration   int     `yaml:"heat_stress_duration" json:"heat_stress_duration"`
	ColdStressTemp       float64 `yaml:"cold_stress_temp" json:"cold_stress_temp"`
	ColdStressDuration   int     `yaml:"cold_stress_duration" json:"cold_stress_duration"`
	DroughtSoilMoisture  float64 `yaml:"drought_soil_moisture" json:"drought_soil_moisture"`
	DroughtDuration      int     `yaml:"drought_duration" json:"drought_duration"`
	WaterloggingMoisture float64 `yaml:"waterlogging_moisture" json:"waterlogging_moisture"`
	WaterloggingDuration int     `yaml:"waterlogging_duration" json:"waterlogging_duration"`
	VPDThreshold         float64 `yaml:"vpd_threshold" json:"vpd_threshold"`
	VPDDuration          int     `yaml:"vpd_duration" json:"vpd_duration"`
	WindStressSpeed      float64 `yaml:"wind_stress_speed" json:"wind_stress_speed"`
	WindDuration         int     `yaml:"wind_duration" json:"wind_duration"`
	RainMinMM            float64 `yaml:"rain_min_mm" json:"rain_min_mm"`
}

// FeatureImportance weights stress severity by phase sensitivity.
type FeatureImportance struct {
	WeightVegetative   float64 `yaml:"weight_vegetative" json:"weight_vegetative"`
	WeightReproductive float64 `yaml:"weight_reproductive" json:"weight_reproductive"`
	WeightMaturation   float64 `yaml:"weight_maturation" json:"weight_maturation"`
}

// RollingWindows declares the sliding window sizes in days.
type RollingWindows struct {
	Short    int `yaml:"short" json:"short"`
	Medium   int `yaml:"medium" json:"medium"`
	Long     int `yaml:"long" json:"long"`
	Critical int `yaml:"critical" json:"critical"`
}

// Sizes returns the configured window sizes in fixed order, positive sizes
// only and deduplicated.
func (w RollingWindows) Sizes() []int {
	seen := map[int]bool{}
	var out []int
	for _, s := range []int{w.Short, w.Medium, w.Long, w.Critical} {
		if s > 0 && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// CropCharacteristics hold crop-level traits and season length bounds.
type CropCharacteristics struct {
	FrostSensitive        bool `yaml:"frost_sensitive" json:"frost_sensitive"`
	HeatTolerant          bool `yaml:"heat_tolerant" json:"heat_tolerant"`
	WaterloggingSensitive bool `yaml:"waterlogging_sensitive" json:"waterlogging_sensitive"`
	MinSeasonLength       int  `yaml:"min_season_length" json:"min_season_length"`
	MaxSeasonLength       int  `yaml:"max_season_length" json:"max_season_length"`
}

// Interactions hold combined-stress multipliers.
type Interactions struct {
	HeatDroughtMultiplier   float64 `yaml:"heat_drought_multiplier" json:"heat_drought_multiplier"`
	WindPrecipitationFactor float64 `yaml:"wind_precipitation_factor" json:"wind_precipitation_factor"`
}

// DataHandling controls missing-data tolerance and cleanup behavior.
type DataHandling struct {
	MaxMissingDays     int     `yaml:"max_missing_days" json:"max_missing_days"`
	InterpolateMissing bool    `yaml:"interpolate_missing" json:"interpolate_missing"`
	OutlierDetection   bool    `yaml:"outlier_detection" json:"outlier_detection"`
	OutlierThreshold   float64 `yaml:"outlier_threshold" json:"outlier_threshold"`
}

// ResolvedConfig is the validated result of merging the three tiers.
// It is a deterministic pure function of its inputs and read-only once
// resolution completes.
type ResolvedConfig struct {
	CropType            string              `json:"crop_type"`
	Phenology           PhenologyConfig     `json:"phenology"`
	Thermal             ThermalConfig       `json:"thermal"`
	StressThresholds    StressThresholds    `json:"stress_thresholds"`
	FeatureImportance   FeatureImportance   `json:"feature_importance"`
	RollingWindows      RollingWindows      `json:"rolling_windows"`
	CropCharacteristics CropCharacteristics `json:"crop_characteristics"`
	Interactions        Interactions        `json:"interactions"`
	DataHandling        DataHandling        `json:"data_handling"`

	// ExtraOverrides retains unrecognized record-override fields for
	// forward compatibility; nothing downstream reads them.
	ExtraOverrides map[string]interface{} `json:"extra_overrides,omitempty"`

	CropDefaultUsed bool `json:"crop_default_used"`
	OverrideApplied bool `json:"override_applied"`
}

// Summary returns the compact config_used snapshot for emitted years.
func (c *ResolvedConfig) Summary() model.ConfigSummary {
	return model.ConfigSummary{
		CropType:        c.CropType,
		GDDMethod:       c.Thermal.GDDMethod,
		BaseTemperature: c.Thermal.BaseTemperature,
		HeatStressTemp:  c.StressThresholds.HeatStressTemp,
		CropDefaultUsed: c.CropDefaultUsed,
		OverrideApplied: c.OverrideApplied,
	}
}

// StageWeight returns the effective weight for a stage spec, falling back
// to the importance weight matching the stage name, then 1.0.
func (c *ResolvedConfig) StageWeight(s StageSpec) float64 {
	if s.Weight > 0 {
		return s.Weight
	}
	switch s.Name {
	case "vegetative", "establishment":
		return c.FeatureImportance.WeightVegetative
	case "reproductive", "flowering":
		return c.FeatureImportance.WeightReproductive
	case "maturation", "ripening":
		return c.FeatureImportance.WeightMaturation
	}
	return 1.0
}
