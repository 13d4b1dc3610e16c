package config

import (
	"encoding/json"
	"fmt"
)

// Fragment is a partial configuration supplied by a higher tier (crop-type
// default or record override). Only non-nil leaves apply during merge;
// the phenology stage list is the one list-valued field and replaces
// wholesale when supplied.
type Fragment struct {
	Phenology           *PhenologyFragment    `yaml:"phenology,omitempty" json:"phenology,omitempty"`
	Thermal             *ThermalFragment      `yaml:"thermal,omitempty" json:"thermal,omitempty"`
	StressThresholds    *StressFragment       `yaml:"stress_thresholds,omitempty" json:"stress_thresholds,omitempty"`
	FeatureImportance   *ImportanceFragment   `yaml:"feature_importance,omitempty" json:"feature_importance,omitempty"`
	RollingWindows      *WindowsFragment      `yaml:"rolling_windows,omitempty" json:"rolling_windows,omitempty"`
	CropCharacteristics *CropFragment         `yaml:"crop_characteristics,omitempty" json:"crop_characteristics,omitempty"`
	Interactions        *InteractionsFragment `yaml:"interactions,omitempty" json:"interactions,omitempty"`
	DataHandling        *DataHandlingFragment `yaml:"data_handling,omitempty" json:"data_handling,omitempty"`
}

// PhenologyFragment overrides stage boundaries. Stages, when present,
// replaces the full stage list; CriticalPeriod merges per leaf.
type PhenologyFragment struct {
	Stages         []StageSpec    `yaml:"stages,omitempty" json:"stages,omitempty"`
	CriticalPeriod *StageFragment `yaml:"critical_period,omitempty" json:"critical_period,omitempty"`
}

// StageFragment overrides individual boundary fields of one stage.
type StageFragment struct {
	StartPct *float64 `yaml:"start_pct,omitempty" json:"start_pct,omitempty"`
	EndPct   *float64 `yaml:"end_pct,omitempty" json:"end_pct,omitempty"`
	StartDay *int     `yaml:"start_day,omitempty" json:"start_day,omitempty"`
	EndDay   *int     `yaml:"end_day,omitempty" json:"end_day,omitempty"`
	Weight   *float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

type ThermalFragment struct {
	BaseTemperature    *float64 `yaml:"base_temperature,omitempty" json:"base_temperature,omitempty"`
	OptimalTemperature *float64 `yaml:"optimal_temperature,omitempty" json:"optimal_temperature,omitempty"`
	MaxTemperature     *float64 `yaml:"max_temperature,omitempty" json:"max_temperature,omitempty"`
	GDDMethod          *string  `yaml:"gdd_method,omitempty" json:"gdd_method,omitempty"`
	UpperThreshold     *float64 `yaml:"upper_threshold,omitempty" json:"upper_threshold,omitempty"`
}

type StressFragment struct {
	HeatStressTemp       *float64 `yaml:"heat_stress_temp,omitempty" json:"heat_stress_temp,omitempty"`
	HeatStressDuration   *int     `yaml:"heat_stress_duration,omitempty" json:"heat_stress_duration,omitempty"`
	ColdStressTemp       *float64 `yaml:"cold_stress_temp,omitempty" json:"cold_stress_temp,omitempty"`
	ColdStressDuration   *int     `yaml:"cold_stress_duration,omitempty" json:"cold_stress_duration,omitempty"`
	DroughtSoilMoisture  *float64 `yaml:"drought_soil_moisture,omitempty" json:"drought_soil_moisture,omitempty"`
	DroughtDuration      *int     `yaml:"drought_duration,omitempty" json:"drought_duration,omitempty"`
	WaterloggingMoisture *float64 `yaml:"waterlogging_moisture,omitempty" json:"waterlogging_moisture,omitempty"`
	WaterloggingDuration *int     `yaml:"waterlogging_duration,omitempty" json:"waterlogging_duration,omitempty"`
	VPDThreshold         *float64 `yaml:"vpd_threshold,omitempty" json:"vpd_threshold,omitempty"`
	VPDDuration          *int     `yaml:"vpd_duration,omitempty" json:"vpd_duration,omitempty"`
	WindStressSpeed      *float64 `yaml:"wind_stress_speed,omitempty" json:"wind_stress_speed,omitempty"`
	WindDuration         *int     `yaml:"wind_duration,omitempty" json:"wind_duration,omitempty"`
	RainMinMM            *float64 `yaml:"rain_min_mm,omitempty" json:"rain_min_mm,omitempty"`
}

type ImportanceFragment struct {
	WeightVegetative   *float64 `yaml:"weight_vegetative,omitempty" json:"weight_vegetative,omitempty"`
	WeightReproductive *float64 `yaml:"weight_reproductive,omitempty" json:"weight_reproductive,omitempty"`
	WeightMaturation   *float64 `yaml:"weight_maturation,omitempty" json:"weight_maturation,omitempty"`
}

type WindowsFragment struct {
	Short    *int `yaml:"short,omitempty" json:"short,omitempty"`
	Medium   *int `yaml:"medium,omitempty" json:"medium,omitempty"`
	Long     *int `yaml:"long,omitempty" json:"long,omitempty"`
	Critical *int `yaml:"critical,omitempty" json:"critical,omitempty"`
}

type CropFragment struct {
	FrostSensitive        *bool `yaml:"frost_sensitive,omitempty" json:"frost_sensitive,omitempty"`
	HeatTolerant          *bool `yaml:"heat_tolerant,omitempty" json:"heat_tolerant,omitempty"`
	WaterloggingSensitive *bool `yaml:"waterlogging_sensitive,omitempty" json:"waterlogging_sensitive,omitempty"`
	MinSeasonLength       *int  `yaml:"min_season_length,omitempty" json:"min_season_length,omitempty"`
	MaxSeasonLength       *int  `yaml:"max_season_length,omitempty" json:"max_season_length,omitempty"`
}

type InteractionsFragment struct {
	HeatDroughtMultiplier   *float64 `yaml:"heat_drought_multiplier,omitempty" json:"heat_drought_multiplier,omitempty"`
	WindPrecipitationFactor *float64 `yaml:"wind_precipitation_factor,omitempty" json:"wind_precipitation_factor,omitempty"`
}

type DataHandlingFragment struct {
	MaxMissingDays     *int     `yaml:"max_missing_days,omitempty" json:"max_missing_days,omitempty"`
	InterpolateMissing *bool    `yaml:"interpolate_missing,omitempty" json:"interpolate_missing,omitempty"`
	OutlierDetection   *bool    `yaml:"outlier_detection,omitempty" json:"outlier_detection,omitempty"`
	OutlierThreshold   *float64 `yaml:"outlier_threshold,omitempty" json:"outlier_threshold,omitempty"`
}

// knownSections are the top-level fragment keys this version recognizes.
var knownSections = map[string]bool{
	"phenology":            true,
	"thermal":              true,
	"stress_thresholds":    true,
	"feature_importance":   true,
	"rolling_windows":      true,
	"crop_characteristics": true,
	"interactions":         true,
	"data_handling":        true,
}

// FragmentFromMap parses a raw record-override object into a Fragment.
// Unrecognized top-level fields are returned separately so they can be
// retained on the resolved config.
func FragmentFromMap(raw map[string]interface{}) (Fragment, map[string]interface{}, error) {
	var frag Fragment
	if len(raw) == 0 {
		return frag, nil, nil
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return frag, nil, fmt.Errorf("encode override: %w", err)
	}
	if err := json.Unmarshal(buf, &frag); err != nil {
		return frag, nil, fmt.Errorf("decode override: %w", err)
	}
	var extra map[string]interface{}
	for k, v := range raw {
		if !knownSections[k] {
			if extra == nil {
				extra = make(map[string]interface{})
			}
			extra[k] = v
		}
	}
	return frag, extra, nil
}
