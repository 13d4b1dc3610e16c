package config

import (
	"github.com/rs/zerolog/log"
)

// Resolver merges the three configuration tiers. Precedence per leaf:
// record override > crop-type default > system default.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over an immutable crop-type registry.
func NewResolver(registry *Registry) *Resolver {
	if registry == nil {
		registry = EmptyRegistry()
	}
	return &Resolver{registry: registry}
}

// Resolve computes the configuration for one record. It is a deterministic
// pure function of (system defaults, crop defaults, override): identical
// inputs always yield an identical result.
func (r *Resolver) Resolve(cropType string, override map[string]interface{}) (*ResolvedConfig, error) {
	cfg := SystemDefault()
	cfg.CropType = cropType

	if frag, ok := r.registry.Lookup(cropType); ok {
		applyFragment(&cfg, frag)
		cfg.CropDefaultUsed = true
	}

	if len(override) > 0 {
		frag, extra, err := FragmentFromMap(override)
		if err != nil {
			return nil, err
		}
		applyFragment(&cfg, frag)
		cfg.ExtraOverrides = extra
		cfg.OverrideApplied = true
	}

	repair(&cfg)
	return &cfg, nil
}

// applyFragment copies every non-nil leaf of the fragment onto the config.
func applyFragment(cfg *ResolvedConfig, f Fragment) {
	if p := f.Phenology; p != nil {
		if len(p.Stages) > 0 {
			cfg.Phenology.Stages = append([]StageSpec(nil), p.Stages...)
		}
		if cp := p.CriticalPeriod; cp != nil {
			applyStage(&cfg.Phenology.CriticalPeriod, cp)
		}
	}
	if t := f.Thermal; t != nil {
		setFloat(&cfg.Thermal.BaseTemperature, t.BaseTemperature)
		setFloat(&cfg.Thermal.OptimalTemperature, t.OptimalTemperature)
		setFloat(&cfg.Thermal.MaxTemperature, t.MaxTemperature)
		setString(&cfg.Thermal.GDDMethod, t.GDDMethod)
		setFloat(&cfg.Thermal.UpperThreshold, t.UpperThreshold)
	}
	if s := f.StressThresholds; s != nil {
		setFloat(&cfg.StressThresholds.HeatStressTemp, s.HeatStressTemp)
		setInt(&cfg.StressThresholds.HeatStressDuration, s.HeatStressDuration)
		setFloat(&cfg.StressThresholds.ColdStressTemp, s.ColdStressTemp)
		setInt(&cfg.StressThresholds.ColdStressDuration, s.ColdStressDuration)
		setFloat(&cfg.StressThresholds.DroughtSoilMoisture, s.DroughtSoilMoisture)
		setInt(&cfg.StressThresholds.DroughtDuration, s.DroughtDuration)
		setFloat(&cfg.StressThresholds.WaterloggingMoisture, s.WaterloggingMoisture)
		setInt(&cfg.StressThresholds.WaterloggingDuration, s.WaterloggingDuration)
		setFloat(&cfg.StressThresholds.VPDThreshold, s.VPDThreshold)
		setInt(&cfg.StressThresholds.VPDDuration, s.VPDDuration)
		setFloat(&cfg.StressThresholds.WindStressSpeed, s.WindStressSpeed)
		setInt(&cfg.StressThresholds.WindDuration, s.WindDuration)
		setFloat(&cfg.StressThresholds.RainMinMM, s.RainMinMM)
	}
	if i := f.FeatureImportance; i != nil {
		setFloat(&cfg.FeatureImportance.WeightVegetative, i.WeightVegetative)
		setFloat(&cfg.FeatureImportance.WeightReproductive, i.WeightReproductive)
		setFloat(&cfg.FeatureImportance.WeightMaturation, i.WeightMaturation)
	}
	if w := f.RollingWindows; w != nil {
		setInt(&cfg.RollingWindows.Short, w.Short)
		setInt(&cfg.RollingWindows.Medium, w.Medium)
		setInt(&cfg.RollingWindows.Long, w.Long)
		setInt(&cfg.RollingWindows.Critical, w.Critical)
	}
	if c := f.CropCharacteristics; c != nil {
		setBool(&cfg.CropCharacteristics.FrostSensitive, c.FrostSensitive)
		setBool(&cfg.CropCharacteristics.HeatTolerant, c.HeatTolerant)
		setBool(&cfg.CropCharacteristics.WaterloggingSensitive, c.WaterloggingSensitive)
		setInt(&cfg.CropCharacteristics.MinSeasonLength, c.MinSeasonLength)
		setInt(&cfg.CropCharacteristics.MaxSeasonLength, c.MaxSeasonLength)
	}
	if i := f.Interactions; i != nil {
		setFloat(&cfg.Interactions.HeatDroughtMultiplier, i.HeatDroughtMultiplier)
		setFloat(&cfg.Interactions.WindPrecipitationFactor, i.WindPrecipitationFactor)
	}
	if d := f.DataHandling; d != nil {
		setInt(&cfg.DataHandling.MaxMissingDays, d.MaxMissingDays)
		setBool(&cfg.DataHandling.InterpolateMissing, d.InterpolateMissing)
		setBool(&cfg.DataHandling.OutlierDetection, d.OutlierDetection)
		setFloat(&cfg.DataHandling.OutlierThreshold, d.OutlierThreshold)
	}
}

func applyStage(dst *StageSpec, f *StageFragment) {
	setFloat(&dst.StartPct, f.StartPct)
	setFloat(&dst.EndPct, f.EndPct)
	if f.StartDay != nil {
		v := *f.StartDay
		dst.StartDay = &v
	}
	if f.EndDay != nil {
		v := *f.EndDay
		dst.EndDay = &v
	}
	setFloat(&dst.Weight, f.Weight)
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// repair enforces the leaves resolution cannot leave undefined. The system
// default tier is total, so a violation only arises from a nonsensical
// override; the bad leaf falls back to the system default with a warning
// rather than failing the record.
func repair(cfg *ResolvedConfig) {
	def := SystemDefault()

	switch cfg.Thermal.GDDMethod {
	case "simple", "modified", "triangular":
	default:
		warnFallback(cfg.CropType, "thermal.gdd_method")
		cfg.Thermal.GDDMethod = def.Thermal.GDDMethod
	}
	if cfg.Thermal.MaxTemperature <= cfg.Thermal.BaseTemperature {
		warnFallback(cfg.CropType, "thermal.max_temperature")
		cfg.Thermal.BaseTemperature = def.Thermal.BaseTemperature
		cfg.Thermal.MaxTemperature = def.Thermal.MaxTemperature
	}

	// Duration gates below 1 would let single-day noise register as events.
	for _, d := range []*int{
		&cfg.StressThresholds.HeatStressDuration,
		&cfg.StressThresholds.ColdStressDuration,
		&cfg.StressThresholds.DroughtDuration,
		&cfg.StressThresholds.WaterloggingDuration,
		&cfg.StressThresholds.VPDDuration,
		&cfg.StressThresholds.WindDuration,
	} {
		if *d < 1 {
			*d = 1
		}
	}

	if cfg.CropCharacteristics.MinSeasonLength <= 0 ||
		cfg.CropCharacteristics.MaxSeasonLength < cfg.CropCharacteristics.MinSeasonLength {
		warnFallback(cfg.CropType, "crop_characteristics.season_length")
		cfg.CropCharacteristics.MinSeasonLength = def.CropCharacteristics.MinSeasonLength
		cfg.CropCharacteristics.MaxSeasonLength = def.CropCharacteristics.MaxSeasonLength
	}
	if cfg.DataHandling.MaxMissingDays < 0 {
		warnFallback(cfg.CropType, "data_handling.max_missing_days")
		cfg.DataHandling.MaxMissingDays = def.DataHandling.MaxMissingDays
	}
	if cfg.DataHandling.OutlierThreshold <= 0 {
		warnFallback(cfg.CropType, "data_handling.outlier_threshold")
		cfg.DataHandling.OutlierThreshold = def.DataHandling.OutlierThreshold
	}
	if len(cfg.Phenology.Stages) == 0 {
		warnFallback(cfg.CropType, "phenology.stages")
		cfg.Phenology.Stages = def.Phenology.Stages
	}
}

func warnFallback(cropType, field string) {
	log.Warn().Str("crop_type", cropType).Str("field", field).
		Msg("Config value unresolved or invalid, using system default")
}
