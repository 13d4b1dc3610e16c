package config

// SystemDefault returns the built-in base tier. It is total: every leaf the
// resolver recognizes carries a defined value, so resolution can always
// fall back here.
func SystemDefault() ResolvedConfig {
	return ResolvedConfig{
		Phenology: PhenologyConfig{
			Stages: []StageSpec{
				{Name: "establishment", StartPct: 0, EndPct: 20, Weight: 1.0},
				{Name: "vegetative", StartPct: 20, EndPct: 45, Weight: 1.0},
				{Name: "reproductive", StartPct: 45, EndPct: 75, Weight: 1.5},
				{Name: "maturation", StartPct: 75, EndPct: 100, Weight: 0.8},
			},
			CriticalPeriod: StageSpec{Name: "critical_period", StartPct: 40, EndPct: 70, Weight: 1.5},
		},
		Thermal: ThermalConfig{
			BaseTemperature:    10,
			OptimalTemperature: 25,
			MaxTemperature:     35,
			GDDMethod:          "simple",
			UpperThreshold:     30,
		},
		StressThresholds: StressThresholds{
			HeatStressTemp:       32,
			HeatStressDuration:   3,
			ColdStressTemp:       5,
			ColdStressDuration:   2,
			DroughtSoilMoisture:  0.15,
			DroughtDuration:      5,
			WaterloggingMoisture: 0.45,
			WaterloggingDuration: 3,
			VPDThreshold:         2.0,
			VPDDuration:          3,
			WindStressSpeed:      12,
			WindDuration:         1,
			RainMinMM:            1.0,
		},
		FeatureImportance: FeatureImportance{
			WeightVegetative:   1.0,
			WeightReproductive: 1.5,
			WeightMaturation:   0.8,
		},
		RollingWindows: RollingWindows{Short: 7, Medium: 14, Long: 30, Critical: 10},
		CropCharacteristics: CropCharacteristics{
			FrostSensitive:        false,
			HeatTolerant:          false,
			WaterloggingSensitive: false,
			MinSeasonLength:       60,
			MaxSeasonLength:       240,
		},
		Interactions: Interactions{
			HeatDroughtMultiplier:   1.5,
			WindPrecipitationFactor: 1.2,
		},
		DataHandling: DataHandling{
			MaxMissingDays:     7,
			InterpolateMissing: true,
			OutlierDetection:   true,
			OutlierThreshold:   3.0,
		},
	}
}
