package stress

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
	"github.com/fieldsense/cropfeatures/internal/phenology"
)

// benignSeason builds n days with no stress condition active.
func benignSeason(n int) *model.SeasonSeries {
	start := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	days := make([]model.SeasonDay, n)
	for i := range days {
		days[i] = model.SeasonDay{
			Date:         start.AddDate(0, 0, i),
			Day:          i + 1,
			TempMax:      25,
			TempMin:      15,
			TempMean:     20,
			HumidityMean: 60,
			WindMean:     4,
			WindMax:      6,
			SoilMoisture: 0.30,
			VPD:          1.0,
			Observed:     true,
		}
	}
	return &model.SeasonSeries{Days: days}
}

func detectorFixture(t *testing.T) (*Detector, *config.ResolvedConfig, phenology.Partition) {
	t.Helper()
	cfg := config.SystemDefault()
	part := phenology.NewPartitioner(&cfg).Partition(100)
	return NewDetector(&cfg), &cfg, part
}

func TestHeatEvent_DurationGate(t *testing.T) {
	det, cfg, part := detectorFixture(t)
	require.Equal(t, 3, cfg.StressThresholds.HeatStressDuration)

	t.Run("run_at_duration_counts_once", func(t *testing.T) {
		season := benignSeason(100)
		for i := 10; i < 13; i++ { // exactly 3 consecutive days
			season.Days[i].TempMax = 34
		}
		sum := det.Detect(season, part)
		heat := sum.Categories[CategoryHeat]
		assert.Equal(t, 1, heat.EventCount)
		assert.Equal(t, 3, heat.StressDays)
		require.Len(t, heat.Events, 1)
		assert.Equal(t, 11, heat.Events[0].StartDay)
		assert.Equal(t, 3, heat.Events[0].DurationDays)
	})

	t.Run("run_one_day_short_yields_nothing", func(t *testing.T) {
		season := benignSeason(100)
		for i := 10; i < 12; i++ {
			season.Days[i].TempMax = 34
		}
		sum := det.Detect(season, part)
		heat := sum.Categories[CategoryHeat]
		assert.Equal(t, 0, heat.EventCount)
		assert.Equal(t, 0, heat.StressDays)
		assert.Equal(t, 0.0, heat.MaxSeverity)
	})
}

func TestHeatEvent_FourDayRun(t *testing.T) {
	// heat_stress_temp 32, duration 3, four consecutive days at 33:
	// exactly one event of duration 4 with peak exceedance 1.
	det, _, part := detectorFixture(t)
	season := benignSeason(100)
	for i := 20; i < 24; i++ {
		season.Days[i].TempMax = 33
	}

	sum := det.Detect(season, part)
	heat := sum.Categories[CategoryHeat]
	require.Equal(t, 1, heat.EventCount)
	assert.Equal(t, 4, heat.Events[0].DurationDays)
	assert.InDelta(t, 1.0, heat.Events[0].PeakSeverity, 1e-9)
	assert.InDelta(t, 1.0, heat.MaxSeverity, 1e-9)
}

func TestColdEvent_BelowThreshold(t *testing.T) {
	det, _, part := detectorFixture(t)
	season := benignSeason(100)
	season.Days[5].TempMin = 1
	season.Days[6].TempMin = -2

	sum := det.Detect(season, part)
	cold := sum.Categories[CategoryCold]
	require.Equal(t, 1, cold.EventCount)
	assert.Equal(t, 2, cold.StressDays)
	assert.InDelta(t, 7.0, cold.MaxSeverity, 1e-9) // 5 - (-2)
}

func TestMissingDaysBreakRuns(t *testing.T) {
	det, _, part := detectorFixture(t)
	season := benignSeason(100)
	for i := 10; i < 15; i++ {
		season.Days[i].TempMax = 34
	}
	// An unusable reading in the middle splits the run into two short runs.
	season.Days[12].TempMax = math.NaN()

	sum := det.Detect(season, part)
	heat := sum.Categories[CategoryHeat]
	assert.Equal(t, 0, heat.EventCount)
}

func TestCriticalPeriodWeighting(t *testing.T) {
	det, cfg, part := detectorFixture(t)

	// Same 3-day event, once outside and once inside the critical period
	// (days 40-70 on a 100-day season).
	outside := benignSeason(100)
	for i := 5; i < 8; i++ {
		outside.Days[i].TempMax = 35
	}
	inside := benignSeason(100)
	for i := 49; i < 52; i++ {
		inside.Days[i].TempMax = 35
	}

	outsideSum := det.Detect(outside, part).Categories[CategoryHeat]
	insideSum := det.Detect(inside, part).Categories[CategoryHeat]

	assert.False(t, outsideSum.Events[0].WithinCriticalPeriod)
	assert.True(t, insideSum.Events[0].WithinCriticalPeriod)

	// Outside: establishment weight 1.0. Inside: reproductive weight.
	ratio := insideSum.WeightedStressDays / outsideSum.WeightedStressDays
	assert.InDelta(t, cfg.FeatureImportance.WeightReproductive, ratio, 1e-9)

	assert.InDelta(t, 3.0, insideSum.CriticalMeanSeverity, 1e-9)
	assert.Equal(t, 0.0, outsideSum.CriticalMeanSeverity)
}

func TestHeatDroughtInteraction(t *testing.T) {
	det, cfg, part := detectorFixture(t)
	season := benignSeason(100)
	// Five days of simultaneous heat and drought, enough for both gates.
	for i := 10; i < 15; i++ {
		season.Days[i].TempMax = 34
		season.Days[i].SoilMoisture = 0.10
	}

	sum := det.Detect(season, part)
	assert.Equal(t, 5, sum.HeatDroughtDays)
	// Per day: (2 + 0.05) * multiplier.
	expected := 5 * (2.0 + 0.05) * cfg.Interactions.HeatDroughtMultiplier
	assert.InDelta(t, expected, sum.HeatDroughtSeverity, 1e-9)

	// The heat category's weighted days also carry the multiplier:
	// 5 days * severity 2 * stage weight 1.0 * 1.5.
	heat := sum.Categories[CategoryHeat]
	assert.InDelta(t, 5*2.0*cfg.Interactions.HeatDroughtMultiplier, heat.WeightedStressDays, 1e-9)
}

func TestWindRainInteraction(t *testing.T) {
	det, cfg, part := detectorFixture(t)
	season := benignSeason(100)
	season.Days[30].WindMax = 20
	season.Days[30].Rain = 5
	season.Days[35].WindMax = 20 // windy but dry

	sum := det.Detect(season, part)
	assert.Equal(t, 1, sum.WindRainDays)
	assert.InDelta(t, 8.0*cfg.Interactions.WindPrecipitationFactor, sum.WindRainSeverity, 1e-9)

	// Wind duration default is 1, so each isolated day is its own event.
	wind := sum.Categories[CategoryWind]
	assert.Equal(t, 2, wind.EventCount)
}

func TestFeatures_AllCategoriesPresent(t *testing.T) {
	det, _, part := detectorFixture(t)
	fv := det.Detect(benignSeason(100), part).Features()

	for _, cat := range []string{"heat", "cold", "drought", "waterlogging", "vpd", "wind"} {
		assert.Contains(t, fv, cat+"_event_count")
		assert.Contains(t, fv, cat+"_stress_days")
		assert.Contains(t, fv, cat+"_weighted_stress_days")
		assert.Contains(t, fv, cat+"_max_severity")
		assert.Contains(t, fv, cat+"_critical_mean_severity")
		assert.Equal(t, 0.0, fv[cat+"_event_count"])
	}
	assert.Contains(t, fv, "heat_drought_days")
	assert.Contains(t, fv, "wind_rain_severity")
}
