package thermal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
	"github.com/fieldsense/cropfeatures/internal/phenology"
)

func makeSeason(n int, tempMean, tempMax, tempMin float64) *model.SeasonSeries {
	start := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	days := make([]model.SeasonDay, n)
	for i := range days {
		days[i] = model.SeasonDay{
			Date:     start.AddDate(0, 0, i),
			Day:      i + 1,
			TempMean: tempMean,
			TempMax:  tempMax,
			TempMin:  tempMin,
			Observed: true,
		}
	}
	return &model.SeasonSeries{Days: days}
}

func TestDailyGDD_Simple(t *testing.T) {
	calc := NewCalculator(config.ThermalConfig{
		BaseTemperature: 10, MaxTemperature: 35, GDDMethod: "simple", UpperThreshold: 30,
	})

	t.Run("below_base_is_zero", func(t *testing.T) {
		day := model.SeasonDay{TempMean: 10, Observed: true}
		assert.Equal(t, 0.0, calc.DailyGDD(day))
		day.TempMean = 4
		assert.Equal(t, 0.0, calc.DailyGDD(day))
	})

	t.Run("above_base", func(t *testing.T) {
		day := model.SeasonDay{TempMean: 23.5, Observed: true}
		assert.InDelta(t, 13.5, calc.DailyGDD(day), 1e-9)
	})
}

func TestDailyGDD_Modified(t *testing.T) {
	calc := NewCalculator(config.ThermalConfig{
		BaseTemperature: 10, MaxTemperature: 35, GDDMethod: "modified", UpperThreshold: 30,
	})

	// Mean above the upper threshold is clamped before subtracting base.
	day := model.SeasonDay{TempMean: 33, Observed: true}
	assert.InDelta(t, 20.0, calc.DailyGDD(day), 1e-9)
}

func TestDailyGDD_Triangular(t *testing.T) {
	calc := NewCalculator(config.ThermalConfig{
		BaseTemperature: 10, MaxTemperature: 30, GDDMethod: "triangular", UpperThreshold: 30,
	})

	// Max clamps to 30, min clamps up to 10: (30+10)/2 - 10 = 10.
	day := model.SeasonDay{TempMean: 20, TempMax: 34, TempMin: 6, Observed: true}
	assert.InDelta(t, 10.0, calc.DailyGDD(day), 1e-9)
}

func TestDailyGDD_GrowthStopsAboveMax(t *testing.T) {
	for _, method := range []string{"simple", "modified", "triangular"} {
		calc := NewCalculator(config.ThermalConfig{
			BaseTemperature: 10, MaxTemperature: 35, GDDMethod: method, UpperThreshold: 30,
		})
		day := model.SeasonDay{TempMean: 36, TempMax: 40, TempMin: 30, Observed: true}
		assert.Equal(t, 0.0, calc.DailyGDD(day), "method %s", method)
	}
}

func TestAccumulate_ConstantSeason(t *testing.T) {
	// 90 days at mean 20 with base 10 accumulates 900 GDD.
	cfg := config.SystemDefault()
	season := makeSeason(90, 20, 26, 14)
	part := phenology.NewPartitioner(&cfg).Partition(90)

	sum := NewCalculator(cfg.Thermal).Accumulate(season, part)
	assert.InDelta(t, 900.0, sum.Total, 1e-9)

	// Stage sums cover the whole season.
	var stageTotal float64
	for _, v := range sum.ByStage {
		stageTotal += v
	}
	assert.InDelta(t, sum.Total, stageTotal, 1e-9)

	fv := sum.Features()
	assert.InDelta(t, 900.0, fv["gdd_total"], 1e-9)
	assert.InDelta(t, 10.0, fv["gdd_daily_mean"], 1e-9)
	require.Contains(t, fv, "gdd_vegetative")
	require.Contains(t, fv, "gdd_critical_period")
}

func TestAccumulate_CriticalPeriodShare(t *testing.T) {
	cfg := config.SystemDefault()
	season := makeSeason(100, 20, 26, 14)
	part := phenology.NewPartitioner(&cfg).Partition(100)

	sum := NewCalculator(cfg.Thermal).Accumulate(season, part)
	// Days 40-70 inclusive: 31 days at 10 GDD/day.
	assert.InDelta(t, 310.0, sum.CriticalPeriod, 1e-9)
}
