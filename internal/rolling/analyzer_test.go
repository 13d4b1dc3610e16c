package rolling

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
)

func flatSeason(n int) *model.SeasonSeries {
	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	days := make([]model.SeasonDay, n)
	for i := range days {
		days[i] = model.SeasonDay{
			Date:         start.AddDate(0, 0, i),
			Day:          i + 1,
			TempMax:      24,
			TempMin:      14,
			TempMean:     19,
			SoilMoisture: 0.30,
			VPD:          0.8,
			Observed:     true,
		}
	}
	return &model.SeasonSeries{Days: days}
}

func TestPositions(t *testing.T) {
	assert.Equal(t, 84, Positions(90, 7))
	assert.Equal(t, 1, Positions(7, 7))
	assert.Equal(t, 0, Positions(6, 7))
	assert.Equal(t, 0, Positions(0, 30))
}

func TestAnalyze_ShortSeriesOmitsWindow(t *testing.T) {
	cfg := config.SystemDefault()
	cfg.CropCharacteristics.MinSeasonLength = 1
	analyzer := NewAnalyzer(&cfg)

	// 20 days: the 30-day window yields nothing, the others do.
	fv := analyzer.Analyze(flatSeason(20))
	assert.Contains(t, fv, "worst_window_7d_score")
	assert.Contains(t, fv, "worst_window_14d_score")
	assert.NotContains(t, fv, "worst_window_30d_score")
	assert.NotContains(t, fv, "temp_mean_30d_worst_mean")
}

func TestAnalyze_TieBreaksToEarliestWindow(t *testing.T) {
	cfg := config.SystemDefault()
	analyzer := NewAnalyzer(&cfg)

	// Constant series: every position scores identically, so the worst
	// window is the first one.
	fv := analyzer.Analyze(flatSeason(90))
	assert.Equal(t, 0.0, fv["worst_window_7d_timing_pct"])
	assert.Equal(t, 0.0, fv["worst_window_30d_timing_pct"])
}

func TestAnalyze_LocatesHeatStretch(t *testing.T) {
	cfg := config.SystemDefault()
	analyzer := NewAnalyzer(&cfg)

	season := flatSeason(90)
	for i := 60; i < 70; i++ {
		season.Days[i].TempMax = 38
		season.Days[i].TempMean = 30
	}
	fv := analyzer.Analyze(season)

	// The 7-day worst window sits inside the hot stretch.
	timing := fv["worst_window_7d_timing_pct"]
	assert.InDelta(t, float64(60)/90*100, timing, 1.0)
	assert.InDelta(t, 38.0, fv["temp_max_7d_worst_mean"], 1e-9)
	assert.InDelta(t, 38.0, fv["temp_max_7d_worst_max"], 1e-9)
	assert.Greater(t, fv["worst_window_7d_score"], 0.0)
}

func TestAnalyze_StatisticSet(t *testing.T) {
	cfg := config.SystemDefault()
	cfg.RollingWindows = config.RollingWindows{Short: 3}
	analyzer := NewAnalyzer(&cfg)

	season := flatSeason(3)
	season.Days[0].TempMean = 10
	season.Days[1].TempMean = 20
	season.Days[2].TempMean = 30

	// One position only; its stats are over the whole series.
	fv := analyzer.Analyze(season)
	require.Contains(t, fv, "temp_mean_3d_worst_mean")
	assert.InDelta(t, 20.0, fv["temp_mean_3d_worst_mean"], 1e-9)
	assert.InDelta(t, 30.0, fv["temp_mean_3d_worst_max"], 1e-9)
	assert.InDelta(t, 10.0, fv["temp_mean_3d_worst_min"], 1e-9)
	assert.Greater(t, fv["temp_mean_3d_worst_std"], 0.0)
}

func TestAnalyze_DeduplicatesWindowSizes(t *testing.T) {
	cfg := config.SystemDefault()
	cfg.RollingWindows = config.RollingWindows{Short: 7, Medium: 7, Long: 7, Critical: 7}
	analyzer := NewAnalyzer(&cfg)

	fv := analyzer.Analyze(flatSeason(30))
	count := 0
	for name := range fv {
		if name == fmt.Sprintf("worst_window_%dd_score", 7) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
