// Package rolling computes sliding-window statistics over a season and
// locates the worst (most stressed) window per window size.
package rolling

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
)

// WindowStats is one window position's statistic set for one variable.
type WindowStats struct {
	Start int // 0-based position
	Mean  float64
	Max   float64
	Min   float64
	Std   float64
}

// Analyzer slides configured windows across the season.
type Analyzer struct {
	windows    config.RollingWindows
	thresholds config.StressThresholds
}

// NewAnalyzer creates an analyzer from resolved configuration.
func NewAnalyzer(cfg *config.ResolvedConfig) *Analyzer {
	return &Analyzer{
		windows:    cfg.RollingWindows,
		thresholds: cfg.StressThresholds,
	}
}

// Analyze emits the rolling feature group. A series of length n produces
// max(0, n-w+1) positions for window size w; windows longer than the
// season emit nothing for that size.
func (a *Analyzer) Analyze(season *model.SeasonSeries) model.FeatureVector {
	fv := model.FeatureVector{}
	n := season.Length()
	for _, w := range a.windows.Sizes() {
		if n < w {
			continue
		}
		a.analyzeWindow(season, w, fv)
	}
	return fv
}

// Positions returns the number of window positions a series of length n
// yields for window size w: max(0, n-w+1).
func Positions(n, w int) int {
	if n < w {
		return 0
	}
	return n - w + 1
}

func (a *Analyzer) analyzeWindow(season *model.SeasonSeries, w int, fv model.FeatureVector) {
	n := season.Length()
	positions := Positions(n, w)

	worstPos := 0
	worstScore := math.Inf(-1)
	for p := 0; p < positions; p++ {
		score := a.stressScore(season.Days[p : p+w])
		// Rounded comparison keeps float ties deterministic; earliest
		// start wins on a tie.
		if roundScore(score) > roundScore(worstScore) {
			worstScore = score
			worstPos = p
		}
	}

	window := season.Days[worstPos : worstPos+w]
	for _, v := range model.TrackedVariables() {
		ws, ok := windowStats(window, v.Get)
		if !ok {
			continue
		}
		prefix := fmt.Sprintf("%s_%dd_worst", v.Name, w)
		fv[prefix+"_mean"] = ws.Mean
		fv[prefix+"_max"] = ws.Max
		fv[prefix+"_min"] = ws.Min
		fv[prefix+"_std"] = ws.Std
	}
	fv[fmt.Sprintf("worst_window_%dd_score", w)] = worstScore
	fv[fmt.Sprintf("worst_window_%dd_timing_pct", w)] = float64(worstPos) / float64(n) * 100
}

// stressScore combines threshold exceedances of the window means. Soil
// moisture deficit is on a 0..1 scale and is boosted to be commensurate
// with degree-based exceedances.
func (a *Analyzer) stressScore(window []model.SeasonDay) float64 {
	heatMean, heatOK := meanOf(window, func(d model.SeasonDay) float64 { return d.TempMax })
	coldMean, coldOK := meanOf(window, func(d model.SeasonDay) float64 { return d.TempMin })
	soilMean, soilOK := meanOf(window, func(d model.SeasonDay) float64 { return d.SoilMoisture })
	vpdMean, vpdOK := meanOf(window, func(d model.SeasonDay) float64 { return d.VPD })

	score := 0.0
	if heatOK {
		score += math.Max(0, heatMean-a.thresholds.HeatStressTemp)
	}
	if coldOK {
		score += math.Max(0, a.thresholds.ColdStressTemp-coldMean)
	}
	if soilOK {
		score += 10 * math.Max(0, a.thresholds.DroughtSoilMoisture-soilMean)
	}
	if vpdOK {
		score += math.Max(0, vpdMean-a.thresholds.VPDThreshold)
	}
	return score
}

// windowStats computes the statistic set over the present values of one
// window. ok is false when the window holds no usable values.
func windowStats(window []model.SeasonDay, get func(model.SeasonDay) float64) (WindowStats, bool) {
	values := presentValues(window, get)
	if len(values) == 0 {
		return WindowStats{}, false
	}
	mean, _ := stats.Mean(values)
	maxV, _ := stats.Max(values)
	minV, _ := stats.Min(values)
	std, _ := stats.StandardDeviation(values)
	return WindowStats{Mean: mean, Max: maxV, Min: minV, Std: std}, true
}

func meanOf(window []model.SeasonDay, get func(model.SeasonDay) float64) (float64, bool) {
	values := presentValues(window, get)
	if len(values) == 0 {
		return 0, false
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0, false
	}
	return mean, true
}

func presentValues(window []model.SeasonDay, get func(model.SeasonDay) float64) []float64 {
	values := make([]float64, 0, len(window))
	for _, d := range window {
		if v := get(d); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	return values
}

func roundScore(s float64) float64 {
	if math.IsInf(s, -1) {
		return s
	}
	return math.Round(s*1e9) / 1e9
}
