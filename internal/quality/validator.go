// Package quality gates each year on season length, missing-data gaps and
// outliers, and prepares the cleaned season grid every downstream
// calculator consumes.
package quality

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
)

// Validator applies resolved data-handling rules to one year's raw series.
type Validator struct {
	handling config.DataHandling
	crop     config.CropCharacteristics
}

// NewValidator creates a validator from resolved configuration.
func NewValidator(cfg *config.ResolvedConfig) *Validator {
	return &Validator{
		handling: cfg.DataHandling,
		crop:     cfg.CropCharacteristics,
	}
}

// Result is the outcome of preparing one year. Skip is empty when the
// year passed; otherwise Season is nil.
type Result struct {
	Season *model.SeasonSeries
	Skip   model.SkipReason
}

// fieldSeries binds one observation variable to its grid column.
type fieldSeries struct {
	values []float64
	get    func(*model.DailyWeatherObservation) *float64
	set    func(*model.SeasonDay, float64)
}

// Prepare validates one year and builds its season grid. Checks run in
// order: season length bounds, then missing-day gaps, then outliers.
// Skips here are per-year and never affect sibling years.
func (v *Validator) Prepare(obs []model.DailyWeatherObservation) Result {
	if len(obs) == 0 {
		return Result{Skip: model.SkipSeasonLength}
	}

	sorted := append([]model.DailyWeatherObservation(nil), obs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	first := dateOnly(sorted[0].Date)
	last := dateOnly(sorted[len(sorted)-1].Date)
	seasonLen := int(last.Sub(first).Hours()/24) + 1

	if seasonLen < v.crop.MinSeasonLength || seasonLen > v.crop.MaxSeasonLength {
		return Result{Skip: model.SkipSeasonLength}
	}

	byDate := make(map[time.Time]*model.DailyWeatherObservation, len(sorted))
	for i := range sorted {
		o := sorted[i]
		byDate[dateOnly(o.Date)] = &o
	}

	observed := make([]bool, seasonLen)
	missing, longestGap, gap := 0, 0, 0
	for i := 0; i < seasonLen; i++ {
		if _, ok := byDate[first.AddDate(0, 0, i)]; ok {
			observed[i] = true
			gap = 0
			continue
		}
		missing++
		gap++
		if gap > longestGap {
			longestGap = gap
		}
	}
	if longestGap > v.handling.MaxMissingDays {
		return Result{Skip: model.SkipMissingData}
	}

	days := make([]model.SeasonDay, seasonLen)
	for i := range days {
		days[i] = model.SeasonDay{
			Date:     first.AddDate(0, 0, i),
			Day:      i + 1,
			Observed: observed[i],
		}
	}

	fields := []fieldSeries{
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.TemperatureMax },
			set: func(d *model.SeasonDay, x float64) { d.TempMax = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.TemperatureMin },
			set: func(d *model.SeasonDay, x float64) { d.TempMin = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.TemperatureMean },
			set: func(d *model.SeasonDay, x float64) { d.TempMean = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.HumidityMax },
			set: func(d *model.SeasonDay, x float64) { d.HumidityMax = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.HumidityMin },
			set: func(d *model.SeasonDay, x float64) { d.HumidityMin = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.HumidityMean },
			set: func(d *model.SeasonDay, x float64) { d.HumidityMean = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.WindMean },
			set: func(d *model.SeasonDay, x float64) { d.WindMean = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.WindMax },
			set: func(d *model.SeasonDay, x float64) { d.WindMax = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.PrecipitationSum },
			set: func(d *model.SeasonDay, x float64) { d.Precipitation = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.RainSum },
			set: func(d *model.SeasonDay, x float64) { d.Rain = x }},
		{get: func(o *model.DailyWeatherObservation) *float64 { return o.SoilMoisture },
			set: func(d *model.SeasonDay, x float64) { d.SoilMoisture = x }},
	}

	outliers := 0
	for fi := range fields {
		f := &fields[fi]
		f.values = make([]float64, seasonLen)
		for i := 0; i < seasonLen; i++ {
			f.values[i] = math.NaN()
			if o, ok := byDate[first.AddDate(0, 0, i)]; ok {
				if p := f.get(o); p != nil {
					f.values[i] = *p
				}
			}
		}

		var flagged []bool
		if v.handling.OutlierDetection {
			flagged = v.flagOutliers(f.values)
			for i, bad := range flagged {
				if bad {
					f.values[i] = math.NaN()
					outliers++
				}
			}
		}

		v.interpolate(f.values, flagged)
		for i := range days {
			f.set(&days[i], f.values[i])
		}
	}

	interpolated := 0
	for i := range days {
		d := &days[i]
		d.VPD = vaporPressureDeficit(d.TempMean, d.HumidityMean)
		if !d.Observed && d.Valid() {
			interpolated++
		}
	}

	return Result{Season: &model.SeasonSeries{
		Days:             days,
		MissingDays:      missing,
		InterpolatedDays: interpolated,
		OutliersReplaced: outliers,
	}}
}

// flagOutliers marks values more than outlier_threshold standard
// deviations from the seasonal mean.
func (v *Validator) flagOutliers(values []float64) []bool {
	present := make([]float64, 0, len(values))
	for _, x := range values {
		if !math.IsNaN(x) {
			present = append(present, x)
		}
	}
	flagged := make([]bool, len(values))
	if len(present) < 3 {
		return flagged
	}
	mean, _ := stats.Mean(present)
	std, _ := stats.StandardDeviation(present)
	if std == 0 {
		return flagged
	}
	for i, x := range values {
		if !math.IsNaN(x) && math.Abs(x-mean) > v.handling.OutlierThreshold*std {
			flagged[i] = true
		}
	}
	return flagged
}

// interpolate fills NaN values linearly between their nearest present
// neighbors. Missing-day positions are filled only when
// interpolate_missing is enabled; outlier positions are always filled.
// Edge gaps without a neighbor on both sides stay missing.
func (v *Validator) interpolate(values []float64, flagged []bool) {
	fillable := func(i int) bool {
		if flagged != nil && flagged[i] {
			return true
		}
		return v.handling.InterpolateMissing
	}
	n := len(values)
	i := 0
	for i < n {
		if !math.IsNaN(values[i]) {
			i++
			continue
		}
		start := i
		for i < n && math.IsNaN(values[i]) {
			i++
		}
		if start == 0 || i == n {
			continue
		}
		lo, hi := values[start-1], values[i]
		span := float64(i - start + 1)
		for j := start; j < i; j++ {
			if !fillable(j) {
				continue
			}
			frac := float64(j-start+1) / span
			values[j] = lo + (hi-lo)*frac
		}
	}
}

// vaporPressureDeficit derives VPD (kPa) from mean temperature (degC) and
// mean relative humidity (%), via the Tetens saturation vapor pressure.
func vaporPressureDeficit(tempMean, humidityMean float64) float64 {
	if math.IsNaN(tempMean) || math.IsNaN(humidityMean) {
		return math.NaN()
	}
	svp := 0.6108 * math.Exp(17.27*tempMean/(tempMean+237.3))
	return math.Max(0, svp*(1-humidityMean/100))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
