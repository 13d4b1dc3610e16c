package pipeline

import (
	"math"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
	"github.com/fieldsense/cropfeatures/internal/phenology"
	"github.com/fieldsense/cropfeatures/internal/quality"
	"github.com/fieldsense/cropfeatures/internal/rolling"
	"github.com/fieldsense/cropfeatures/internal/stress"
	"github.com/fieldsense/cropfeatures/internal/thermal"
)

// yearState enumerates the per-year processing states. Skipped is terminal
// and reachable only from Validating and LabelMatching.
type yearState int

const (
	stateValidating yearState = iota
	stateLabelMatching
	stateStagePartitioning
	stateFeatureGeneration
	stateEmitted
	stateSkipped
)

// Outcome is the per-year result: an emitted feature/label pair or a skip
// with its reason. Year-level failures never surface as errors.
type Outcome struct {
	Emitted bool
	Result  model.YearResult
	Reason  model.SkipReason
}

// YearProcessor runs one (record, year) through the processing states.
// It holds only read-only resolved state, so one processor serves all of
// a record's years concurrently.
type YearProcessor struct {
	cfg          *config.ResolvedConfig
	static       model.FeatureVector
	durationDays int

	validator   *quality.Validator
	partitioner *phenology.Partitioner
	thermal     *thermal.Calculator
	stress      *stress.Detector
	rolling     *rolling.Analyzer
}

// NewYearProcessor builds a processor for one record's resolved config and
// static feature group.
func NewYearProcessor(cfg *config.ResolvedConfig, static model.FeatureVector, durationDays int) *YearProcessor {
	return &YearProcessor{
		cfg:          cfg,
		static:       static,
		durationDays: durationDays,
		validator:    quality.NewValidator(cfg),
		partitioner:  phenology.NewPartitioner(cfg),
		thermal:      thermal.NewCalculator(cfg.Thermal),
		stress:       stress.NewDetector(cfg),
		rolling:      rolling.NewAnalyzer(cfg),
	}
}

// Process advances one year through Validating, LabelMatching,
// StagePartitioning and FeatureGeneration until Emitted or Skipped.
func (p *YearProcessor) Process(year int, obs []model.DailyWeatherObservation, scores map[int]float64) Outcome {
	var (
		season *model.SeasonSeries
		part   phenology.Partition
		label  float64
	)

	st := stateValidating
	for {
		switch st {
		case stateValidating:
			res := p.validator.Prepare(obs)
			if res.Skip != "" {
				return Outcome{Reason: res.Skip}
			}
			season = res.Season
			st = stateLabelMatching

		case stateLabelMatching:
			v, ok := scores[year]
			if !ok {
				return Outcome{Reason: model.SkipNoLabel}
			}
			label = v
			st = stateStagePartitioning

		case stateStagePartitioning:
			part = p.partitioner.Partition(p.durationDays)
			st = stateFeatureGeneration

		case stateFeatureGeneration:
			features := p.generate(season, part)
			return Outcome{
				Emitted: true,
				Result: model.YearResult{
					Year:       year,
					Features:   features,
					Label:      label,
					ConfigUsed: p.cfg.Summary(),
				},
			}
		}
	}
}

// generate composes all temporal feature groups over the static group.
func (p *YearProcessor) generate(season *model.SeasonSeries, part phenology.Partition) model.FeatureVector {
	features := p.static.Clone()
	features.Merge(seasonAggregates(season))
	features.Merge(p.thermal.Accumulate(season, part).Features())
	features.Merge(p.stress.Detect(season, part).Features())
	features.Merge(p.rolling.Analyze(season))
	features["missing_days"] = float64(season.MissingDays)
	features["interpolated_days"] = float64(season.InterpolatedDays)
	features["outliers_replaced"] = float64(season.OutliersReplaced)
	return features
}

// seasonAggregates computes whole-season sums and means in chronological
// order over present values.
func seasonAggregates(season *model.SeasonSeries) model.FeatureVector {
	var precipTotal, rainTotal float64
	var tempSum, soilSum, vpdSum float64
	var tempN, soilN, vpdN int

	for _, d := range season.Days {
		if !math.IsNaN(d.Precipitation) {
			precipTotal += d.Precipitation
		}
		if !math.IsNaN(d.Rain) {
			rainTotal += d.Rain
		}
		if !math.IsNaN(d.TempMean) {
			tempSum += d.TempMean
			tempN++
		}
		if !math.IsNaN(d.SoilMoisture) {
			soilSum += d.SoilMoisture
			soilN++
		}
		if !math.IsNaN(d.VPD) {
			vpdSum += d.VPD
			vpdN++
		}
	}

	fv := model.FeatureVector{
		"precipitation_total": precipTotal,
		"rain_total":          rainTotal,
	}
	if tempN > 0 {
		fv["temp_mean_avg"] = tempSum / float64(tempN)
	}
	if soilN > 0 {
		fv["soil_moisture_avg"] = soilSum / float64(soilN)
	}
	if vpdN > 0 {
		fv["vpd_mean"] = vpdSum / float64(vpdN)
	}
	return fv
}
