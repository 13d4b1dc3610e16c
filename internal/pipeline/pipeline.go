// Package pipeline orchestrates feature engineering across records and
// years. All inputs are already materialized in memory; no I/O happens
// here.
package pipeline

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/metrics"
	"github.com/fieldsense/cropfeatures/internal/model"
	"github.com/fieldsense/cropfeatures/internal/static"
)

// RecordFailure reports one record excluded by contract validation.
type RecordFailure struct {
	Index       int    `json:"index"`
	LocationKey string `json:"location_key"`
	CropType    string `json:"crop_type"`
	Err         error  `json:"-"`
	Message     string `json:"error"`
}

// RunResult aggregates one pipeline invocation.
type RunResult struct {
	RunID    string                    `json:"run_id"`
	Records  []model.TransformedRecord `json:"records"`
	Failures []RecordFailure           `json:"failures,omitempty"`
	Elapsed  time.Duration             `json:"-"`
}

// Pipeline is the top-level orchestrator. Safe for concurrent use; all
// shared state is read-only after construction.
type Pipeline struct {
	resolver *config.Resolver
	workers  int
	metrics  *metrics.Registry
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds parallelism across records and across years within a
// record. Defaults to the CPU count.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMetrics attaches a metrics registry; nil disables instrumentation.
func WithMetrics(reg *metrics.Registry) Option {
	return func(p *Pipeline) { p.metrics = reg }
}

// New creates a pipeline over an immutable crop-type default registry.
func New(resolver *config.Resolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: resolver,
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run transforms every record. Record-level failures are collected, never
// silently dropped; year-level problems are downgraded to per-year skip
// diagnostics inside each TransformedRecord. Output order matches input
// order regardless of scheduling, and all cumulative sums are computed
// chronologically inside each year, so results are reproducible
// run-to-run.
func (p *Pipeline) Run(ctx context.Context, records []model.EnrichedCropRecord) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{RunID: uuid.NewString()}

	log.Info().Str("run_id", result.RunID).Int("records", len(records)).
		Int("workers", p.workers).Msg("Starting feature engineering run")

	out := make([]*model.TransformedRecord, len(records))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range records {
		i := i
		g.Go(func() error {
			rec, err := p.processRecord(gctx, &records[i])
			if err != nil {
				mu.Lock()
				result.Failures = append(result.Failures, RecordFailure{
					Index:       i,
					LocationKey: records[i].Identifiers.LocationKey,
					CropType:    records[i].Identifiers.CropType,
					Err:         err,
					Message:     err.Error(),
				})
				mu.Unlock()
				if p.metrics != nil {
					p.metrics.RecordsFailed.Inc()
				}
				log.Warn().Err(err).Str("location_key", records[i].Identifiers.LocationKey).
					Msg("Record rejected")
				return nil
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, rec := range out {
		if rec != nil {
			result.Records = append(result.Records, *rec)
		}
	}
	sort.Slice(result.Failures, func(a, b int) bool {
		return result.Failures[a].Index < result.Failures[b].Index
	})

	result.Elapsed = time.Since(start)
	log.Info().Str("run_id", result.RunID).Int("transformed", len(result.Records)).
		Int("failed", len(result.Failures)).Dur("elapsed", result.Elapsed).
		Msg("Feature engineering run complete")
	return result, nil
}

// processRecord resolves config and static features once, then fans out
// across the record's years.
func (p *Pipeline) processRecord(ctx context.Context, rec *model.EnrichedCropRecord) (*model.TransformedRecord, error) {
	recordStart := time.Now()
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	cfg, err := p.resolver.Resolve(rec.Identifiers.CropType, rec.Configuration)
	if err != nil {
		return nil, err
	}

	staticFeatures := static.NewExtractor(cfg).Extract(rec.Identifiers, rec.StaticContext)
	processor := NewYearProcessor(cfg, staticFeatures, rec.Identifiers.DurationDays)

	years := make([]int, 0, len(rec.WeatherTimeSeries))
	for year := range rec.WeatherTimeSeries {
		years = append(years, year)
	}
	sort.Ints(years)

	outcomes := make([]Outcome, len(years))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, year := range years {
		i, year := i, year
		g.Go(func() error {
			outcomes[i] = processor.Process(year, rec.WeatherTimeSeries[year], rec.PerformanceScores)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &model.TransformedRecord{Identifiers: rec.Identifiers}
	for i, year := range years {
		oc := outcomes[i]
		if oc.Emitted {
			result.Years = append(result.Years, oc.Result)
			if p.metrics != nil {
				p.metrics.YearsEmitted.Inc()
			}
			continue
		}
		result.Skipped = append(result.Skipped, model.YearSkip{Year: year, Reason: oc.Reason})
		if p.metrics != nil {
			p.metrics.YearsSkipped.WithLabelValues(string(oc.Reason)).Inc()
		}
		log.Debug().Str("location_key", rec.Identifiers.LocationKey).Int("year", year).
			Str("reason", string(oc.Reason)).Msg("Year skipped")
	}

	if p.metrics != nil {
		p.metrics.RecordsProcessed.Inc()
		p.metrics.RecordDuration.Observe(time.Since(recordStart).Seconds())
	}
	return result, nil
}
