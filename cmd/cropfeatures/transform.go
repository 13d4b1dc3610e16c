package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/featurestore"
	"github.com/fieldsense/cropfeatures/internal/interfaces/ops"
	"github.com/fieldsense/cropfeatures/internal/metrics"
	"github.com/fieldsense/cropfeatures/internal/model"
	"github.com/fieldsense/cropfeatures/internal/persistence/postgres"
	"github.com/fieldsense/cropfeatures/internal/pipeline"
)

var (
	transformInput       string
	transformOut         string
	transformCropConfig  string
	transformWorkers     int
	transformPostgresDSN string
	transformRedisAddr   string
	transformRedisDB     int
	transformRedisTTL    time.Duration
	transformOpsAddr     string
)

// transformCmd runs the feature engineering pipeline over a batch file.
var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform enriched crop records into feature vectors",
	Long: `Transform reads a JSON array of enriched crop records, runs the
feature engineering pipeline and writes one transformed record per line
to the output file (JSONL).

Optional sinks persist the output to PostgreSQL and publish per-year
feature vectors to Redis for downstream prediction serving.

Example usage:
  cropfeatures transform --input records.json --out features.jsonl
  cropfeatures transform --input records.json --crop-defaults crops.yaml --workers 8
  cropfeatures transform --input records.json --postgres-dsn "$DSN" --redis-addr localhost:6379`,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringVar(&transformInput, "input", "", "Input JSON file with enriched crop records (required)")
	transformCmd.Flags().StringVar(&transformOut, "out", "features.jsonl", "Output JSONL file")
	transformCmd.Flags().StringVar(&transformCropConfig, "crop-defaults", "", "YAML registry of crop-type default configs")
	transformCmd.Flags().IntVar(&transformWorkers, "workers", 0, "Worker count (0 = CPU count)")
	transformCmd.Flags().StringVar(&transformPostgresDSN, "postgres-dsn", "", "Optional PostgreSQL sink DSN")
	transformCmd.Flags().StringVar(&transformRedisAddr, "redis-addr", "", "Optional Redis feature store address")
	transformCmd.Flags().IntVar(&transformRedisDB, "redis-db", 0, "Redis database number")
	transformCmd.Flags().DurationVar(&transformRedisTTL, "redis-ttl", 30*24*time.Hour, "Feature store entry TTL")
	transformCmd.Flags().StringVar(&transformOpsAddr, "ops-addr", "", "Optional ops server address for /metrics and /healthz")
	_ = transformCmd.MarkFlagRequired("input")
}

func runTransform(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := loadRecords(transformInput)
	if err != nil {
		return err
	}

	registry := config.EmptyRegistry()
	if transformCropConfig != "" {
		registry, err = config.LoadRegistry(transformCropConfig)
		if err != nil {
			return err
		}
		log.Info().Int("crop_types", registry.Len()).Str("path", transformCropConfig).
			Msg("Loaded crop-type default registry")
	}

	reg := metrics.NewRegistry()
	if transformOpsAddr != "" {
		opsServer := ops.NewServer(transformOpsAddr, reg)
		go func() {
			if err := opsServer.Start(); err != nil {
				log.Error().Err(err).Msg("Ops server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = opsServer.Shutdown(shutdownCtx)
		}()
	}

	p := pipeline.New(config.NewResolver(registry),
		pipeline.WithWorkers(transformWorkers),
		pipeline.WithMetrics(reg))

	result, err := p.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	if err := writeJSONL(transformOut, result); err != nil {
		return err
	}

	if transformPostgresDSN != "" {
		if err := persistResult(ctx, result); err != nil {
			return err
		}
	}
	if transformRedisAddr != "" {
		if err := publishResult(ctx, result); err != nil {
			return err
		}
	}

	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "record %d (%s/%s) rejected: %s\n", f.Index, f.LocationKey, f.CropType, f.Message)
	}
	fmt.Printf("Transformed %d records (%d rejected) in %s -> %s\n",
		len(result.Records), len(result.Failures), result.Elapsed.Round(time.Millisecond), transformOut)
	return nil
}

func loadRecords(path string) ([]model.EnrichedCropRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var records []model.EnrichedCropRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return records, nil
}

func writeJSONL(path string, result *pipeline.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, rec := range result.Records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

func persistResult(ctx context.Context, result *pipeline.RunResult) error {
	repo, err := postgres.NewFeaturesRepo(transformPostgresDSN, 10*time.Second)
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, rec := range result.Records {
		if err := repo.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("persist %s: %w", rec.Identifiers.LocationKey, err)
		}
	}
	log.Info().Int("records", len(result.Records)).Msg("Persisted transformed records to PostgreSQL")
	return nil
}

func publishResult(ctx context.Context, result *pipeline.RunResult) error {
	store := featurestore.New(transformRedisAddr, os.Getenv("REDIS_PASSWORD"), transformRedisDB, transformRedisTTL)
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("feature store unreachable: %w", err)
	}
	for _, rec := range result.Records {
		if err := store.PublishRecord(ctx, rec); err != nil {
			return fmt.Errorf("publish %s: %w", rec.Identifiers.LocationKey, err)
		}
	}
	log.Info().Int("records", len(result.Records)).Msg("Published feature vectors to Redis")
	return nil
}
