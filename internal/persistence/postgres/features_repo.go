// Package postgres implements the output sink contracts on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fieldsense/cropfeatures/internal/model"
	"github.com/fieldsense/cropfeatures/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS crop_features (
	location_key TEXT        NOT NULL,
	crop_type    TEXT        NOT NULL,
	variety      TEXT        NOT NULL,
	year         INT         NOT NULL,
	label        DOUBLE PRECISION NOT NULL,
	features     JSONB       NOT NULL,
	config_used  JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (location_key, crop_type, variety, year)
)`

// featuresRepo implements TransformedRecordRepo on PostgreSQL.
type featuresRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewFeaturesRepo connects to PostgreSQL and returns the repository.
func NewFeaturesRepo(dsn string, timeout time.Duration) (persistence.TransformedRecordRepo, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &featuresRepo{db: db, timeout: timeout}, nil
}

func (r *featuresRepo) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure crop_features schema: %w", err)
	}
	return nil
}

func (r *featuresRepo) Upsert(ctx context.Context, rec model.TransformedRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO crop_features
		(location_key, crop_type, variety, year, label, features, config_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (location_key, crop_type, variety, year) DO UPDATE SET
			label = EXCLUDED.label,
			features = EXCLUDED.features,
			config_used = EXCLUDED.config_used`

	ids := rec.Identifiers
	for _, yr := range rec.Years {
		features, err := json.Marshal(yr.Features)
		if err != nil {
			return fmt.Errorf("marshal features: %w", err)
		}
		configUsed, err := json.Marshal(yr.ConfigUsed)
		if err != nil {
			return fmt.Errorf("marshal config snapshot: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			ids.LocationKey, ids.CropType, ids.Variety, yr.Year, yr.Label, features, configUsed); err != nil {
			return fmt.Errorf("upsert year %d: %w", yr.Year, err)
		}
	}
	return tx.Commit()
}

func (r *featuresRepo) Years(ctx context.Context, locationKey, cropType, variety string) ([]persistence.FeatureRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT location_key, crop_type, variety, year, label, features, config_used
		FROM crop_features
		WHERE location_key = $1 AND crop_type = $2 AND variety = $3
		ORDER BY year ASC`

	var rows []persistence.FeatureRow
	if err := r.db.SelectContext(ctx, &rows, query, locationKey, cropType, variety); err != nil {
		return nil, fmt.Errorf("query years: %w", err)
	}
	return rows, nil
}

func (r *featuresRepo) Close() error {
	return r.db.Close()
}
