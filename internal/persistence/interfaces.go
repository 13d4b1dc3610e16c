// Package persistence defines the optional output sink contracts. The
// pipeline itself never blocks on I/O; sinks run after a record is fully
// transformed.
package persistence

import (
	"context"

	"github.com/fieldsense/cropfeatures/internal/model"
)

// FeatureRow is one persisted year of one transformed record.
type FeatureRow struct {
	LocationKey string  `json:"location_key" db:"location_key"`
	CropType    string  `json:"crop_type" db:"crop_type"`
	Variety     string  `json:"variety" db:"variety"`
	Year        int     `json:"year" db:"year"`
	Label       float64 `json:"label" db:"label"`
	Features    []byte  `json:"features" db:"features"`     // JSON feature vector
	ConfigUsed  []byte  `json:"config_used" db:"config_used"` // JSON config snapshot
}

// TransformedRecordRepo stores transformed records for downstream
// training and prediction consumers.
type TransformedRecordRepo interface {
	// EnsureSchema creates the backing table when absent.
	EnsureSchema(ctx context.Context) error

	// Upsert writes every emitted year of the record, replacing prior
	// rows for the same (location_key, crop_type, variety, year).
	Upsert(ctx context.Context, rec model.TransformedRecord) error

	// Years returns the persisted years for one series, ascending.
	Years(ctx context.Context, locationKey, cropType, variety string) ([]FeatureRow, error)

	Close() error
}
