// Package featurestore publishes per-year feature vectors to Redis for
// downstream prediction serving.
package featurestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldsense/cropfeatures/internal/model"
)

const defaultKeyPrefix = "features"

// Store writes feature vectors keyed by series and year, each entry
// carrying a TTL so stale vectors age out between runs.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects a feature store against the given Redis address.
func New(addr, password string, db int, ttl time.Duration) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Store{client: client, prefix: defaultKeyPrefix, ttl: ttl}
}

// entry is the stored JSON document for one year.
type entry struct {
	Year       int                 `json:"year"`
	Label      float64             `json:"label"`
	Features   model.FeatureVector `json:"features"`
	ConfigUsed model.ConfigSummary `json:"config_used"`
	StoredAt   time.Time           `json:"stored_at"`
}

// Key builds the storage key for one series year.
func (s *Store) Key(ids model.RecordIdentifiers, year int) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", s.prefix, ids.LocationKey, ids.CropType, ids.Variety, year)
}

// PublishRecord writes every emitted year of a transformed record.
func (s *Store) PublishRecord(ctx context.Context, rec model.TransformedRecord) error {
	pipe := s.client.Pipeline()
	now := time.Now().UTC()
	for _, yr := range rec.Years {
		doc, err := json.Marshal(entry{
			Year:       yr.Year,
			Label:      yr.Label,
			Features:   yr.Features,
			ConfigUsed: yr.ConfigUsed,
			StoredAt:   now,
		})
		if err != nil {
			return fmt.Errorf("marshal feature entry: %w", err)
		}
		pipe.Set(ctx, s.Key(rec.Identifiers, yr.Year), doc, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish features: %w", err)
	}
	return nil
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
