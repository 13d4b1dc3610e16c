// Package static derives record-level, year-invariant features.
package static

import (
	"math"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
)

// Elevation zone buckets (meters above sea level).
const (
	ZoneLowland  = 0 // < 500
	ZoneMidland  = 1 // 500-1500
	ZoneHighland = 2 // 1500-2500
	ZoneAlpine   = 3 // >= 2500
)

// Extractor computes static features once per record. It is a pure
// function of static context, identifiers and resolved configuration;
// weather data never enters here.
type Extractor struct {
	cfg *config.ResolvedConfig
}

// NewExtractor creates an extractor over a resolved config.
func NewExtractor(cfg *config.ResolvedConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract derives the static feature group. Elevation features are
// emitted only when the record carries an elevation.
func (e *Extractor) Extract(ids model.RecordIdentifiers, sc *model.StaticContext) model.FeatureVector {
	fv := model.FeatureVector{
		"planting_month":     float64(ids.PlantingMonth),
		"season_length_days": float64(ids.DurationDays),
	}

	crop := e.cfg.CropCharacteristics
	typical := float64(crop.MinSeasonLength+crop.MaxSeasonLength) / 2
	if typical > 0 {
		fv["season_length_ratio"] = float64(ids.DurationDays) / typical
	}

	if sc == nil {
		return fv
	}
	if sc.ElevationM != nil {
		elev := *sc.ElevationM
		zone := elevationZone(elev)
		fv["elevation_m"] = elev
		fv["elevation_zone"] = float64(zone)
		fv["elevation_risk"] = e.elevationRisk(zone)
	}
	for name, v := range sc.SoilProperties {
		fv["soil_"+name] = v
	}
	return fv
}

func elevationZone(elev float64) int {
	switch {
	case elev < 500:
		return ZoneLowland
	case elev < 1500:
		return ZoneMidland
	case elev < 2500:
		return ZoneHighland
	default:
		return ZoneAlpine
	}
}

// elevationRisk blends the altitude bucket with crop traits: frost-prone
// crops risk more at altitude, non-heat-tolerant crops risk more in the
// lowlands.
func (e *Extractor) elevationRisk(zone int) float64 {
	risk := float64(zone) / 3
	crop := e.cfg.CropCharacteristics
	if crop.FrostSensitive && zone >= ZoneHighland {
		risk += 0.25
	}
	if !crop.HeatTolerant && zone == ZoneLowland {
		risk += 0.15
	}
	return math.Min(1, math.Max(0, risk))
}
