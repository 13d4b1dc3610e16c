package static

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/cropfeatures/internal/config"
	"github.com/fieldsense/cropfeatures/internal/model"
)

func ptr(v float64) *float64 { return &v }

func baseIdentifiers() model.RecordIdentifiers {
	return model.RecordIdentifiers{
		CropType:      "maize",
		Variety:       "H614",
		LocationKey:   "loc-01",
		PlantingMonth: 3,
		DurationDays:  120,
	}
}

func TestExtract_CoreFeatures(t *testing.T) {
	cfg := config.SystemDefault()
	ext := NewExtractor(&cfg)

	fv := ext.Extract(baseIdentifiers(), &model.StaticContext{
		ElevationM:     ptr(1800),
		SoilProperties: map[string]float64{"ph": 6.2, "clay_pct": 35},
	})

	assert.Equal(t, 3.0, fv["planting_month"])
	assert.Equal(t, 120.0, fv["season_length_days"])
	// Typical season is the midpoint of the crop bounds (60..240 -> 150).
	assert.InDelta(t, 120.0/150.0, fv["season_length_ratio"], 1e-9)
	assert.Equal(t, 1800.0, fv["elevation_m"])
	assert.Equal(t, float64(ZoneHighland), fv["elevation_zone"])
	assert.Equal(t, 6.2, fv["soil_ph"])
	assert.Equal(t, 35.0, fv["soil_clay_pct"])
}

func TestExtract_ElevationZones(t *testing.T) {
	cases := []struct {
		elev float64
		zone int
	}{
		{120, ZoneLowland},
		{499, ZoneLowland},
		{500, ZoneMidland},
		{1499, ZoneMidland},
		{1500, ZoneHighland},
		{2500, ZoneAlpine},
		{3800, ZoneAlpine},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.zone, elevationZone(tc.elev), "elevation %.0f", tc.elev)
	}
}

func TestExtract_ElevationRisk(t *testing.T) {
	t.Run("frost_sensitive_highland", func(t *testing.T) {
		cfg := config.SystemDefault()
		cfg.CropCharacteristics.FrostSensitive = true
		ext := NewExtractor(&cfg)
		fv := ext.Extract(baseIdentifiers(), &model.StaticContext{ElevationM: ptr(2000)})
		assert.InDelta(t, 2.0/3+0.25, fv["elevation_risk"], 1e-9)
	})

	t.Run("lowland_without_heat_tolerance", func(t *testing.T) {
		cfg := config.SystemDefault()
		ext := NewExtractor(&cfg)
		fv := ext.Extract(baseIdentifiers(), &model.StaticContext{ElevationM: ptr(100)})
		assert.InDelta(t, 0.15, fv["elevation_risk"], 1e-9)
	})

	t.Run("risk_capped_at_one", func(t *testing.T) {
		cfg := config.SystemDefault()
		cfg.CropCharacteristics.FrostSensitive = true
		ext := NewExtractor(&cfg)
		fv := ext.Extract(baseIdentifiers(), &model.StaticContext{ElevationM: ptr(3000)})
		assert.Equal(t, 1.0, fv["elevation_risk"])
	})
}

func TestExtract_WithoutStaticContext(t *testing.T) {
	cfg := config.SystemDefault()
	ext := NewExtractor(&cfg)

	fv := ext.Extract(baseIdentifiers(), nil)
	require.NotContains(t, fv, "elevation_m")
	require.NotContains(t, fv, "elevation_zone")
	assert.Contains(t, fv, "planting_month")
	assert.Contains(t, fv, "season_length_ratio")
}
