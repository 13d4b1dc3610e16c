package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "crops.yaml")

	doc := `
maize:
  thermal:
    base_temperature: 8
    gdd_method: modified
  crop_characteristics:
    min_season_length: 80
    max_season_length: 160
wheat:
  stress_thresholds:
    cold_stress_temp: 0
  crop_characteristics:
    frost_sensitive: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	registry, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	maize, ok := registry.Lookup("maize")
	require.True(t, ok)
	require.NotNil(t, maize.Thermal)
	assert.Equal(t, 8.0, *maize.Thermal.BaseTemperature)
	assert.Equal(t, "modified", *maize.Thermal.GDDMethod)
	require.NotNil(t, maize.CropCharacteristics)
	assert.Equal(t, 80, *maize.CropCharacteristics.MinSeasonLength)

	_, ok = registry.Lookup("sorghum")
	assert.False(t, ok)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNewRegistry_CopiesTable(t *testing.T) {
	source := map[string]Fragment{
		"rice": {Thermal: &ThermalFragment{BaseTemperature: floatPtr(12)}},
	}
	registry := NewRegistry(source)

	// Caller mutation after construction must not reach the registry.
	delete(source, "rice")
	_, ok := registry.Lookup("rice")
	assert.True(t, ok)
}
