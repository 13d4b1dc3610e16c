package phenology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/cropfeatures/internal/config"
)

func intPtr(v int) *int { return &v }

func TestPartition_CriticalPeriodFromPercentages(t *testing.T) {
	// 40-70% of a 100-day season spans days 40-70 inclusive, independent
	// of any overlapping named stage.
	cfg := config.SystemDefault()
	part := NewPartitioner(&cfg).Partition(100)

	assert.Equal(t, 40, part.CriticalPeriod.StartDay)
	assert.Equal(t, 70, part.CriticalPeriod.EndDay)
	assert.True(t, part.InCritical(40))
	assert.True(t, part.InCritical(70))
	assert.False(t, part.InCritical(71))
}

func TestPartition_StagesAreDisjoint(t *testing.T) {
	cfg := config.SystemDefault()
	part := NewPartitioner(&cfg).Partition(90)

	require.Len(t, part.Stages, 4)
	for i := 1; i < len(part.Stages); i++ {
		prev, cur := part.Stages[i-1], part.Stages[i]
		assert.Greater(t, cur.StartDay, prev.EndDay,
			"stage %s overlaps %s", cur.Name, prev.Name)
	}
	assert.Equal(t, 1, part.Stages[0].StartDay)
	assert.Equal(t, 90, part.Stages[len(part.Stages)-1].EndDay)

	// Every day belongs to exactly one named stage.
	for day := 1; day <= 90; day++ {
		_, ok := part.StageAt(day)
		assert.True(t, ok, "day %d unassigned", day)
	}
}

func TestPartition_PercentageRounding(t *testing.T) {
	// 45% of 90 days is 40.5; rounding half away from zero puts the
	// vegetative end at day 41.
	cfg := config.SystemDefault()
	part := NewPartitioner(&cfg).Partition(90)

	var vegetative config.StageSpec
	for _, s := range cfg.Phenology.Stages {
		if s.Name == "vegetative" {
			vegetative = s
		}
	}
	require.Equal(t, 45.0, vegetative.EndPct)

	for _, s := range part.Stages {
		if s.Name == "vegetative" {
			assert.Equal(t, 41, s.EndDay)
		}
	}
}

func TestPartition_AbsoluteDaysOverridePercentages(t *testing.T) {
	cfg := config.SystemDefault()
	cfg.Phenology.Stages = []config.StageSpec{
		{Name: "establishment", StartPct: 0, EndPct: 50, StartDay: intPtr(1), EndDay: intPtr(10), Weight: 1},
		{Name: "grain_fill", StartPct: 50, EndPct: 100, Weight: 1.2},
	}
	part := NewPartitioner(&cfg).Partition(100)

	assert.Equal(t, 1, part.Stages[0].StartDay)
	assert.Equal(t, 10, part.Stages[0].EndDay)
	assert.Equal(t, 50, part.Stages[1].StartDay)
	assert.Equal(t, 100, part.Stages[1].EndDay)
}

func TestPartition_ZeroLengthStage(t *testing.T) {
	cfg := config.SystemDefault()
	cfg.Phenology.Stages = []config.StageSpec{
		{Name: "establishment", StartPct: 0, EndPct: 20, Weight: 1},
		{Name: "flash", StartPct: 20, EndPct: 20, Weight: 1},
		{Name: "rest", StartPct: 20, EndPct: 100, Weight: 1},
	}
	part := NewPartitioner(&cfg).Partition(100)

	flash := part.Stages[1]
	assert.Equal(t, 0, flash.Length())
	for day := 1; day <= 100; day++ {
		assert.False(t, flash.Contains(day))
	}
	// The trailing stage still covers the remainder.
	assert.Equal(t, 21, part.Stages[2].StartDay)
	assert.Equal(t, 100, part.Stages[2].EndDay)
}

func TestWeightAt(t *testing.T) {
	cfg := config.SystemDefault()
	part := NewPartitioner(&cfg).Partition(100)

	// Inside the critical period the reproductive weight applies even
	// when the day belongs to an earlier stage.
	assert.Equal(t, cfg.FeatureImportance.WeightReproductive, part.WeightAt(42))
	// Maturation day outside the critical period keeps the stage weight.
	assert.Equal(t, cfg.FeatureImportance.WeightMaturation, part.WeightAt(90))
	// Establishment day before the critical period.
	assert.Equal(t, 1.0, part.WeightAt(5))
}
