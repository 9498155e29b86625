package stats

import (
	"errors"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/settingsync/internal/sentinel"
)

func TestHistogramStatsCollector_Aggregates(t *testing.T) {
	collector := NewHistogramStatsCollector()

	collector.Incr(StatCacheHits, 1)
	collector.Incr(StatCacheHits, 1)
	collector.Timing(StatLoadDuration, 100)
	collector.Timing(StatLoadDuration, 200)
	collector.Timing(StatLoadDuration, 600)

	collected := collector.GetStats()

	hits, ok := collected[StatCacheHits.String()]
	assert.True(t, ok)
	assert.Equal(t, 2, hits.Count)
	assert.Equal(t, int64(2), hits.Sum)

	loads, ok := collected[StatLoadDuration.String()]
	assert.True(t, ok)
	assert.Equal(t, 3, loads.Count)
	assert.Equal(t, int64(100), loads.Min)
	assert.Equal(t, int64(600), loads.Max)
	assert.Equal(t, float64(300), loads.Mean)
	assert.Equal(t, float64(200), loads.Median)
}

func TestHistogramStatsCollector_DecrRecordsNegatives(t *testing.T) {
	collector := NewHistogramStatsCollector()

	collector.Incr(StatPushes, 5)
	collector.Decr(StatPushes, 2)

	collected := collector.GetStats()
	assert.Equal(t, int64(3), collected[StatPushes.String()].Sum)
	assert.Equal(t, int64(-2), collected[StatPushes.String()].Min)
}

func TestNewCollector_Default(t *testing.T) {
	collector, err := NewCollector("default")
	assert.Nil(t, err)
	assert.NotNil(t, collector)

	collector.Incr(StatRefreshes, 1)
	assert.Equal(t, 1, collector.GetStats()[StatRefreshes.String()].Count)
}

func TestNewCollector_Validation(t *testing.T) {
	_, err := NewCollector("")
	assert.True(t, errors.Is(err, sentinel.ErrParamCannotBeEmpty))

	_, err = NewCollector("prometheus")
	assert.NotNil(t, err)
}

func TestCollectorRegistry_Custom(t *testing.T) {
	registry := NewEmptyCollectorRegistry()

	_, err := registry.NewCollector("default")
	assert.NotNil(t, err)

	registry.Register("histogram", func() (ICollector, error) {
		return NewHistogramStatsCollector(), nil
	})

	collector, err := registry.NewCollector("histogram")
	assert.Nil(t, err)
	assert.NotNil(t, collector)
}
