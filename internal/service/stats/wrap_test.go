package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mstats "github.com/slok/infostats/internal/mocks/service/stats"
	"github.com/slok/infostats/internal/service/log"
	"github.com/slok/infostats/internal/service/stats"
)

func TestDecorate(t *testing.T) {
	metrics, err := stats.NewGathererMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     stats.GatherConfig
		metrics *stats.GathererMetrics
		check   func(t *testing.T, g stats.Gatherer, base stats.Gatherer)
	}{
		{
			name: "Legacy config without metrics returns the source.",
			cfg:  stats.LegacyGatherConfig(),
			check: func(t *testing.T, g stats.Gatherer, base stats.Gatherer) {
				assert.Equal(t, base, g)
			},
		},
		{
			name:    "Legacy config with metrics instruments the source.",
			cfg:     stats.LegacyGatherConfig(),
			metrics: metrics,
			check: func(t *testing.T, g stats.Gatherer, base stats.Gatherer) {
				assert.IsType(t, &stats.InstrumentedGatherer{}, g)
			},
		},
		{
			name: "Default config caches schemas on the outside.",
			cfg:  stats.DefaultGatherConfig(),
			check: func(t *testing.T, g stats.Gatherer, base stats.Gatherer) {
				c, ok := g.(*stats.CachedGatherer)
				require.True(t, ok)
				assert.IsType(t, &stats.TimeoutGatherer{}, c.Gatherer)
			},
		},
		{
			name: "No retries and no timeout skips the timeout gatherer.",
			cfg:  stats.GatherConfig{Enabled: true, CacheSchemas: true, CacheTTL: time.Minute},
			check: func(t *testing.T, g stats.Gatherer, base stats.Gatherer) {
				c, ok := g.(*stats.CachedGatherer)
				require.True(t, ok)
				assert.Equal(t, base, c.Gatherer)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			base := &mstats.Gatherer{}
			g := stats.Decorate(base, "test", test.cfg, test.metrics, log.Dummy)
			test.check(t, g, base)
		})
	}
}

func TestDecorateResolver(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := stats.NewGathererMetrics(reg)
	require.NoError(t, err)

	hung := stats.UnitResolverFunc(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	cfg := stats.GatherConfig{Enabled: true, QueryTimeout: 10 * time.Millisecond}
	r := stats.DecorateResolver(hung, "test", cfg, metrics, log.Dummy)
	require.IsType(t, &stats.TimeoutResolver{}, r)

	_, err = r.CurrentUnit(context.Background())
	assert.Error(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range mfs {
		if mf.GetName() != "infostats_source_queries_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "operation" && lp.GetValue() == "current-unit" {
					found = true
				}
			}
		}
	}
	assert.True(t, found)
}
