package stats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mstats "github.com/slok/infostats/internal/mocks/service/stats"
	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/stats"
)

func TestCachedGathererCachesSchemas(t *testing.T) {
	cat := stats.NewCatalog(model.Schema{Provider: model.ProviderKVM, Target: model.TargetVM, Entries: schemaEntries("a")})
	kvm := model.ProviderKVM

	mg := &mstats.Gatherer{}
	mg.On("GatherSchemas", mock.Anything, (*model.Provider)(nil)).Once().Return(cat, nil)
	mg.On("GatherSchemas", mock.Anything, &kvm).Once().Return(cat, nil)

	g := stats.NewCachedGatherer(mg, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := g.GatherSchemas(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, cat, got)
	}
	_, err := g.GatherSchemas(context.Background(), &kvm)
	require.NoError(t, err)

	mg.AssertExpectations(t)

	st := g.Stats()
	assert.Equal(t, int64(2), st.Hits)
	assert.Equal(t, int64(2), st.Misses)
	assert.Equal(t, float64(50), st.HitRate)
	assert.Equal(t, int64(2), st.Size)

	g.Clear()
	assert.Equal(t, stats.CacheStats{}, g.Stats())
}

func TestCachedGathererDoesNotCacheErrors(t *testing.T) {
	mg := &mstats.Gatherer{}
	mg.On("GatherSchemas", mock.Anything, mock.Anything).Twice().Return(nil, errors.New("wanted"))

	g := stats.NewCachedGatherer(mg, time.Minute)
	_, err := g.GatherSchemas(context.Background(), nil)
	assert.Error(t, err)
	_, err = g.GatherSchemas(context.Background(), nil)
	assert.Error(t, err)

	mg.AssertExpectations(t)
}

func TestCachedGathererDoesNotCacheStats(t *testing.T) {
	filter := model.RequestFilter{Target: model.TargetVM}
	rss := []model.ResultSet{resultSet(model.ProviderKVM, "a")}

	mg := &mstats.Gatherer{}
	mg.On("GatherStats", mock.Anything, filter).Twice().Return(rss, nil)

	g := stats.NewCachedGatherer(mg, time.Minute)
	for i := 0; i < 2; i++ {
		got, err := g.GatherStats(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, rss, got)
	}

	mg.AssertExpectations(t)
}
