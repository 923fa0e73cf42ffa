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
	"github.com/slok/infostats/internal/service/log"
	"github.com/slok/infostats/internal/service/stats"
)

func TestTimeoutGathererRetries(t *testing.T) {
	filter := model.RequestFilter{Target: model.TargetVM}
	rss := []model.ResultSet{resultSet(model.ProviderKVM, "a")}

	mg := &mstats.Gatherer{}
	mg.On("GatherStats", mock.Anything, filter).Once().Return(nil, errors.New("connection reset"))
	mg.On("GatherStats", mock.Anything, filter).Once().Return(rss, nil)

	g := stats.NewTimeoutGatherer(mg, time.Second, 2, log.Dummy)
	got, err := g.GatherStats(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, rss, got)
	mg.AssertExpectations(t)
}

func TestTimeoutGathererGivesUp(t *testing.T) {
	mg := &mstats.Gatherer{}
	mg.On("GatherSchemas", mock.Anything, mock.Anything).Times(2).Return(nil, errors.New("connection reset"))

	g := stats.NewTimeoutGatherer(mg, time.Second, 2, log.Dummy)
	_, err := g.GatherSchemas(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Contains(t, err.Error(), "connection reset")
	mg.AssertExpectations(t)
}

func TestTimeoutGathererSingleAttemptKeepsError(t *testing.T) {
	wantErr := errors.New("wanted")
	mg := &mstats.Gatherer{}
	mg.On("GatherSchemas", mock.Anything, mock.Anything).Once().Return(nil, wantErr)

	g := stats.NewTimeoutGatherer(mg, 0, 0, nil)
	_, err := g.GatherSchemas(context.Background(), nil)

	assert.Equal(t, wantErr, err)
	mg.AssertExpectations(t)
}

func TestTimeoutGathererDoesNotRetryContextErrors(t *testing.T) {
	mg := &mstats.Gatherer{}
	mg.On("GatherStats", mock.Anything, mock.Anything).Once().Return(nil, context.DeadlineExceeded)

	g := stats.NewTimeoutGatherer(mg, time.Second, 3, log.Dummy)
	_, err := g.GatherStats(context.Background(), model.RequestFilter{})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	mg.AssertExpectations(t)
}

type permanentErr struct{}

func (permanentErr) Error() string   { return "stats are not supported" }
func (permanentErr) Permanent() bool { return true }

func TestTimeoutGathererDoesNotRetryPermanentErrors(t *testing.T) {
	mg := &mstats.Gatherer{}
	mg.On("GatherStats", mock.Anything, mock.Anything).Once().Return(nil, permanentErr{})

	g := stats.NewTimeoutGatherer(mg, time.Second, 3, log.Dummy)
	_, err := g.GatherStats(context.Background(), model.RequestFilter{})

	require.Error(t, err)
	assert.Equal(t, "stats are not supported", err.Error())
	mg.AssertExpectations(t)
}

func TestTimeoutGathererAppliesTimeout(t *testing.T) {
	mg := &mstats.Gatherer{}
	mg.On("GatherStats", mock.Anything, mock.Anything).Once().Return(
		func(ctx context.Context, _ model.RequestFilter) []model.ResultSet {
			<-ctx.Done()
			return nil
		},
		func(ctx context.Context, _ model.RequestFilter) error {
			return ctx.Err()
		},
	)

	g := stats.NewTimeoutGatherer(mg, 10*time.Millisecond, 3, log.Dummy)
	_, err := g.GatherStats(context.Background(), model.RequestFilter{})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	mg.AssertExpectations(t)
}

func TestTimeoutGathererCanceledContext(t *testing.T) {
	mg := &mstats.Gatherer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := stats.NewTimeoutGatherer(mg, time.Second, 3, log.Dummy)
	_, err := g.GatherStats(ctx, model.RequestFilter{})

	assert.Equal(t, context.Canceled, err)
	mg.AssertNotCalled(t, "GatherStats", mock.Anything, mock.Anything)
}

func TestTimeoutResolverAppliesTimeout(t *testing.T) {
	hung := stats.UnitResolverFunc(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	r := stats.NewTimeoutResolver(hung, 10*time.Millisecond, 3, log.Dummy)
	_, err := r.CurrentUnit(context.Background())

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTimeoutResolverRetries(t *testing.T) {
	calls := 0
	flaky := stats.UnitResolverFunc(func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("connection reset")
		}
		return "/machine/unattached/device[0]", nil
	})

	r := stats.NewTimeoutResolver(flaky, time.Second, 2, log.Dummy)
	got, err := r.CurrentUnit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/machine/unattached/device[0]", got)
	assert.Equal(t, 2, calls)
}
