package stats

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/log"
)

// TimeoutGatherer is a gatherer that applies a timeout to every query
// attempt and retries failed queries with backoff.
type TimeoutGatherer struct {
	g Gatherer
	retrier
}

// NewTimeoutGatherer returns a new TimeoutGatherer. A zero timeout means no
// timeout and maxRetries below 1 means a single attempt.
func NewTimeoutGatherer(g Gatherer, timeout time.Duration, maxRetries int, logger log.Logger) *TimeoutGatherer {
	return &TimeoutGatherer{
		g:       g,
		retrier: newRetrier(timeout, maxRetries, logger),
	}
}

// GatherSchemas satisfies Gatherer.
func (t *TimeoutGatherer) GatherSchemas(ctx context.Context, provider *model.Provider) (*Catalog, error) {
	var cat *Catalog
	err := t.executeWithRetry(ctx, opSchemas, func(ctx context.Context) error {
		var err error
		cat, err = t.g.GatherSchemas(ctx, provider)
		return err
	})
	return cat, err
}

// GatherStats satisfies Gatherer.
func (t *TimeoutGatherer) GatherStats(ctx context.Context, filter model.RequestFilter) ([]model.ResultSet, error) {
	var rss []model.ResultSet
	err := t.executeWithRetry(ctx, opStats, func(ctx context.Context) error {
		var err error
		rss, err = t.g.GatherStats(ctx, filter)
		return err
	})
	return rss, err
}

// TimeoutResolver is a unit resolver with the timeout and retries of a
// TimeoutGatherer.
type TimeoutResolver struct {
	r UnitResolver
	retrier
}

// NewTimeoutResolver returns a new TimeoutResolver, see NewTimeoutGatherer.
func NewTimeoutResolver(r UnitResolver, timeout time.Duration, maxRetries int, logger log.Logger) *TimeoutResolver {
	return &TimeoutResolver{
		r:       r,
		retrier: newRetrier(timeout, maxRetries, logger),
	}
}

// CurrentUnit satisfies UnitResolver.
func (t *TimeoutResolver) CurrentUnit(ctx context.Context) (string, error) {
	var u string
	err := t.executeWithRetry(ctx, opUnit, func(ctx context.Context) error {
		var err error
		u, err = t.r.CurrentUnit(ctx)
		return err
	})
	return u, err
}

type retrier struct {
	timeout    time.Duration
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     log.Logger
}

func newRetrier(timeout time.Duration, maxRetries int, logger log.Logger) retrier {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if logger == nil {
		logger = log.Dummy
	}

	return retrier{
		timeout:    timeout,
		maxRetries: maxRetries,
		backoff:    quadraticBackoff,
		logger:     logger,
	}
}

func quadraticBackoff(attempt int) time.Duration {
	return time.Duration(attempt*attempt*100) * time.Millisecond
}

// executeWithRetry implements retry logic for failed queries.
func (t *retrier) executeWithRetry(ctx context.Context, op string, f func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			t.logger.Debugf("retrying %s, attempt %d: %s", op, attempt+1, lastErr)
			select {
			case <-time.After(t.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := t.attempt(ctx, f)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry context errors nor errors of the source itself.
		if isContextError(err) || isPermanent(err) {
			return err
		}
	}

	if t.maxRetries == 1 {
		return lastErr
	}
	return errors.Wrapf(lastErr, "%s failed after %d attempts", op, t.maxRetries)
}

func (t *retrier) attempt(ctx context.Context, f func(ctx context.Context) error) error {
	if t.timeout <= 0 {
		return f(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return f(ctx)
}

// isPermanent checks if err is marked as an error that would happen again.
func isPermanent(err error) bool {
	p, ok := errors.Cause(err).(interface{ Permanent() bool })
	return ok && p.Permanent()
}

// isContextError checks if err is related to context cancellation or timeout.
func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
