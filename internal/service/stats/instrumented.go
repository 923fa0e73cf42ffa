package stats

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slok/infostats/internal/model"
)

const (
	opSchemas = "query-stats-schemas"
	opStats   = "query-stats"
	opUnit    = "current-unit"

	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeTimeout = "timeout"
)

// GathererMetrics are the prometheus metrics of the queries made to a stats
// source.
type GathererMetrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewGathererMetrics returns the gatherer metrics registered on reg.
func NewGathererMetrics(reg prometheus.Registerer) (*GathererMetrics, error) {
	m := &GathererMetrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infostats",
			Subsystem: "source",
			Name:      "queries_total",
			Help:      "Total number of queries made to the stats source.",
		}, []string{"source", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "infostats",
			Subsystem: "source",
			Name:      "query_duration_seconds",
			Help:      "The duration of the queries made to the stats source.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"source", "operation"}),
	}

	for _, c := range []prometheus.Collector{m.queries, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// InstrumentedGatherer is a gatherer that records the queries it makes on
// the gatherer metrics.
type InstrumentedGatherer struct {
	g       Gatherer
	source  string
	metrics *GathererMetrics
}

// NewInstrumentedGatherer returns a new instrumented gatherer.
func NewInstrumentedGatherer(g Gatherer, source string, metrics *GathererMetrics) *InstrumentedGatherer {
	return &InstrumentedGatherer{
		g:       g,
		source:  source,
		metrics: metrics,
	}
}

// GatherSchemas satisfies Gatherer.
func (i *InstrumentedGatherer) GatherSchemas(ctx context.Context, provider *model.Provider) (cat *Catalog, err error) {
	defer i.observe(opSchemas, time.Now(), &err)
	return i.g.GatherSchemas(ctx, provider)
}

// GatherStats satisfies Gatherer.
func (i *InstrumentedGatherer) GatherStats(ctx context.Context, filter model.RequestFilter) (rss []model.ResultSet, err error) {
	defer i.observe(opStats, time.Now(), &err)
	return i.g.GatherStats(ctx, filter)
}

func (i *InstrumentedGatherer) observe(op string, start time.Time, err *error) {
	i.metrics.observe(i.source, op, start, err)
}

func (m *GathererMetrics) observe(source, op string, start time.Time, err *error) {
	outcome := outcomeSuccess
	switch {
	case *err != nil && isContextError(*err):
		outcome = outcomeTimeout
	case *err != nil:
		outcome = outcomeError
	}

	m.queries.WithLabelValues(source, op, outcome).Inc()
	m.duration.WithLabelValues(source, op).Observe(time.Since(start).Seconds())
}

// InstrumentedResolver is a unit resolver that records the resolutions on
// the gatherer metrics.
type InstrumentedResolver struct {
	r       UnitResolver
	source  string
	metrics *GathererMetrics
}

// NewInstrumentedResolver returns a new instrumented unit resolver.
func NewInstrumentedResolver(r UnitResolver, source string, metrics *GathererMetrics) *InstrumentedResolver {
	return &InstrumentedResolver{
		r:       r,
		source:  source,
		metrics: metrics,
	}
}

// CurrentUnit satisfies UnitResolver.
func (i *InstrumentedResolver) CurrentUnit(ctx context.Context) (u string, err error) {
	defer i.metrics.observe(i.source, opUnit, time.Now(), &err)
	return i.r.CurrentUnit(ctx)
}
