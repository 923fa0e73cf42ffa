// Package export renders stats reports in the formats of other monitoring
// systems.
package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/slok/infostats/internal/controller"
	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/stats"
	"github.com/slok/infostats/internal/service/unit"
	"github.com/slok/infostats/internal/view/render"
)

const namespace = "infostats"

// Prometheus renders reports in the prometheus text exposition format.
// Values are scaled to the base unit, cumulative stats are counters and the
// rest gauges. List values have a series per position with the bucket
// label. Result sets that can't be matched are written as comments.
type Prometheus struct {
	// Extra metrics that are appended to every report, the source query
	// metrics for example.
	extra prometheus.Gatherer
}

// NewPrometheus returns a new prometheus renderer, extra can be nil.
func NewPrometheus(extra prometheus.Gatherer) *Prometheus {
	return &Prometheus{extra: extra}
}

// Render satisfies render.Renderer.
func (p *Prometheus) Render(w io.Writer, r *controller.Report) error {
	c := newReportCollector(r)
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return err
	}

	gs := prometheus.Gatherers{reg}
	if p.extra != nil {
		gs = append(gs, p.extra)
	}
	mfs, err := gs.Gather()
	if err != nil {
		return err
	}

	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	for _, d := range c.diagnostics {
		if _, err := fmt.Fprintf(w, "# %s\n", d); err != nil {
			return err
		}
	}

	return nil
}

// RenderError satisfies render.Renderer.
func (p *Prometheus) RenderError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "# %s\n", err)
	return werr
}

// reportCollector collects a report as constant metrics.
type reportCollector struct {
	metrics     []prometheus.Metric
	diagnostics []string
}

func newReportCollector(r *controller.Report) *reportCollector {
	c := &reportCollector{}
	// Metric name to the stat that owns it, and the series already added.
	owners := map[string]string{}
	seen := map[string]bool{}

	for _, rs := range r.Results {
		rs := rs
		err := stats.Match(r.Catalog, r.Target, rs, func(s model.SchemaEntry, e model.ResultEntry) {
			name := MetricName(rs.Provider, s)
			stat := fmt.Sprintf("%s/%s", rs.Provider, s.Name)
			if owner, ok := owners[name]; ok && owner != stat {
				c.diagnostics = append(c.diagnostics, fmt.Sprintf("metric %s of stat %s already used by stat %s", name, stat, owner))
				return
			}
			owners[name] = stat

			key := name + "/" + rs.QOMPath
			if seen[key] {
				return
			}
			seen[key] = true
			c.metrics = append(c.metrics, newStatMetrics(name, r.Target, rs, s, e.Value)...)
		})
		if err != nil {
			c.diagnostics = append(c.diagnostics, err.Error())
		}
	}

	return c
}

// Describe satisfies prometheus.Collector. It describes nothing so the
// collector is unchecked, the metrics depend on the report.
func (c *reportCollector) Describe(chan<- *prometheus.Desc) {}

// Collect satisfies prometheus.Collector.
func (c *reportCollector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.metrics {
		ch <- m
	}
}

// statMetrics builds the metrics of a single stat.
type statMetrics struct {
	desc    *prometheus.Desc
	vtype   prometheus.ValueType
	factor  float64
	labels  []string
	metrics []prometheus.Metric
}

func newStatMetrics(name string, target model.Target, rs model.ResultSet, s model.SchemaEntry, v model.Value) []prometheus.Metric {
	labelNames := []string{"target", "qom_path"}
	if _, ok := v.(model.ListValue); ok {
		labelNames = append(labelNames, "bucket")
	}

	vtype := prometheus.GaugeValue
	if s.Type == model.MetricTypeCumulative {
		vtype = prometheus.CounterValue
	}

	sm := &statMetrics{
		desc: prometheus.NewDesc(
			name,
			fmt.Sprintf("%s stat %s of the %s provider%s.", s.Type, s.Name, rs.Provider, unit.Annotation(s)),
			labelNames, nil),
		vtype:  vtype,
		factor: math.Pow(float64(s.Scale.Base), float64(s.Scale.Exponent)),
		labels: []string{string(target), rs.QOMPath},
	}
	v.Accept(sm)

	return sm.metrics
}

func (m *statMetrics) add(value float64, extraLabels ...string) {
	labels := append(append([]string{}, m.labels...), extraLabels...)
	m.metrics = append(m.metrics, prometheus.MustNewConstMetric(m.desc, m.vtype, value, labels...))
}

func (m *statMetrics) VisitScalar(v model.ScalarValue) {
	m.add(float64(v) * m.factor)
}

func (m *statMetrics) VisitBoolean(v model.BooleanValue) {
	if v {
		m.add(1)
		return
	}
	m.add(0)
}

func (m *statMetrics) VisitList(v model.ListValue) {
	for i, n := range v {
		m.add(float64(n)*m.factor, strconv.Itoa(i+1))
	}
}

// MetricName returns the prometheus metric name of a stat:
// infostats_<provider>_<name>[_<unit>].
func MetricName(p model.Provider, s model.SchemaEntry) string {
	name := namespace + "_" + sanitize(string(p)) + "_" + sanitize(s.Name)

	var suffix string
	switch s.Scale.Unit {
	case model.UnitBytes:
		suffix = "_bytes"
	case model.UnitSeconds:
		suffix = "_seconds"
	}
	if suffix != "" && !strings.HasSuffix(name, suffix) {
		name += suffix
	}

	return name
}

// sanitize replaces the characters that are not valid in a metric name.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}

var _ render.Renderer = &Prometheus{}
