package export_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/infostats/internal/controller"
	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/stats"
	"github.com/slok/infostats/internal/view/export"
)

func testReport() *controller.Report {
	bucket := 16
	cat := stats.NewCatalog(
		model.Schema{Provider: model.ProviderKVM, Target: model.TargetVCPU, Entries: []model.SchemaEntry{
			{Name: "exits", Type: model.MetricTypeCumulative, Scale: model.Scale{Base: 10}},
			{Name: "guest_mode", Type: model.MetricTypeInstant, Scale: model.Scale{Base: 10, Unit: model.UnitBoolean}},
			{Name: "halt_wait_ns", Type: model.MetricTypeCumulative, Scale: model.Scale{Base: 10, Exponent: -9, Unit: model.UnitSeconds}},
			{Name: "halt_poll_hist", Type: model.MetricTypeLinearHistogram, Scale: model.Scale{Base: 10}, BucketSize: &bucket},
		}},
	)

	return &controller.Report{
		Target:  model.TargetVCPU,
		Catalog: cat,
		Results: []model.ResultSet{
			{
				Provider: model.ProviderKVM,
				QOMPath:  "/machine/unattached/device[0]",
				Entries: []model.ResultEntry{
					{Name: "exits", Value: model.ScalarValue(1234)},
					{Name: "guest_mode", Value: model.BooleanValue(true)},
					{Name: "halt_wait_ns", Value: model.ScalarValue(2500000000)},
					{Name: "halt_poll_hist", Value: model.ListValue{3, 7}},
				},
			},
			{
				Provider: model.ProviderCryptodev,
				Entries:  []model.ResultEntry{{Name: "x", Value: model.ScalarValue(1)}},
			},
		},
		ShowProvider: true,
	}
}

func TestMetricName(t *testing.T) {
	tests := []struct {
		name     string
		provider model.Provider
		schema   model.SchemaEntry
		exp      string
	}{
		{
			name:     "Unitless.",
			provider: model.ProviderKVM,
			schema:   model.SchemaEntry{Name: "exits"},
			exp:      "infostats_kvm_exits",
		},
		{
			name:     "Unit suffix.",
			provider: model.ProviderHost,
			schema:   model.SchemaEntry{Name: "memory_total", Scale: model.Scale{Unit: model.UnitBytes}},
			exp:      "infostats_host_memory_total_bytes",
		},
		{
			name:     "Unit suffix is not repeated.",
			provider: model.ProviderHost,
			schema:   model.SchemaEntry{Name: "uptime_seconds", Scale: model.Scale{Unit: model.UnitSeconds}},
			exp:      "infostats_host_uptime_seconds",
		},
		{
			name:     "Invalid characters.",
			provider: model.ProviderKVM,
			schema:   model.SchemaEntry{Name: "tlb-flush.count", Scale: model.Scale{Unit: model.UnitCycles}},
			exp:      "infostats_kvm_tlb_flush_count",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, export.MetricName(test.provider, test.schema))
		})
	}
}

func TestPrometheusRender(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, export.NewPrometheus(nil).Render(&b, testReport()))

	out := b.String()
	assert.Contains(t, out, "# failed to find schema list for cryptodev\n")

	parser := expfmt.TextParser{}
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(out))
	require.NoError(t, err)

	exits := mfs["infostats_kvm_exits"]
	require.NotNil(t, exits)
	require.Len(t, exits.GetMetric(), 1)
	assert.Equal(t, 1234.0, exits.GetMetric()[0].GetCounter().GetValue())

	guest := mfs["infostats_kvm_guest_mode"]
	require.NotNil(t, guest)
	assert.Equal(t, 1.0, guest.GetMetric()[0].GetGauge().GetValue())

	wait := mfs["infostats_kvm_halt_wait_ns_seconds"]
	require.NotNil(t, wait)
	assert.InDelta(t, 2.5, wait.GetMetric()[0].GetCounter().GetValue(), 1e-9)

	labels := map[string]string{}
	for _, lp := range wait.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, map[string]string{"target": "vcpu", "qom_path": "/machine/unattached/device[0]"}, labels)

	hist := mfs["infostats_kvm_halt_poll_hist"]
	require.NotNil(t, hist)
	buckets := map[string]float64{}
	for _, m := range hist.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "bucket" {
				buckets[lp.GetValue()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, map[string]float64{"1": 3, "2": 7}, buckets)
}

func TestPrometheusRenderNameCollision(t *testing.T) {
	cat := stats.NewCatalog(model.Schema{Provider: model.ProviderKVM, Target: model.TargetVM, Entries: []model.SchemaEntry{
		{Name: "foo", Type: model.MetricTypeInstant, Scale: model.Scale{Base: 2, Unit: model.UnitBytes}},
		{Name: "foo_bytes", Type: model.MetricTypeInstant, Scale: model.Scale{Base: 10}},
		{Name: "ok", Type: model.MetricTypeInstant, Scale: model.Scale{Base: 10}},
	}})
	r := &controller.Report{
		Target:  model.TargetVM,
		Catalog: cat,
		Results: []model.ResultSet{{
			Provider: model.ProviderKVM,
			Entries: []model.ResultEntry{
				{Name: "foo", Value: model.ScalarValue(1)},
				{Name: "foo_bytes", Value: model.ScalarValue(2)},
				{Name: "ok", Value: model.ScalarValue(3)},
			},
		}},
	}

	var b bytes.Buffer
	require.NoError(t, export.NewPrometheus(nil).Render(&b, r))

	out := b.String()
	assert.Contains(t, out, "# metric infostats_kvm_foo_bytes of stat kvm/foo_bytes already used by stat kvm/foo\n")

	parser := expfmt.TextParser{}
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(out))
	require.NoError(t, err)

	foo := mfs["infostats_kvm_foo_bytes"]
	require.NotNil(t, foo)
	require.Len(t, foo.GetMetric(), 1)
	assert.Equal(t, 1.0, foo.GetMetric()[0].GetGauge().GetValue())

	ok := mfs["infostats_kvm_ok"]
	require.NotNil(t, ok)
	assert.Equal(t, 3.0, ok.GetMetric()[0].GetGauge().GetValue())
}

func TestPrometheusRenderExtraMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "infostats_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	var b bytes.Buffer
	require.NoError(t, export.NewPrometheus(reg).Render(&b, testReport()))
	assert.Contains(t, b.String(), "infostats_test_total 1\n")
}

func TestInfluxRender(t *testing.T) {
	now := time.Unix(1, 0)

	var b bytes.Buffer
	require.NoError(t, export.NewInflux(func() time.Time { return now }).Render(&b, testReport()))

	exp := `infostats_kvm,qom_path=/machine/unattached/device[0],target=vcpu exits=1234i,guest_mode=true,halt_poll_hist_1=3i,halt_poll_hist_2=7i,halt_wait_ns=2500000000i 1000000000
# failed to find schema list for cryptodev
`
	assert.Equal(t, exp, b.String())
}

func TestInfluxRenderFieldClash(t *testing.T) {
	cat := stats.NewCatalog(model.Schema{Provider: model.ProviderKVM, Target: model.TargetVM, Entries: []model.SchemaEntry{
		{Name: "h", Type: model.MetricTypeLog2Histogram, Scale: model.Scale{Base: 10}},
		{Name: "h_1", Type: model.MetricTypeInstant, Scale: model.Scale{Base: 10}},
	}})
	r := &controller.Report{
		Target:  model.TargetVM,
		Catalog: cat,
		Results: []model.ResultSet{{
			Provider: model.ProviderKVM,
			Entries: []model.ResultEntry{
				{Name: "h", Value: model.ListValue{3, 4}},
				{Name: "h_1", Value: model.ScalarValue(9)},
			},
		}},
	}

	var b bytes.Buffer
	require.NoError(t, export.NewInflux(func() time.Time { return time.Unix(1, 0) }).Render(&b, r))

	exp := `# field h_1 of stat h_1 already used
infostats_kvm,target=vm h_1=3i,h_2=4i 1000000000
`
	assert.Equal(t, exp, b.String())
}

func TestRenderError(t *testing.T) {
	err := &controller.QueryError{Kind: controller.KindStatsFetchFailed, Err: errors.New("stats are not supported")}

	var b bytes.Buffer
	require.NoError(t, export.NewPrometheus(nil).RenderError(&b, err))
	assert.Equal(t, "# stats are not supported\n", b.String())

	b.Reset()
	require.NoError(t, export.NewInflux(nil).RenderError(&b, err))
	assert.Equal(t, "# stats are not supported\n", b.String())
}
