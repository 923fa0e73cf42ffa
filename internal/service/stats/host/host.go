// Package host implements a stats source that exposes the statistics of the
// local machine as the host provider. The whole machine is the vm target
// and every logical CPU is an execution unit of the vcpu target.
package host

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/log"
	"github.com/slok/infostats/internal/service/stats"
)

const unitPathPrefix = "/host/cpu"

// UnitPath returns the canonical path of a CPU.
func UnitPath(cpu int) string {
	return fmt.Sprintf("%s%d", unitPathPrefix, cpu)
}

func parseUnitPath(path string) (int, error) {
	if !strings.HasPrefix(path, unitPathPrefix) {
		return 0, errors.Errorf("invalid host CPU path %q", path)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(path, unitPathPrefix))
	if err != nil || n < 0 {
		return 0, errors.Errorf("invalid host CPU path %q", path)
	}
	return n, nil
}

var (
	millis     = model.Scale{Base: 10, Exponent: -3, Unit: model.UnitSeconds}
	byteScale  = model.Scale{Base: 2, Exponent: 0, Unit: model.UnitBytes}
	hundredths = model.Scale{Base: 10, Exponent: -2}
	plain      = model.Scale{Base: 10}
)

var vmSchema = []model.SchemaEntry{
	{Name: "cpus", Type: model.MetricTypeInstant, Scale: plain},
	{Name: "memory_total", Type: model.MetricTypeInstant, Scale: byteScale},
	{Name: "memory_used", Type: model.MetricTypeInstant, Scale: byteScale},
	{Name: "memory_available", Type: model.MetricTypeInstant, Scale: byteScale},
	{Name: "swap_used", Type: model.MetricTypeInstant, Scale: byteScale},
	{Name: "load1", Type: model.MetricTypeInstant, Scale: hundredths},
	{Name: "load5", Type: model.MetricTypeInstant, Scale: hundredths},
	{Name: "load15", Type: model.MetricTypeInstant, Scale: hundredths},
	{Name: "uptime", Type: model.MetricTypeCumulative, Scale: model.Scale{Base: 10, Unit: model.UnitSeconds}},
}

var vcpuSchema = []model.SchemaEntry{
	{Name: "user_time", Type: model.MetricTypeCumulative, Scale: millis},
	{Name: "system_time", Type: model.MetricTypeCumulative, Scale: millis},
	{Name: "idle_time", Type: model.MetricTypeCumulative, Scale: millis},
	{Name: "iowait_time", Type: model.MetricTypeCumulative, Scale: millis},
	{Name: "steal_time", Type: model.MetricTypeCumulative, Scale: millis},
}

// Config is the configuration of the host stats source.
type Config struct {
	// CPUIndex is the CPU used for vcpu queries.
	CPUIndex int
	// System reads the machine statistics, by default with gopsutil.
	System System
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.CPUIndex < 0 {
		return errors.New("CPU index can't be negative")
	}
	if c.System == nil {
		c.System = gopsutilSystem{}
	}
	if c.Logger == nil {
		c.Logger = log.Dummy
	}
	return nil
}

// Source is the host stats source.
type Source struct {
	cfg    Config
	sys    System
	logger log.Logger
}

// NewSource returns a new host stats source.
func NewSource(cfg Config) (*Source, error) {
	if err := cfg.defaults(); err != nil {
		return nil, err
	}

	return &Source{
		cfg:    cfg,
		sys:    cfg.System,
		logger: cfg.Logger.WithField("source", "host"),
	}, nil
}

// GatherSchemas satisfies stats.Gatherer.
func (s *Source) GatherSchemas(_ context.Context, provider *model.Provider) (*stats.Catalog, error) {
	if provider != nil && *provider != model.ProviderHost {
		return stats.NewCatalog(), nil
	}

	return stats.NewCatalog(
		model.Schema{Provider: model.ProviderHost, Target: model.TargetVM, Entries: vmSchema},
		model.Schema{Provider: model.ProviderHost, Target: model.TargetVCPU, Entries: vcpuSchema},
	), nil
}

// GatherStats satisfies stats.Gatherer.
func (s *Source) GatherStats(ctx context.Context, filter model.RequestFilter) ([]model.ResultSet, error) {
	names, ok := requestedNames(filter)
	if !ok {
		return nil, nil
	}

	var (
		rs  model.ResultSet
		err error
	)
	switch filter.Target {
	case model.TargetVM:
		rs, err = s.vmStats(ctx)
	case model.TargetVCPU:
		if len(filter.Units) != 1 {
			return nil, errors.New("exactly one CPU is required")
		}
		rs, err = s.vcpuStats(ctx, filter.Units[0])
	default:
		return nil, errors.Errorf("unsupported target %q", filter.Target)
	}
	if err != nil {
		return nil, err
	}

	if names != nil {
		rs.Entries = selectEntries(rs.Entries, names)
	}

	return []model.ResultSet{rs}, nil
}

// CurrentUnit satisfies stats.UnitResolver.
func (s *Source) CurrentUnit(ctx context.Context) (string, error) {
	n, err := s.sys.CPUCount(ctx)
	if err != nil {
		return "", errors.Wrap(err, "could not count CPUs")
	}
	if s.cfg.CPUIndex >= n {
		return "", errors.Errorf("CPU %d not found, the host has %d CPUs", s.cfg.CPUIndex, n)
	}
	return UnitPath(s.cfg.CPUIndex), nil
}

func (s *Source) vmStats(ctx context.Context) (model.ResultSet, error) {
	n, err := s.sys.CPUCount(ctx)
	if err != nil {
		return model.ResultSet{}, errors.Wrap(err, "could not count CPUs")
	}
	mem, err := s.sys.Memory(ctx)
	if err != nil {
		return model.ResultSet{}, errors.Wrap(err, "could not read memory")
	}
	load, err := s.sys.Load(ctx)
	if err != nil {
		// Not every platform has load averages.
		s.logger.Debugf("could not read load average: %s", err)
	}
	uptime, err := s.sys.Uptime(ctx)
	if err != nil {
		return model.ResultSet{}, errors.Wrap(err, "could not read uptime")
	}

	entries := []model.ResultEntry{
		{Name: "cpus", Value: model.ScalarValue(n)},
		{Name: "memory_total", Value: model.ScalarValue(int64(mem.Total))},
		{Name: "memory_used", Value: model.ScalarValue(int64(mem.Used))},
		{Name: "memory_available", Value: model.ScalarValue(int64(mem.Available))},
		{Name: "swap_used", Value: model.ScalarValue(int64(mem.SwapUsed))},
	}
	if load != nil {
		entries = append(entries,
			model.ResultEntry{Name: "load1", Value: model.ScalarValue(int64(load.Load1 * 100))},
			model.ResultEntry{Name: "load5", Value: model.ScalarValue(int64(load.Load5 * 100))},
			model.ResultEntry{Name: "load15", Value: model.ScalarValue(int64(load.Load15 * 100))},
		)
	}
	entries = append(entries, model.ResultEntry{Name: "uptime", Value: model.ScalarValue(int64(uptime))})

	return model.ResultSet{Provider: model.ProviderHost, Entries: entries}, nil
}

func (s *Source) vcpuStats(ctx context.Context, path string) (model.ResultSet, error) {
	idx, err := parseUnitPath(path)
	if err != nil {
		return model.ResultSet{}, err
	}

	times, err := s.sys.CPUTimes(ctx)
	if err != nil {
		return model.ResultSet{}, errors.Wrap(err, "could not read CPU times")
	}
	if idx >= len(times) {
		return model.ResultSet{}, errors.Errorf("CPU %d not found", idx)
	}
	t := times[idx]

	ms := func(secs float64) int64 { return int64(secs * 1000) }
	entries := []model.ResultEntry{
		{Name: "user_time", Value: model.ScalarValue(ms(t.User))},
		{Name: "system_time", Value: model.ScalarValue(ms(t.System))},
		{Name: "idle_time", Value: model.ScalarValue(ms(t.Idle))},
		{Name: "iowait_time", Value: model.ScalarValue(ms(t.Iowait))},
		{Name: "steal_time", Value: model.ScalarValue(ms(t.Steal))},
	}

	return model.ResultSet{Provider: model.ProviderHost, QOMPath: path, Entries: entries}, nil
}

// requestedNames returns the names requested for the host provider, nil
// meaning all of them. It returns false when the host provider is not
// requested at all.
func requestedNames(f model.RequestFilter) ([]string, bool) {
	if f.Providers == nil {
		return nil, true
	}
	for _, p := range f.Providers {
		if p.Provider == model.ProviderHost {
			return p.Names, true
		}
	}
	return nil, false
}

// selectEntries keeps the entries with the names, in the original order.
func selectEntries(entries []model.ResultEntry, names []string) []model.ResultEntry {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	selected := []model.ResultEntry{}
	for _, e := range entries {
		if want[e.Name] {
			selected = append(selected, e)
		}
	}
	return selected
}
