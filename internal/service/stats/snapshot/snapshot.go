// Package snapshot implements a stats source backed by a YAML document that
// holds a schema catalog and the results of every target. It is used to
// render recorded stats offline.
package snapshot

import (
	"context"
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/stats"
)

// Snapshot is the document of a snapshot file.
//
//	units:
//	  - /machine/unattached/device[0]
//	schemas:
//	  - provider: kvm
//	    target: vm
//	    stats:
//	      - {name: pages_4k, type: instant, base: 2, exponent: 0}
//	results:
//	  vm:
//	    - provider: kvm
//	      stats:
//	        - {name: pages_4k, value: 1024}
type Snapshot struct {
	// Units are the canonical paths of the execution units, indexed by CPU.
	Units   []string               `yaml:"units"`
	Schemas []Schema               `yaml:"schemas"`
	Results map[string][]ResultSet `yaml:"results"`
}

// Schema is a schema of the snapshot.
type Schema struct {
	Provider string        `yaml:"provider"`
	Target   string        `yaml:"target"`
	Stats    []SchemaEntry `yaml:"stats"`
}

// SchemaEntry is a schema entry of the snapshot.
type SchemaEntry struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Unit       string `yaml:"unit,omitempty"`
	Base       int    `yaml:"base"`
	Exponent   int    `yaml:"exponent"`
	BucketSize *int   `yaml:"bucket-size,omitempty"`
}

// ResultSet is a result set of the snapshot.
type ResultSet struct {
	Provider string  `yaml:"provider"`
	QOMPath  string  `yaml:"qom-path,omitempty"`
	Stats    []Entry `yaml:"stats"`
}

// Entry is a reported statistic of the snapshot.
type Entry struct {
	Name  string `yaml:"name"`
	Value Value  `yaml:"value"`
}

// Value is a stat value that decodes from an integer, a boolean or a list
// of integers.
type Value struct {
	model.Value
}

// UnmarshalYAML satisfies yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			v.Value = model.BooleanValue(b)
			return nil
		case "!!int":
			var n int64
			if err := node.Decode(&n); err != nil {
				return err
			}
			v.Value = model.ScalarValue(n)
			return nil
		}
	case yaml.SequenceNode:
		var l []int64
		if err := node.Decode(&l); err != nil {
			return err
		}
		if l == nil {
			l = []int64{}
		}
		v.Value = model.ListValue(l)
		return nil
	}

	return errors.Errorf("line %d: unsupported value %q", node.Line, node.Value)
}

var metricTypes = map[model.MetricType]bool{
	model.MetricTypeScalar:          true,
	model.MetricTypeBoolean:         true,
	model.MetricTypeCumulative:      true,
	model.MetricTypeInstant:         true,
	model.MetricTypePeak:            true,
	model.MetricTypeLinearHistogram: true,
	model.MetricTypeLog2Histogram:   true,
}

var units = map[model.Unit]bool{
	model.UnitNone:    true,
	model.UnitBytes:   true,
	model.UnitSeconds: true,
	model.UnitCycles:  true,
	model.UnitBoolean: true,
}

// Validate returns all the problems of the snapshot at once.
func (s *Snapshot) Validate() error {
	var errs error

	for i, sc := range s.Schemas {
		if _, err := model.ParseTarget(sc.Target); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "schema %d", i))
		}
		if sc.Provider == "" {
			errs = multierror.Append(errs, fmt.Errorf("schema %d: provider is required", i))
		}
		for _, e := range sc.Stats {
			if e.Name == "" {
				errs = multierror.Append(errs, fmt.Errorf("schema %d: stat name is required", i))
			}
			if !metricTypes[model.MetricType(e.Type)] {
				errs = multierror.Append(errs, fmt.Errorf("schema %d: %s has unknown type %q", i, e.Name, e.Type))
			}
			if !units[model.Unit(e.Unit)] {
				errs = multierror.Append(errs, fmt.Errorf("schema %d: %s has unknown unit %q", i, e.Name, e.Unit))
			}
			if e.Base != 2 && e.Base != 10 {
				errs = multierror.Append(errs, fmt.Errorf("schema %d: %s base must be 2 or 10", i, e.Name))
			}
		}
	}

	targets := make([]string, 0, len(s.Results))
	for target := range s.Results {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	for _, target := range targets {
		rss := s.Results[target]
		if _, err := model.ParseTarget(target); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, "results"))
		}
		for i, rs := range rss {
			if rs.Provider == "" {
				errs = multierror.Append(errs, fmt.Errorf("%s result %d: provider is required", target, i))
			}
			for _, e := range rs.Stats {
				if e.Value.Value == nil {
					errs = multierror.Append(errs, fmt.Errorf("%s result %d: %s has no value", target, i, e.Name))
				}
			}
		}
	}

	return errs
}

// Parse decodes and validates a snapshot document.
func Parse(data []byte) (*Snapshot, error) {
	s := &Snapshot{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "could not decode snapshot")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid snapshot")
	}
	return s, nil
}

// Load reads a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read snapshot %s", path)
	}
	return Parse(data)
}

// Source is a stats source that serves a snapshot.
type Source struct {
	snap     *Snapshot
	cpuIndex int
}

// NewSource returns a new snapshot source, vcpu queries use the unit with
// cpuIndex.
func NewSource(snap *Snapshot, cpuIndex int) (*Source, error) {
	if snap == nil {
		return nil, errors.New("snapshot is required")
	}
	if cpuIndex < 0 {
		return nil, errors.New("CPU index can't be negative")
	}
	return &Source{snap: snap, cpuIndex: cpuIndex}, nil
}

// GatherSchemas satisfies stats.Gatherer.
func (s *Source) GatherSchemas(_ context.Context, provider *model.Provider) (*stats.Catalog, error) {
	cat := stats.NewCatalog()
	for _, sc := range s.snap.Schemas {
		p := model.Provider(sc.Provider)
		if provider != nil && *provider != p {
			continue
		}

		ms := model.Schema{Provider: p, Target: model.Target(sc.Target), Entries: make([]model.SchemaEntry, 0, len(sc.Stats))}
		for _, e := range sc.Stats {
			ms.Entries = append(ms.Entries, model.SchemaEntry{
				Name: e.Name,
				Type: model.MetricType(e.Type),
				Scale: model.Scale{
					Base:     e.Base,
					Exponent: e.Exponent,
					Unit:     model.Unit(e.Unit),
				},
				BucketSize: e.BucketSize,
			})
		}
		cat.Add(ms)
	}
	return cat, nil
}

// GatherStats satisfies stats.Gatherer.
func (s *Source) GatherStats(_ context.Context, filter model.RequestFilter) ([]model.ResultSet, error) {
	rss := []model.ResultSet{}
	for _, rs := range s.snap.Results[string(filter.Target)] {
		if filter.Target == model.TargetVCPU && !contains(filter.Units, rs.QOMPath) {
			continue
		}

		names, ok := requestedNames(filter.Providers, model.Provider(rs.Provider))
		if !ok {
			continue
		}

		mrs := model.ResultSet{
			Provider: model.Provider(rs.Provider),
			QOMPath:  rs.QOMPath,
			Entries:  []model.ResultEntry{},
		}
		for _, e := range rs.Stats {
			if names != nil && !contains(names, e.Name) {
				continue
			}
			mrs.Entries = append(mrs.Entries, model.ResultEntry{Name: e.Name, Value: e.Value.Value})
		}
		rss = append(rss, mrs)
	}
	return rss, nil
}

// CurrentUnit satisfies stats.UnitResolver.
func (s *Source) CurrentUnit(_ context.Context) (string, error) {
	if s.cpuIndex >= len(s.snap.Units) {
		return "", errors.Errorf("CPU %d not found in snapshot", s.cpuIndex)
	}
	return s.snap.Units[s.cpuIndex], nil
}

// requestedNames returns the names requested for the provider, nil meaning
// all of them, and false when the provider was not requested.
func requestedNames(reqs []model.ProviderRequest, p model.Provider) ([]string, bool) {
	if reqs == nil {
		return nil, true
	}
	for _, r := range reqs {
		if r.Provider == p {
			return r.Names, true
		}
	}
	return nil, false
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
