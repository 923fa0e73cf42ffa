package qmp

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/model"
)

type greeting struct {
	QMP *struct {
		Version      jsoniter.RawMessage `json:"version"`
		Capabilities []string            `json:"capabilities"`
	} `json:"QMP"`
}

type command struct {
	Execute   string      `json:"execute"`
	Arguments interface{} `json:"arguments,omitempty"`
}

type response struct {
	Return jsoniter.RawMessage `json:"return"`
	Error  *Error              `json:"error"`
	Event  string              `json:"event"`
}

// Error is an error returned by the QMP server.
type Error struct {
	Class string `json:"class"`
	Desc  string `json:"desc"`
}

func (e *Error) Error() string { return e.Desc }

// Permanent marks the server errors as not worth retrying.
func (e *Error) Permanent() bool { return true }

type schemasArgs struct {
	Provider string `json:"provider,omitempty"`
}

type statsSchemaValue struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Unit       *string `json:"unit,omitempty"`
	Base       int     `json:"base"`
	Exponent   int     `json:"exponent"`
	BucketSize *int    `json:"bucket-size,omitempty"`
}

type statsSchema struct {
	Provider string             `json:"provider"`
	Target   string             `json:"target"`
	Stats    []statsSchemaValue `json:"stats"`
}

func (s statsSchema) toModel() model.Schema {
	ms := model.Schema{
		Provider: model.Provider(s.Provider),
		Target:   model.Target(s.Target),
		Entries:  make([]model.SchemaEntry, 0, len(s.Stats)),
	}

	for _, v := range s.Stats {
		e := model.SchemaEntry{
			Name: v.Name,
			Type: model.MetricType(v.Type),
			Scale: model.Scale{
				Base:     v.Base,
				Exponent: v.Exponent,
			},
			BucketSize: v.BucketSize,
		}
		if v.Unit != nil {
			e.Scale.Unit = model.Unit(*v.Unit)
		}
		ms.Entries = append(ms.Entries, e)
	}

	return ms
}

type statsRequest struct {
	Provider string   `json:"provider"`
	Names    []string `json:"names,omitempty"`
}

type statsFilter struct {
	Target    string         `json:"target"`
	Providers []statsRequest `json:"providers,omitempty"`
	VCPUs     []string       `json:"vcpus,omitempty"`
}

func newStatsFilter(f model.RequestFilter) statsFilter {
	sf := statsFilter{Target: string(f.Target)}
	if f.Target == model.TargetVCPU {
		sf.VCPUs = f.Units
	}
	for _, p := range f.Providers {
		sf.Providers = append(sf.Providers, statsRequest{Provider: string(p.Provider), Names: p.Names})
	}
	return sf
}

type stat struct {
	Name  string              `json:"name"`
	Value jsoniter.RawMessage `json:"value"`
}

type statsResult struct {
	Provider string `json:"provider"`
	QOMPath  string `json:"qom-path,omitempty"`
	Stats    []stat `json:"stats"`
}

func (r statsResult) toModel() (model.ResultSet, error) {
	rs := model.ResultSet{
		Provider: model.Provider(r.Provider),
		QOMPath:  r.QOMPath,
		Entries:  make([]model.ResultEntry, 0, len(r.Stats)),
	}

	for _, s := range r.Stats {
		v, err := decodeValue(s.Value)
		if err != nil {
			return model.ResultSet{}, errors.Wrapf(err, "invalid value for %s", s.Name)
		}
		rs.Entries = append(rs.Entries, model.ResultEntry{Name: s.Name, Value: v})
	}

	return rs, nil
}

// decodeValue decodes a stat value that is a number, a boolean or a list
// of numbers. Numbers are unsigned on the wire.
func decodeValue(raw jsoniter.RawMessage) (model.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("missing value")
	}

	switch raw[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return model.BooleanValue(b), nil
	case '[':
		var l []uint64
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, err
		}
		lv := make(model.ListValue, 0, len(l))
		for _, n := range l {
			lv = append(lv, int64(n))
		}
		return lv, nil
	}

	var n uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, errors.Errorf("unsupported value %s", string(raw))
	}
	return model.ScalarValue(int64(n)), nil
}

type cpuInfo struct {
	CPUIndex int    `json:"cpu-index"`
	QOMPath  string `json:"qom-path"`
}
