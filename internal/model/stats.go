package model

// Unit is the physical unit of a statistic.
type Unit string

// Units known by the stats providers. The zero value means no unit.
const (
	UnitNone    Unit = ""
	UnitBytes   Unit = "bytes"
	UnitSeconds Unit = "seconds"
	UnitCycles  Unit = "cycles"
	UnitBoolean Unit = "boolean"
)

// Scale describes how a raw integer value is scaled for display:
// value * Base^Exponent, in Unit.
type Scale struct {
	// Base is 2 or 10.
	Base     int
	Exponent int
	Unit     Unit
}

// MetricType is the kind of a statistic as described by its provider.
type MetricType string

// Metric types.
const (
	MetricTypeScalar          MetricType = "scalar"
	MetricTypeBoolean         MetricType = "boolean"
	MetricTypeCumulative      MetricType = "cumulative"
	MetricTypeInstant         MetricType = "instant"
	MetricTypePeak            MetricType = "peak"
	MetricTypeLinearHistogram MetricType = "linear-histogram"
	MetricTypeLog2Histogram   MetricType = "log2-histogram"
)

// SchemaEntry is the static description of one statistic.
type SchemaEntry struct {
	Name  string
	Type  MetricType
	Scale Scale
	// BucketSize is only set for linear histograms.
	BucketSize *int
}

// Schema is the ordered list of entries a provider exposes for a target.
type Schema struct {
	Provider Provider
	Target   Target
	Entries  []SchemaEntry
}

// ResultEntry is one reported statistic.
type ResultEntry struct {
	Name  string
	Value Value
}

// ResultSet holds all the statistics reported by one provider for one query.
type ResultSet struct {
	Provider Provider
	// QOMPath identifies the execution unit the results belong to, empty for
	// whole system results.
	QOMPath string
	Entries []ResultEntry
}

// ProviderRequest restricts a query to a provider and optionally to a set
// of statistic names.
type ProviderRequest struct {
	Provider Provider
	Names    []string
}

// RequestFilter is the descriptor sent to a stats source.
type RequestFilter struct {
	Target Target
	// Units holds the canonical path of the execution unit when the target
	// is TargetVCPU. At most one is set.
	Units []string
	// Providers is nil when all the providers should report all the stats.
	Providers []ProviderRequest
}
