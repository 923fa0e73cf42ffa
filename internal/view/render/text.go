package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/slok/infostats/internal/controller"
	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/stats"
	"github.com/slok/infostats/internal/service/unit"
)

// LineKind is the kind of a rendered line.
type LineKind int

// Line kinds.
const (
	// LineMetric is a stat with its schema and value.
	LineMetric LineKind = iota
	// LineHeader names the provider of the following metric lines.
	LineHeader
	// LineDiagnostic reports a result set that could not be rendered.
	LineDiagnostic
)

// Line is a rendered line, without the line break.
type Line struct {
	Kind     LineKind
	Provider model.Provider
	Text     string
	// Err is set on diagnostic lines.
	Err error
}

// Lines renders a report. A result set without schema renders a single
// diagnostic line; an entry that can't be matched renders a diagnostic and
// ends its result set. Other result sets are always rendered.
func Lines(r *controller.Report) []Line {
	lines := []Line{}
	for _, rs := range r.Results {
		lines = append(lines, ResultSetLines(r.Catalog, r.Target, rs, r.ShowProvider)...)
	}
	return lines
}

// ResultSetLines renders a single result set, see Lines.
func ResultSetLines(cat *stats.Catalog, target model.Target, rs model.ResultSet, showProvider bool) []Line {
	schema, ok := cat.Lookup(rs.Provider, target)
	if !ok {
		return []Line{diagnostic(rs.Provider, &stats.MatchError{Kind: stats.ErrSchemaNotFound, Provider: rs.Provider})}
	}

	lines := []Line{}
	if showProvider {
		lines = append(lines, Line{
			Kind:     LineHeader,
			Provider: rs.Provider,
			Text:     fmt.Sprintf("provider: %s", rs.Provider),
		})
	}

	err := stats.MatchSchema(schema, rs, func(s model.SchemaEntry, e model.ResultEntry) {
		lines = append(lines, Line{
			Kind:     LineMetric,
			Provider: rs.Provider,
			Text:     MetricLine(s, e.Value),
		})
	})
	if err != nil {
		lines = append(lines, diagnostic(rs.Provider, err))
	}

	return lines
}

func diagnostic(p model.Provider, err error) Line {
	return Line{Kind: LineDiagnostic, Provider: p, Text: err.Error(), Err: err}
}

// MetricLine renders a stat: "    <name> (<type>[, <scale>][, bucket size=<n>]): <value>".
func MetricLine(s model.SchemaEntry, v model.Value) string {
	var b strings.Builder
	fmt.Fprintf(&b, "    %s (%s%s)", s.Name, s.Type, unit.Annotation(s))
	if v != nil {
		v.Accept(valueWriter{b: &b})
	}
	return b.String()
}

// valueWriter writes the value part of a metric line.
type valueWriter struct {
	b *strings.Builder
}

func (w valueWriter) VisitScalar(v model.ScalarValue) {
	fmt.Fprintf(w.b, ": %d", int64(v))
}

func (w valueWriter) VisitBoolean(v model.BooleanValue) {
	if v {
		w.b.WriteString(": yes")
		return
	}
	w.b.WriteString(": no")
}

// VisitList writes every element with its 1-based position, each one
// followed by a space.
func (w valueWriter) VisitList(v model.ListValue) {
	w.b.WriteString(": ")
	for i, n := range v {
		fmt.Fprintf(w.b, "[%d]=%d ", i+1, n)
	}
}

// Text renders reports in the monitor console format.
type Text struct{}

// NewText returns a new console text renderer.
func NewText() Text { return Text{} }

// Render satisfies Renderer.
func (Text) Render(w io.Writer, r *controller.Report) error {
	for _, l := range Lines(r) {
		if _, err := io.WriteString(w, l.Text+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// RenderError satisfies Renderer.
func (Text) RenderError(w io.Writer, err error) error {
	_, werr := io.WriteString(w, err.Error()+"\n")
	return werr
}
