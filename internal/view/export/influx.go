package export

import (
	"fmt"
	"io"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/slok/infostats/internal/controller"
	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/stats"
	"github.com/slok/infostats/internal/view/render"
)

// Influx renders reports in the influx line protocol. Every result set is a
// point of the infostats_<provider> measurement with a field per stat. Raw
// values are kept, list values have a field per position: <name>_<pos>.
// Result sets that can't be matched are written as comments.
type Influx struct {
	now func() time.Time
}

// NewInflux returns a new influx renderer. The points are timestamped with
// now, by default time.Now.
func NewInflux(now func() time.Time) *Influx {
	if now == nil {
		now = time.Now
	}
	return &Influx{now: now}
}

// Render satisfies render.Renderer.
func (i *Influx) Render(w io.Writer, r *controller.Report) error {
	ts := i.now()

	for _, rs := range r.Results {
		fw := &fieldWriter{fields: map[string]interface{}{}}
		err := stats.Match(r.Catalog, r.Target, rs, func(s model.SchemaEntry, e model.ResultEntry) {
			fw.name = e.Name
			e.Value.Accept(fw)
		})
		for _, d := range fw.clashes {
			if _, werr := fmt.Fprintf(w, "# %s\n", d); werr != nil {
				return werr
			}
		}
		if err != nil {
			if _, werr := fmt.Fprintf(w, "# %s\n", err); werr != nil {
				return werr
			}
		}

		// A point needs at least one field.
		fields := fw.fields
		if len(fields) == 0 {
			continue
		}

		tags := map[string]string{"target": string(r.Target)}
		if rs.QOMPath != "" {
			tags["qom_path"] = rs.QOMPath
		}

		pt, perr := client.NewPoint(namespace+"_"+sanitize(string(rs.Provider)), tags, fields, ts)
		if perr != nil {
			return perr
		}
		if _, err := io.WriteString(w, pt.String()+"\n"); err != nil {
			return err
		}
	}

	return nil
}

// RenderError satisfies render.Renderer.
func (i *Influx) RenderError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "# %s\n", err)
	return werr
}

// fieldWriter sets the fields of a point. A field that is already set is
// kept and the clash recorded.
type fieldWriter struct {
	name    string
	fields  map[string]interface{}
	clashes []string
}

func (f *fieldWriter) set(field string, v interface{}) {
	if _, ok := f.fields[field]; ok {
		f.clashes = append(f.clashes, fmt.Sprintf("field %s of stat %s already used", field, f.name))
		return
	}
	f.fields[field] = v
}

func (f *fieldWriter) VisitScalar(v model.ScalarValue)   { f.set(f.name, int64(v)) }
func (f *fieldWriter) VisitBoolean(v model.BooleanValue) { f.set(f.name, bool(v)) }

func (f *fieldWriter) VisitList(v model.ListValue) {
	for i, n := range v {
		f.set(fmt.Sprintf("%s_%d", f.name, i+1), n)
	}
}

var _ render.Renderer = &Influx{}
