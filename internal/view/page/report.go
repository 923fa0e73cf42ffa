package page

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/controller"
	"github.com/slok/infostats/internal/service/log"
	"github.com/slok/infostats/internal/view/render"
	viewsync "github.com/slok/infostats/internal/view/sync"
)

// Sink shows the outcome of a stats query.
type Sink interface {
	Show(r *controller.Report) error
	// ShowError shows a query error as a single line.
	ShowError(err error) error
}

// ReportCfg is the configuration required to create a Report.
type ReportCfg struct {
	Controller controller.Controller
	Sinks      []Sink
}

func (c *ReportCfg) defaults() error {
	if c.Controller == nil {
		return errors.New("controller is required")
	}
	if len(c.Sinks) == 0 {
		return errors.New("at least one sink is required")
	}
	return nil
}

// NewReport returns a syncer that runs the request query on every sync and
// shows the outcome on all the sinks.
func NewReport(cfg ReportCfg, logger log.Logger) (viewsync.Syncer, error) {
	if err := cfg.defaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Dummy
	}

	return &report{
		cfg:    cfg,
		logger: logger,
	}, nil
}

type report struct {
	cfg      ReportCfg
	logger   log.Logger
	syncLock syncingFlag
}

// Sync runs the query. The query error, if any, is shown on the sinks and
// returned, otherwise the errors of the sinks are returned.
func (r *report) Sync(ctx context.Context, req *viewsync.Request) error {
	// If already syncing ignore call.
	if r.syncLock.Get() {
		return nil
	}
	// If didn't changed the value means some other sync process
	// already entered before us.
	if !r.syncLock.Set(true) {
		return nil
	}
	defer r.syncLock.Set(false)

	rep, qerr := r.cfg.Controller.QueryStats(ctx, req.Query)

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, s := range r.cfg.Sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			defer func() {
				if rc := recover(); rc != nil {
					mu.Lock()
					errs = multierror.Append(errs, fmt.Errorf("sink panic recovered: %v", rc))
					mu.Unlock()
				}
			}()

			var err error
			if qerr != nil {
				err = s.ShowError(qerr)
			} else {
				err = s.Show(rep)
			}
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()

	if errs != nil {
		r.logger.Errorf("error showing report: %s", errs)
	}

	if qerr != nil {
		return qerr
	}
	return errs
}

// WriterSink shows reports rendered on a writer.
type WriterSink struct {
	w        io.Writer
	renderer render.Renderer
}

// NewWriterSink returns a sink that renders on w.
func NewWriterSink(w io.Writer, renderer render.Renderer) *WriterSink {
	return &WriterSink{w: w, renderer: renderer}
}

// Show satisfies Sink.
func (s *WriterSink) Show(r *controller.Report) error {
	return s.renderer.Render(s.w, r)
}

// ShowError satisfies Sink.
func (s *WriterSink) ShowError(err error) error {
	return s.renderer.RenderError(s.w, err)
}
