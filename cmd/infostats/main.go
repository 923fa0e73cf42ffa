package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/slok/infostats/internal/controller"
	"github.com/slok/infostats/internal/service/log"
	"github.com/slok/infostats/internal/service/stats"
	"github.com/slok/infostats/internal/service/stats/host"
	"github.com/slok/infostats/internal/service/stats/qmp"
	"github.com/slok/infostats/internal/service/stats/snapshot"
	"github.com/slok/infostats/internal/view"
	"github.com/slok/infostats/internal/view/export"
	"github.com/slok/infostats/internal/view/page"
	"github.com/slok/infostats/internal/view/render"
	"github.com/slok/infostats/internal/view/term"
)

// Version is the app version, set at build time.
var Version = "dev"

// Main is the main application.
type Main struct {
	flags  *cmdFlags
	cfg    config
	stdout io.Writer
	logger log.Logger
}

// Run runs the main application.
func (m *Main) Run() error {
	var fc *fileConfig
	if m.flags.configFile != "" {
		var err error
		fc, err = loadFileConfig(m.flags.configFile)
		if err != nil {
			return err
		}
	}

	cfg, err := resolveConfig(m.flags, fc)
	if err != nil {
		return err
	}
	m.cfg = cfg

	// Logs never go to stdout, it's for the stats.
	m.logger = log.NewZerolog(os.Stderr, cfg.Debug, true)
	m.logger.Debugf("debug mode enabled")

	reg := prometheus.NewRegistry()
	metrics, err := stats.NewGathererMetrics(reg)
	if err != nil {
		return err
	}

	src, err := m.createSource()
	if err != nil {
		return err
	}

	ctrl, err := controller.NewController(controller.Config{
		Gatherer: stats.Decorate(src, cfg.Source, cfg.Gather, metrics, m.logger),
		Resolver: stats.DecorateResolver(src, cfg.Source, cfg.Gather, metrics, m.logger),
		Logger:   m.logger.WithField("service", "controller"),
	})
	if err != nil {
		return err
	}

	var g run.Group

	// Terminal view.
	var sink page.Sink
	if cfg.Watch && cfg.Output == outputText {
		tv, err := term.New(term.Config{Logger: m.logger.WithField("view", "term")})
		if err != nil {
			return err
		}
		sink = tv

		ctx, cancel := context.WithCancel(context.Background())
		g.Add(
			func() error {
				return tv.Run(ctx)
			},
			func(_ error) {
				cancel()
			},
		)
	} else {
		var extra prometheus.Gatherer
		if cfg.SourceMetrics {
			extra = reg
		}
		sink = page.NewWriterSink(m.stdout, m.createRenderer(extra))
	}

	// App.
	{
		syncer, err := page.NewReport(page.ReportCfg{
			Controller: ctrl,
			Sinks:      []page.Sink{sink},
		}, m.logger.WithField("view", "report"))
		if err != nil {
			return err
		}

		app := view.NewApp(view.AppConfig{
			Query: controller.Query{
				Target:   m.flags.target,
				Names:    m.flags.names.v,
				Provider: m.flags.provider.v,
			},
			Watch:           cfg.Watch,
			RefreshInterval: cfg.Refresh,
		}, syncer, m.logger.WithField("view", "app"))

		ctx, cancel := context.WithCancel(context.Background())
		g.Add(
			func() error {
				return app.Run(ctx)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// Capture signals.
	{
		sigC := make(chan os.Signal, 1)
		exitC := make(chan struct{})
		signal.Notify(sigC, syscall.SIGTERM, syscall.SIGINT)
		g.Add(
			func() error {
				select {
				case s := <-sigC:
					m.logger.Infof("signal %s received", s)
					return nil
				case <-exitC:
					return nil
				}
			},
			func(_ error) {
				close(exitC)
			},
		)
	}

	return g.Run()
}

func (m *Main) createSource() (stats.Source, error) {
	switch m.cfg.Source {
	case sourceQMP:
		return qmp.NewClient(qmp.Config{
			Socket:   m.cfg.Socket,
			CPUIndex: m.cfg.CPU,
			Logger:   m.logger,
		})
	case sourceHost:
		return host.NewSource(host.Config{
			CPUIndex: m.cfg.CPU,
			Logger:   m.logger,
		})
	case sourceSnapshot:
		snap, err := snapshot.Load(m.cfg.Snapshot)
		if err != nil {
			return nil, err
		}
		return snapshot.NewSource(snap, m.cfg.CPU)
	}

	return nil, errors.Errorf("unknown source %q", m.cfg.Source)
}

func (m *Main) createRenderer(extra prometheus.Gatherer) render.Renderer {
	switch m.cfg.Output {
	case outputPrometheus:
		return export.NewPrometheus(extra)
	case outputInflux:
		return export.NewInflux(nil)
	}
	return render.NewText()
}

func main() {
	flags, err := newCmdFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing arguments: %s\n", err)
		os.Exit(1)
	}

	m := &Main{
		flags:  flags,
		stdout: os.Stdout,
		logger: log.Dummy,
	}

	if err := m.Run(); err != nil {
		// Query errors have been shown already.
		if _, ok := errors.Cause(err).(*controller.QueryError); !ok {
			fmt.Fprintf(os.Stderr, "error running app: %s\n", err)
		}
		os.Exit(1)
	}

	os.Exit(0)
}
