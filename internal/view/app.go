package view

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/controller"
	"github.com/slok/infostats/internal/service/log"
	viewsync "github.com/slok/infostats/internal/view/sync"
)

// AppConfig are the options to run the app.
type AppConfig struct {
	// Query is the stats query run on every sync.
	Query controller.Query
	// Watch keeps syncing every RefreshInterval until the context is done,
	// otherwise the app syncs once.
	Watch           bool
	RefreshInterval time.Duration
	// SyncTimeout is the maximum duration of a sync, 0 means no timeout.
	SyncTimeout time.Duration
}

func (a *AppConfig) defaults() {
	const defRefreshInterval = 2 * time.Second

	if a.RefreshInterval <= 0 {
		a.RefreshInterval = defRefreshInterval
	}
	if a.SyncTimeout < 0 {
		a.SyncTimeout = 0
	}
}

// App runs the stats queries and shows them.
type App struct {
	syncer viewsync.Syncer
	cfg    AppConfig
	logger log.Logger

	running bool
	mu      sync.Mutex
}

// NewApp returns a new app.
func NewApp(cfg AppConfig, syncer viewsync.Syncer, logger log.Logger) *App {
	cfg.defaults()
	if logger == nil {
		logger = log.Dummy
	}

	return &App{
		cfg:    cfg,
		syncer: syncer,
		logger: logger,
	}
}

// Run will start running the application. When not watching it returns
// the error of the single sync.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("already running")
	}
	a.running = true
	a.mu.Unlock()

	if a.syncer == nil {
		return errors.New("syncer is required")
	}

	if !a.cfg.Watch {
		return a.sync(ctx)
	}

	return a.watch(ctx)
}

func (a *App) watch(ctx context.Context) error {
	// The errors have been shown already, keep watching.
	_ = a.sync(ctx)

	tk := time.NewTicker(a.cfg.RefreshInterval)
	defer tk.Stop()
	for {
		// Check if we already done.
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
		}

		_ = a.sync(ctx)
	}
}

func (a *App) sync(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorf("app sync panic recovered: %v", r)
			err = errors.Errorf("sync panic: %v", r)
		}
	}()

	if a.cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.SyncTimeout)
		defer cancel()
	}

	r := &viewsync.Request{
		Query: a.cfg.Query,
		Time:  time.Now().UTC(),
	}

	err = a.syncer.Sync(ctx, r)
	if err != nil {
		switch ctx.Err() {
		case context.DeadlineExceeded:
			a.logger.Warnf("app sync timeout after %s: %s", a.cfg.SyncTimeout, err)
		case context.Canceled:
			a.logger.Debugf("app sync canceled: %s", err)
		default:
			a.logger.Debugf("app sync failed: %s", err)
		}
	}

	return err
}
