package sync

import (
	"context"
	"time"

	"github.com/slok/infostats/internal/controller"
)

// Request is the data of a sync iteration.
type Request struct {
	// Query is the stats query to run.
	Query controller.Query
	// Time is when the sync started.
	Time time.Time
}

// Syncer knows how to be synced.
type Syncer interface {
	Sync(ctx context.Context, r *Request) error
}

// SyncerFunc is a helper to use functions as Syncers.
type SyncerFunc func(ctx context.Context, r *Request) error

// Sync satisfies Syncer.
func (f SyncerFunc) Sync(ctx context.Context, r *Request) error { return f(ctx, r) }
