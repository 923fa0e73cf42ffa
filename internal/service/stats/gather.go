package stats

import (
	"context"

	"github.com/slok/infostats/internal/model"
)

// Gatherer knows how to query a stats source.
type Gatherer interface {
	// GatherSchemas returns the schema catalog, restricted to a provider
	// when provider is not nil.
	GatherSchemas(ctx context.Context, provider *model.Provider) (*Catalog, error)
	// GatherStats returns the result sets that match the filter.
	GatherStats(ctx context.Context, filter model.RequestFilter) ([]model.ResultSet, error)
}

// UnitResolver resolves the execution unit a vcpu query refers to.
type UnitResolver interface {
	// CurrentUnit returns the canonical path of the selected execution unit.
	CurrentUnit(ctx context.Context) (string, error)
}

// UnitResolverFunc is a helper to use functions as UnitResolvers.
type UnitResolverFunc func(ctx context.Context) (string, error)

// CurrentUnit satisfies UnitResolver.
func (f UnitResolverFunc) CurrentUnit(ctx context.Context) (string, error) { return f(ctx) }

// Source is a stats source that can also resolve execution units.
type Source interface {
	Gatherer
	UnitResolver
}
