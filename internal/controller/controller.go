// Package controller runs stats queries against a stats source.
package controller

import (
	"context"

	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/log"
	"github.com/slok/infostats/internal/service/stats"
)

// Query is a stats query as typed by an operator.
type Query struct {
	Target string
	// Names is a comma separated list of stat names, nil means all.
	Names *string
	// Provider is a provider name, nil means all the providers.
	Provider *string
}

// Report is everything needed to render the result of a query.
type Report struct {
	Target  model.Target
	Catalog *stats.Catalog
	Results []model.ResultSet
	// ShowProvider is set when the query was for all the providers, so
	// every result set needs a provider header.
	ShowProvider bool
}

// Controller knows how to run stats queries.
type Controller interface {
	// QueryStats runs a query. Failures that leave nothing to render are
	// returned as *QueryError.
	QueryStats(ctx context.Context, q Query) (*Report, error)
}

// Config is the controller configuration.
type Config struct {
	Gatherer stats.Gatherer
	Resolver stats.UnitResolver
	// Providers is the provider enumeration, by default every known
	// provider.
	Providers []model.Provider
	Logger    log.Logger
}

func (c *Config) defaults() error {
	if c.Gatherer == nil {
		return errors.New("gatherer is required")
	}
	if c.Providers == nil {
		c.Providers = model.Providers()
	}
	if c.Logger == nil {
		c.Logger = log.Dummy
	}
	return nil
}

type controller struct {
	cfg    Config
	logger log.Logger
}

// NewController returns a new controller.
func NewController(cfg Config) (Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, err
	}

	return &controller{
		cfg:    cfg,
		logger: cfg.Logger,
	}, nil
}

func (c *controller) QueryStats(ctx context.Context, q Query) (*Report, error) {
	target, err := model.ParseTarget(q.Target)
	if err != nil {
		return nil, invalidTarget(q.Target)
	}

	var provider *model.Provider
	if q.Provider != nil {
		p, err := model.ParseProvider(*q.Provider)
		if err != nil {
			return nil, invalidProvider(*q.Provider)
		}
		provider = &p
	}

	cat, err := c.cfg.Gatherer.GatherSchemas(ctx, provider)
	if err != nil {
		return nil, fetchFailed(KindSchemaFetchFailed, err)
	}

	filter, err := stats.BuildFilter(ctx, stats.FilterRequest{
		Target:   target,
		Names:    q.Names,
		Provider: provider,
	}, c.cfg.Resolver, c.cfg.Providers)
	if err != nil {
		return nil, fetchFailed(KindStatsFetchFailed, err)
	}

	rss, err := c.cfg.Gatherer.GatherStats(ctx, filter)
	if err != nil {
		return nil, fetchFailed(KindStatsFetchFailed, err)
	}
	c.logger.Debugf("%d result sets for %s target", len(rss), target)

	return &Report{
		Target:       target,
		Catalog:      cat,
		Results:      rss,
		ShowProvider: provider == nil,
	}, nil
}
