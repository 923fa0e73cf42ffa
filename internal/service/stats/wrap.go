package stats

import (
	"github.com/slok/infostats/internal/service/log"
)

// Decorate wraps a source gatherer with the decorators enabled in cfg. Every
// attempt is recorded on metrics when it is not nil, then timeouts and
// retries are applied and the schema cache goes last.
func Decorate(g Gatherer, source string, cfg GatherConfig, metrics *GathererMetrics, logger log.Logger) Gatherer {
	if metrics != nil {
		g = NewInstrumentedGatherer(g, source, metrics)
	}

	if !cfg.Enabled {
		return g
	}
	cfg.defaults()

	retries := 1
	if cfg.EnableRetry {
		retries = cfg.MaxRetries
	}
	if retries > 1 || cfg.QueryTimeout > 0 {
		g = NewTimeoutGatherer(g, cfg.QueryTimeout, retries, logger)
	}

	if cfg.CacheSchemas {
		g = NewCachedGatherer(g, cfg.CacheTTL)
	}

	return g
}

// DecorateResolver wraps a source unit resolver like Decorate wraps its
// gatherer. Resolutions are never cached.
func DecorateResolver(r UnitResolver, source string, cfg GatherConfig, metrics *GathererMetrics, logger log.Logger) UnitResolver {
	if metrics != nil {
		r = NewInstrumentedResolver(r, source, metrics)
	}

	if !cfg.Enabled {
		return r
	}
	cfg.defaults()

	retries := 1
	if cfg.EnableRetry {
		retries = cfg.MaxRetries
	}
	if retries > 1 || cfg.QueryTimeout > 0 {
		r = NewTimeoutResolver(r, cfg.QueryTimeout, retries, logger)
	}

	return r
}
