package stats

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/model"
)

// AllNames is the names filter that selects every statistic.
const AllNames = "*"

// FilterRequest is what an operator asks for.
type FilterRequest struct {
	Target model.Target
	// Names is a comma separated list of statistic names, nil or "*" means
	// all of them.
	Names *string
	// Provider restricts the query to a single provider, nil means all.
	Provider *model.Provider
}

// BuildFilter returns the request filter for a stats query. The resolver is
// only called for vcpu targets and providers is the enumeration used to
// expand a request for all the providers.
func BuildFilter(ctx context.Context, r FilterRequest, resolver UnitResolver, providers []model.Provider) (model.RequestFilter, error) {
	f := model.RequestFilter{Target: r.Target}

	switch r.Target {
	case model.TargetVM:
	case model.TargetVCPU:
		if resolver == nil {
			return model.RequestFilter{}, errors.New("a unit resolver is required for vcpu targets")
		}
		path, err := resolver.CurrentUnit(ctx)
		if err != nil {
			return model.RequestFilter{}, errors.Wrap(err, "could not resolve the current execution unit")
		}
		f.Units = []string{path}
	default:
		return model.RequestFilter{}, errors.Errorf("unknown target %q", r.Target)
	}

	if r.Names == nil && r.Provider == nil {
		return f, nil
	}

	// Asking by name but not by provider means one request per provider.
	f.Providers = []model.ProviderRequest{}
	for _, p := range providers {
		if r.Provider != nil && *r.Provider != p {
			continue
		}

		req := model.ProviderRequest{Provider: p}
		if r.Names != nil && *r.Names != AllNames {
			req.Names = SplitNames(*r.Names)
		}
		f.Providers = append(f.Providers, req)
	}

	return f, nil
}

// SplitNames splits a comma separated list of names. An empty string is a
// single empty name.
func SplitNames(names string) []string {
	return strings.Split(names, ",")
}
