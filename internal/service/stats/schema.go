package stats

import (
	"github.com/slok/infostats/internal/model"
)

type schemaKey struct {
	provider model.Provider
	target   model.Target
}

// Catalog indexes schemas by provider and target.
type Catalog struct {
	schemas map[schemaKey]model.Schema
	order   []schemaKey
}

// NewCatalog returns a catalog with the given schemas. When more than one
// schema has the same provider and target the first one wins.
func NewCatalog(schemas ...model.Schema) *Catalog {
	c := &Catalog{schemas: make(map[schemaKey]model.Schema, len(schemas))}
	for _, s := range schemas {
		c.Add(s)
	}
	return c
}

// Add adds a schema to the catalog, it is ignored if the catalog already
// has one for the same provider and target.
func (c *Catalog) Add(s model.Schema) {
	k := schemaKey{provider: s.Provider, target: s.Target}
	if _, ok := c.schemas[k]; ok {
		return
	}
	c.schemas[k] = s
	c.order = append(c.order, k)
}

// Lookup returns the ordered schema entries of a provider for a target.
func (c *Catalog) Lookup(provider model.Provider, target model.Target) ([]model.SchemaEntry, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.schemas[schemaKey{provider: provider, target: target}]
	if !ok {
		return nil, false
	}
	return s.Entries, true
}

// Schemas returns the schemas in insertion order.
func (c *Catalog) Schemas() []model.Schema {
	if c == nil {
		return nil
	}
	ss := make([]model.Schema, 0, len(c.order))
	for _, k := range c.order {
		ss = append(ss, c.schemas[k])
	}
	return ss
}

// Len returns the number of schemas in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
