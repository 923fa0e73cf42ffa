package stats

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/model"
)

// Errors returned when results can't be matched with their schema.
var (
	ErrSchemaNotFound  = errors.New("schema not found")
	ErrUnmatchedMetric = errors.New("unmatched metric")
)

// MatchError is the error of a result set that could not be (completely)
// matched with its schema.
type MatchError struct {
	// Kind is ErrSchemaNotFound or ErrUnmatchedMetric.
	Kind     error
	Provider model.Provider
	// Name is the unmatched result entry name, only for ErrUnmatchedMetric.
	Name string
}

func (e *MatchError) Error() string {
	if e.Kind == ErrSchemaNotFound {
		return fmt.Sprintf("failed to find schema list for %s", e.Provider)
	}
	return fmt.Sprintf("failed to find schema entry for %s", e.Name)
}

// Unwrap returns the error kind.
func (e *MatchError) Unwrap() error { return e.Kind }

// Cursor is a forward only position on an ordered list of schema entries.
// It never goes back.
type Cursor struct {
	entries []model.SchemaEntry
	pos     int
}

// NewCursor returns a cursor at the first entry.
func NewCursor(entries []model.SchemaEntry) *Cursor {
	return &Cursor{entries: entries}
}

// Pos returns the index of the next entry the cursor will look at.
func (c *Cursor) Pos() int { return c.pos }

// Seek advances until the entry with the name and leaves the cursor just
// after it. If there is no such entry from the current position the cursor
// ends exhausted and false is returned.
func (c *Cursor) Seek(name string) (model.SchemaEntry, bool) {
	for c.pos < len(c.entries) {
		e := c.entries[c.pos]
		c.pos++
		if e.Name == name {
			return e, true
		}
	}
	return model.SchemaEntry{}, false
}

// MatchFunc receives every result entry with its schema entry.
type MatchFunc func(schema model.SchemaEntry, result model.ResultEntry)

// MatchSchema walks the result entries and the schema entries together
// calling fn for each matched pair. Results must come in schema order, gaps
// are allowed. When an entry can't be found the walk stops and a
// *MatchError is returned; fn has been called for the previous entries.
func MatchSchema(schema []model.SchemaEntry, rs model.ResultSet, fn MatchFunc) error {
	cur := NewCursor(schema)
	for _, r := range rs.Entries {
		s, ok := cur.Seek(r.Name)
		if !ok {
			return &MatchError{Kind: ErrUnmatchedMetric, Provider: rs.Provider, Name: r.Name}
		}
		fn(s, r)
	}
	return nil
}

// Match looks up the schema of the result set for the target and matches
// them, see MatchSchema.
func Match(c *Catalog, target model.Target, rs model.ResultSet, fn MatchFunc) error {
	schema, ok := c.Lookup(rs.Provider, target)
	if !ok {
		return &MatchError{Kind: ErrSchemaNotFound, Provider: rs.Provider}
	}
	return MatchSchema(schema, rs, fn)
}
