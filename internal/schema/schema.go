// Package schema checks a live database against the expected UrbanPulse
// table definitions. Introspectors read the observed schema; the Validator
// diffs it against a Catalog and returns a Result. Rendering lives in
// package report.
package schema

import (
	"context"
	"sort"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

// Introspector reads the observed schema of one table at a time.
// Implementations must be read-only.
type Introspector interface {
	// Ping verifies the connection before any table is checked.
	Ping(ctx context.Context) error

	// TableExists reports whether table exists in the configured schema.
	TableExists(ctx context.Context, table string) (bool, error)

	// Columns returns the table's columns in ordinal order.
	Columns(ctx context.Context, table string) ([]ObservedColumn, error)

	// Indexes returns the table's indexes grouped by key name.
	Indexes(ctx context.Context, table string) ([]ObservedIndex, error)

	// ForeignKeys returns constraints on table that reference other tables.
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
}

// schemaNamer is implemented by drivers that know which schema they are
// connected to.
type schemaNamer interface {
	SchemaName() string
}

// NewIntrospector picks the introspector matching db's dialect.
func NewIntrospector(db database.DB) (Introspector, error) {
	var name string
	if n, ok := db.(schemaNamer); ok {
		name = n.SchemaName()
	}
	switch db.Dialect() {
	case database.DialectMySQL:
		return NewMySQLIntrospector(db, name), nil
	case database.DialectPostgres:
		return NewPgIntrospector(db, name), nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "no introspector for dialect %s", db.Dialect())
	}
}

// GroupIndexRows folds per-column index rows into one ObservedIndex per key
// name. Indexes keep first-seen order; columns are ordered by Seq.
func GroupIndexRows(rows []IndexRow) []ObservedIndex {
	type group struct {
		idx  ObservedIndex
		rows []IndexRow
	}
	var order []string
	groups := make(map[string]*group)

	for _, r := range rows {
		g, ok := groups[r.KeyName]
		if !ok {
			g = &group{idx: ObservedIndex{Name: r.KeyName, Unique: !r.NonUnique}}
			groups[r.KeyName] = g
			order = append(order, r.KeyName)
		}
		g.rows = append(g.rows, r)
	}

	out := make([]ObservedIndex, 0, len(order))
	for _, name := range order {
		g := groups[name]
		sort.SliceStable(g.rows, func(i, j int) bool { return g.rows[i].Seq < g.rows[j].Seq })
		for _, r := range g.rows {
			g.idx.Columns = append(g.idx.Columns, r.Column)
		}
		out = append(out, g.idx)
	}
	return out
}
