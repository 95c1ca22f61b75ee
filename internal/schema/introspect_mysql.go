package schema

import (
	"context"
	"fmt"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
)

// MySQLIntrospector implements Introspector for MySQL / MariaDB using
// SHOW statements and information_schema.
type MySQLIntrospector struct {
	db     database.DB
	schema string // empty means DATABASE()
}

// NewMySQLIntrospector creates a new MySQL schema introspector. schema is
// the database name; pass "" to use the connection's current database.
func NewMySQLIntrospector(db database.DB, schema string) *MySQLIntrospector {
	return &MySQLIntrospector{db: db, schema: schema}
}

// Ping verifies the connection.
func (m *MySQLIntrospector) Ping(ctx context.Context) error {
	return m.db.Ping(ctx)
}

// TableExists checks whether a specific table exists
func (m *MySQLIntrospector) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_name   = ?`

	var n int64
	if err := m.db.QueryRow(ctx, q, m.schema, table).Scan(&n); err != nil {
		return false, fmt.Errorf("table exists check: %w", err)
	}
	return n > 0, nil
}

// Columns runs SHOW FULL COLUMNS. Rows are read by column name because the
// statement's shape is the server's, not ours.
func (m *MySQLIntrospector) Columns(ctx context.Context, table string) ([]ObservedColumn, error) {
	rows, err := m.db.Query(ctx, "SHOW FULL COLUMNS FROM "+database.DialectMySQL.QuoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("show columns from %s: %w", table, err)
	}
	raw, err := database.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("show columns from %s: %w", table, err)
	}

	cols := make([]ObservedColumn, 0, len(raw))
	for _, r := range raw {
		cols = append(cols, ObservedColumn{
			Name:     database.String(r["Field"]),
			Type:     database.String(r["Type"]),
			Nullable: database.String(r["Null"]) == "YES",
			Key:      database.String(r["Key"]),
			Default:  database.NullableString(r["Default"]),
			Extra:    database.String(r["Extra"]),
		})
	}
	return cols, nil
}

// Indexes runs SHOW INDEX and groups its per-column rows by key name.
func (m *MySQLIntrospector) Indexes(ctx context.Context, table string) ([]ObservedIndex, error) {
	rows, err := m.db.Query(ctx, "SHOW INDEX FROM "+database.DialectMySQL.QuoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("show index from %s: %w", table, err)
	}
	raw, err := database.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("show index from %s: %w", table, err)
	}

	idxRows := make([]IndexRow, 0, len(raw))
	for _, r := range raw {
		column := database.String(r["Column_name"])
		if column == "" {
			// functional key part (MySQL 8.0.13+)
			column = database.String(r["Expression"])
		}
		idxRows = append(idxRows, IndexRow{
			KeyName:   database.String(r["Key_name"]),
			Column:    column,
			Seq:       int(database.Int(r["Seq_in_index"])),
			NonUnique: database.Int(r["Non_unique"]) != 0,
		})
	}
	return GroupIndexRows(idxRows), nil
}

// ForeignKeys returns the table's outgoing foreign keys from KEY_COLUMN_USAGE.
func (m *MySQLIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
		SELECT constraint_name,
		       column_name,
		       referenced_table_name,
		       referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_name   = ?
		  AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position`

	rows, err := m.db.Query(ctx, q, m.schema, table)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	return fks, nil
}
