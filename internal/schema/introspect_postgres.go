package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
)

// PgIntrospector implements Introspector for PostgreSQL using
// information_schema and pg_catalog. Observed types and keys are reported
// in MySQL vocabulary (varchar(255), decimal(10,8), PRI, PRIMARY,
// auto_increment) so one catalog serves both engines.
type PgIntrospector struct {
	db     database.DB
	schema string
}

// NewPgIntrospector creates a new Postgres schema introspector scoped to
// schema ("public" when empty).
func NewPgIntrospector(db database.DB, schema string) *PgIntrospector {
	if schema == "" {
		schema = "public"
	}
	return &PgIntrospector{db: db, schema: schema}
}

// Ping verifies the connection.
func (p *PgIntrospector) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// TableExists checks whether a specific table exists
func (p *PgIntrospector) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`

	var exists bool
	if err := p.db.QueryRow(ctx, q, p.schema, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("table exists check: %w", err)
	}
	return exists, nil
}

// Columns returns column details for a single table
func (p *PgIntrospector) Columns(ctx context.Context, table string) ([]ObservedColumn, error) {
	const q = `
		SELECT
			c.column_name::text,
			c.data_type::text,
			c.udt_name::text,
			c.character_maximum_length::int,
			c.numeric_precision::int,
			c.numeric_scale::int,
			c.is_nullable = 'YES'          AS is_nullable,
			COALESCE(pk.is_pk, false)      AS is_primary_key,
			c.column_default::text,
			c.is_identity = 'YES'          AS is_identity
		FROM information_schema.columns c

		LEFT JOIN (
			SELECT kcu.column_name, true AS is_pk
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
			  AND tc.table_schema = $1
			  AND tc.table_name   = $2
		) pk ON pk.column_name = c.column_name

		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	rows, err := p.db.Query(ctx, q, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("inspect columns %s.%s: %w", p.schema, table, err)
	}
	defer rows.Close()

	var cols []ObservedColumn
	for rows.Next() {
		var (
			col                      ObservedColumn
			dataType, udt            string
			maxLen, precision, scale *int32
			isPK, isIdentity         bool
		)
		if err := rows.Scan(
			&col.Name,
			&dataType,
			&udt,
			&maxLen,
			&precision,
			&scale,
			&col.Nullable,
			&isPK,
			&col.Default,
			&isIdentity,
		); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		col.Type = pgTypeString(dataType, udt, maxLen, precision, scale)
		if isPK {
			col.Key = "PRI"
		}
		if isIdentity || (col.Default != nil && strings.HasPrefix(*col.Default, "nextval(")) {
			col.Extra = ExtraAutoIncrement
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect columns %s.%s: %w", p.schema, table, err)
	}
	return cols, nil
}

// Indexes reads pg_index. The primary key index is reported as PRIMARY.
func (p *PgIntrospector) Indexes(ctx context.Context, table string) ([]ObservedIndex, error) {
	const q = `
		SELECT
			CASE WHEN ix.indisprimary THEN 'PRIMARY' ELSE i.relname::text END,
			COALESCE(a.attname::text, pg_get_indexdef(ix.indexrelid, k.ord::int, true)),
			k.ord::int,
			ix.indisunique
		FROM pg_index ix
		JOIN pg_class t      ON t.oid = ix.indrelid
		JOIN pg_namespace n  ON n.oid = t.relnamespace
		JOIN pg_class i      ON i.oid = ix.indexrelid
		JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		LEFT JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND t.relname = $2
		ORDER BY i.relname, k.ord`

	rows, err := p.db.Query(ctx, q, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("list indexes %s.%s: %w", p.schema, table, err)
	}
	defer rows.Close()

	var idxRows []IndexRow
	for rows.Next() {
		var r IndexRow
		var unique bool
		if err := rows.Scan(&r.KeyName, &r.Column, &r.Seq, &unique); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		r.NonUnique = !unique
		idxRows = append(idxRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list indexes %s.%s: %w", p.schema, table, err)
	}
	return GroupIndexRows(idxRows), nil
}

// ForeignKeys returns the table's outgoing FK relationships.
func (p *PgIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
		SELECT
			tc.constraint_name::text,
			kcu.column_name::text,
			ccu.table_name::text,
			ccu.column_name::text
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name   = $2
		ORDER BY tc.constraint_name`

	rows, err := p.db.Query(ctx, q, p.schema, table)
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

// pgTypeString renders a Postgres column type the way MySQL would print it,
// so substring matching against catalog type families keeps working.
func pgTypeString(dataType, udt string, maxLen, precision, scale *int32) string {
	switch udt {
	case "varchar", "bpchar":
		name := "varchar"
		if udt == "bpchar" {
			name = "char"
		}
		if maxLen != nil {
			return fmt.Sprintf("%s(%d)", name, *maxLen)
		}
		return name
	case "numeric":
		if precision != nil && scale != nil {
			return fmt.Sprintf("decimal(%d,%d)", *precision, *scale)
		}
		return "decimal"
	case "int2":
		return "smallint"
	case "int4":
		return "int"
	case "int8":
		return "bigint"
	case "timestamptz":
		return "timestamp with time zone"
	}
	if dataType == "USER-DEFINED" {
		return fmt.Sprintf("enum(%s)", udt)
	}
	return udt
}
