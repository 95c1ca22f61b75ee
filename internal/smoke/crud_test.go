package smoke

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database/mysql"
)

// SQLite accepts backtick identifiers and ? placeholders, so the MySQL
// driver wrapper can run the round trip against an in-memory database.
const createReports = `
CREATE TABLE analysis_reports (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	user_input       TEXT NOT NULL,
	analysis_result  TEXT NOT NULL,
	severity         TEXT NOT NULL %s,
	category         TEXT,
	latitude         REAL,
	longitude        REAL,
	location_name    TEXT,
	confidence_score REAL,
	status           TEXT DEFAULT 'pending',
	created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

func newSQLite(t *testing.T, severityConstraint string, create bool) (*mysql.Driver, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if create {
		_, err = db.Exec(strings.Replace(createReports, "%s", severityConstraint, 1))
		require.NoError(t, err)
	}
	return mysql.Wrap(db, ""), db
}

func stepNames(rep CRUDReport) []string {
	names := make([]string, len(rep.Steps))
	for i, s := range rep.Steps {
		names[i] = s.Name
	}
	return names
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM analysis_reports").Scan(&n))
	return n
}

func TestCRUD_RoundTrip(t *testing.T) {
	d, raw := newSQLite(t, "", true)

	rep := CRUD(context.Background(), d, CRUDOptions{Status: "pending"})

	assert.True(t, rep.OK, rep.Error)
	assert.Equal(t, "analysis_reports", rep.Table)
	assert.Equal(t, int64(1), rep.RowID)
	assert.Equal(t, []string{"insert", "select", "update", "verify_update", "delete", "verify_delete"}, stepNames(rep))
	for _, s := range rep.Steps {
		assert.True(t, s.OK, s.Name)
	}
	assert.Equal(t, "severity set to high", rep.Steps[2].Detail)
	assert.Equal(t, 0, countRows(t, raw), "test row is removed")
}

func TestCRUD_InsertFails(t *testing.T) {
	d, _ := newSQLite(t, "", false)

	rep := CRUD(context.Background(), d, CRUDOptions{})

	assert.False(t, rep.OK)
	assert.Equal(t, []string{"insert"}, stepNames(rep))
	assert.Zero(t, rep.RowID)
	assert.True(t, strings.HasPrefix(rep.Error, "insert: "))
}

func TestCRUD_CleansUpAfterFailure(t *testing.T) {
	d, raw := newSQLite(t, "CHECK (severity IN ('low', 'medium'))", true)

	rep := CRUD(context.Background(), d, CRUDOptions{})

	assert.False(t, rep.OK)
	assert.Equal(t, []string{"insert", "select", "update", "delete", "verify_delete"}, stepNames(rep))
	assert.False(t, rep.Steps[2].OK)
	assert.True(t, rep.Steps[3].OK, "cleanup delete still runs")
	assert.True(t, strings.HasPrefix(rep.Error, "update: "))
	assert.Equal(t, 0, countRows(t, raw))
}

func TestCRUD_CustomTableAndMarker(t *testing.T) {
	d, raw := newSQLite(t, "", true)
	_, err := raw.Exec("ALTER TABLE analysis_reports RENAME TO reports_copy")
	require.NoError(t, err)

	rep := CRUD(context.Background(), d, CRUDOptions{
		Table:           "reports_copy",
		Marker:          "nightly check",
		Severity:        "medium",
		UpdatedSeverity: "critical",
	})
	assert.True(t, rep.OK, rep.Error)
	assert.Equal(t, "row 1 has severity critical", rep.Steps[3].Detail)
}

func TestInsertSQL(t *testing.T) {
	cols := []string{"user_input", "severity"}

	assert.Equal(t,
		"INSERT INTO `analysis_reports` (`user_input`, `severity`) VALUES (?, ?)",
		insertSQL(database.DialectMySQL, "analysis_reports", cols))
	assert.Equal(t,
		`INSERT INTO "analysis_reports" ("user_input", "severity") VALUES ($1, $2) RETURNING "id"`,
		insertSQL(database.DialectPostgres, "analysis_reports", cols))
}
