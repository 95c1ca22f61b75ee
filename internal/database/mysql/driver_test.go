package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

func newMock(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return Wrap(db, "urbanpulse"), mock
}

func TestDriver_Exec(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec("INSERT INTO `analysis_reports`").
		WithArgs("test").
		WillReturnResult(sqlmock.NewResult(42, 1))

	res, err := d.Exec(context.Background(), "INSERT INTO `analysis_reports` (user_input) VALUES (?)", "test")
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.LastInsertID)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Equal(t, database.DialectMySQL, d.Dialect())
	assert.Equal(t, "urbanpulse", d.SchemaName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_QueryRowNotFound(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var id int64
	err := d.QueryRow(context.Background(), "SELECT id FROM t WHERE id = ?", 1).Scan(&id)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestDriver_ServerVersion(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery(`SELECT VERSION\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"VERSION()"}).AddRow("8.0.36"))

	v, err := d.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.0.36", v)
}

func TestDriver_PingFailureIsConnectionError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"))

	err = Wrap(db, "").Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no rows", sql.ErrNoRows, errs.ErrKindNotFound},
		{"access denied", &gomysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindConnectionFailed},
		{"table access denied", &gomysql.MySQLError{Number: 1142, Message: "SHOW command denied"}, errs.ErrKindPermissionDenied},
		{"no such table", &gomysql.MySQLError{Number: 1146, Message: "doesn't exist"}, errs.ErrKindNotFound},
		{"syntax", &gomysql.MySQLError{Number: 1064, Message: "syntax"}, errs.ErrKindQueryFailed},
		{"invalid conn", gomysql.ErrInvalidConn, errs.ErrKindConnectionFailed},
		{"other", errors.New("boom"), errs.ErrKindQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.Nil(t, mapError(nil, "op"))
}

func TestBuildDSN(t *testing.T) {
	cfg := database.DefaultConfig(database.DriverMySQL)
	cfg.Host = "db.internal"
	cfg.User = "cisa"
	cfg.Password = "secret"
	cfg.Database = "urbanpulse"
	cfg.ConnectTimeout = 5 * time.Second

	dsn, err := buildDSN(cfg)
	require.NoError(t, err)
	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.internal:3306", parsed.Addr)
	assert.Equal(t, "urbanpulse", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, 5*time.Second, parsed.Timeout)

	cfg.DSN = "root:pw@tcp(127.0.0.1:3307)/cisa"
	dsn, err = buildDSN(cfg)
	require.NoError(t, err)
	parsed, err = gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3307", parsed.Addr)
	assert.True(t, parsed.ParseTime)

	_, err = buildDSN(&database.Config{})
	assert.True(t, errs.IsInvalidInput(err))
}
