package database

import (
	"testing"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBuilder_Build(t *testing.T) {
	tests := []struct {
		name     string
		builder  *SelectBuilder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "mysql select star",
			builder:  Select("analysis_reports", DialectMySQL),
			wantSQL:  "SELECT * FROM `analysis_reports`",
			wantArgs: nil,
		},
		{
			name: "mysql where limit",
			builder: Select("analysis_reports", DialectMySQL).
				Columns("id", "severity").
				Where("id", "=", int64(7)).
				Limit(1),
			wantSQL:  "SELECT `id`, `severity` FROM `analysis_reports` WHERE `id` = ? LIMIT ?",
			wantArgs: []any{int64(7), 1},
		},
		{
			name: "postgres order offset",
			builder: Select("analysis_reports", DialectPostgres).
				Columns("id").
				Where("severity", "=", "high").
				Where("category", "ilike", "road%").
				OrderBy("created_at", Desc).
				Limit(10).
				Offset(20),
			wantSQL:  `SELECT "id" FROM "analysis_reports" WHERE "severity" = $1 AND "category" ILIKE $2 ORDER BY "created_at" DESC LIMIT $3 OFFSET $4`,
			wantArgs: []any{"high", "road%", 10, 20},
		},
		{
			name:     "mysql ilike downgraded",
			builder:  Select("t", DialectMySQL).Where("c", "ILIKE", "x"),
			wantSQL:  "SELECT * FROM `t` WHERE `c` LIKE ?",
			wantArgs: []any{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.builder.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelectBuilder_RejectsOperator(t *testing.T) {
	_, _, err := Select("t", DialectMySQL).Where("id", "; DROP", 1).Build()
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))

	_, _, err = Select("", DialectMySQL).Build()
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDialect_QuoteIdent(t *testing.T) {
	assert.Equal(t, "`we``ird`", DialectMySQL.QuoteIdent("we`ird"))
	assert.Equal(t, `"we""ird"`, DialectPostgres.QuoteIdent(`we"ird`))
	assert.Equal(t, "?, ?, ?", DialectMySQL.Placeholders(3))
	assert.Equal(t, "$1, $2", DialectPostgres.Placeholders(2))
}

func TestParseDriver(t *testing.T) {
	d, err := ParseDriver("pgsql")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, d)
	assert.Equal(t, DialectPostgres, d.Dialect())

	d, err = ParseDriver("")
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, d)

	_, err = ParseDriver("oracle")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestValueConversions(t *testing.T) {
	assert.Equal(t, "varchar(255)", String([]byte("varchar(255)")))
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "42", String(int64(42)))
	assert.Nil(t, NullableString(nil))
	assert.Equal(t, "0", *NullableString([]byte("0")))
	assert.Equal(t, int64(3), Int([]byte("3")))
	assert.Equal(t, int64(1), Int(int64(1)))
	assert.Equal(t, int64(0), Int(3.5))
}
