package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

// fakeIntrospector serves a fixed observed schema from memory.
type fakeIntrospector struct {
	pingErr error
	tables  map[string]fakeTable
	calls   []string
}

type fakeTable struct {
	columns   []ObservedColumn
	indexes   []ObservedIndex
	fks       []ForeignKey
	existsErr error
	colErr    error
	idxErr    error
	fkErr     error
}

func (f *fakeIntrospector) Ping(ctx context.Context) error {
	f.calls = append(f.calls, "ping")
	return f.pingErr
}

func (f *fakeIntrospector) TableExists(ctx context.Context, table string) (bool, error) {
	f.calls = append(f.calls, "exists:"+table)
	t, ok := f.tables[table]
	if ok && t.existsErr != nil {
		return false, t.existsErr
	}
	return ok, nil
}

func (f *fakeIntrospector) Columns(ctx context.Context, table string) ([]ObservedColumn, error) {
	f.calls = append(f.calls, "columns:"+table)
	t := f.tables[table]
	return t.columns, t.colErr
}

func (f *fakeIntrospector) Indexes(ctx context.Context, table string) ([]ObservedIndex, error) {
	f.calls = append(f.calls, "indexes:"+table)
	t := f.tables[table]
	return t.indexes, t.idxErr
}

func (f *fakeIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	f.calls = append(f.calls, "fks:"+table)
	t := f.tables[table]
	return t.fks, t.fkErr
}

// --- fixtures ---

func col(name, typ string) ObservedColumn {
	return ObservedColumn{Name: name, Type: typ}
}

func pk(name, typ string) ObservedColumn {
	return ObservedColumn{Name: name, Type: typ, Key: "PRI", Extra: ExtraAutoIncrement}
}

// fullAnalysisReports matches DefaultCatalog exactly.
func fullAnalysisReports() fakeTable {
	return fakeTable{
		columns: []ObservedColumn{
			pk("id", "int"),
			col("user_input", "text"),
			col("analysis_result", "json"),
			col("severity", "enum('low','medium','high','critical')"),
			col("category", "varchar(100)"),
			col("latitude", "decimal(10,8)"),
			col("longitude", "decimal(11,8)"),
			col("location_name", "varchar(255)"),
			col("confidence_score", "decimal(3,2)"),
			col("status", "enum('pending','in_progress','resolved')"),
			col("created_at", "timestamp"),
			col("updated_at", "timestamp"),
		},
		indexes: []ObservedIndex{
			{Name: "PRIMARY", Columns: []string{"id"}, Unique: true},
			{Name: "idx_severity", Columns: []string{"severity"}},
			{Name: "idx_category", Columns: []string{"category"}},
			{Name: "idx_created_at", Columns: []string{"created_at"}},
			{Name: "idx_location", Columns: []string{"latitude", "longitude"}},
		},
	}
}

func validate(t *testing.T, intro Introspector, catalog Catalog) *Result {
	t.Helper()
	res, err := NewValidator(intro, nil).Validate(context.Background(), catalog)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

// --- tests ---

func TestValidate_MatchingSchemaHasNoIssues(t *testing.T) {
	intro := &fakeIntrospector{tables: map[string]fakeTable{"analysis_reports": fullAnalysisReports()}}

	res := validate(t, intro, DefaultCatalog())

	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, res.OK())
	assert.Empty(t, res.Issues())

	tr, ok := res.Table("analysis_reports")
	require.True(t, ok)
	assert.True(t, tr.Exists)
	assert.Empty(t, tr.MissingColumns)
	assert.Empty(t, tr.MissingIndexes)
	assert.Empty(t, tr.ExtraColumns)
	assert.Empty(t, tr.ExtraIndexes)
	assert.Len(t, tr.Columns, 12)
}

func TestValidate_EmptyCatalog(t *testing.T) {
	res := validate(t, &fakeIntrospector{}, Catalog{})

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Empty(t, res.Issues())
	assert.Empty(t, res.Tables)
}

func TestValidate_MissingIndexIsAdvisory(t *testing.T) {
	catalog := Catalog{{
		Name:     "analysis_reports",
		Required: true,
		Columns:  []ColumnSpec{{Name: "id", Type: "int", Key: KeyPrimary, Extra: ExtraAutoIncrement}},
		Indexes:  []string{"idx_severity"},
	}}
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"analysis_reports": {
			columns: []ObservedColumn{pk("id", "int")},
			indexes: []ObservedIndex{{Name: "PRIMARY", Columns: []string{"id"}, Unique: true}},
		},
	}}

	res := validate(t, intro, catalog)

	tr, _ := res.Table("analysis_reports")
	assert.Equal(t, []string{"idx_severity"}, tr.MissingIndexes)
	assert.Equal(t, []string{"Index 'idx_severity' is missing from table 'analysis_reports'"}, res.Issues())
	assert.Equal(t, SeverityWarning, res.Findings[0].Severity)
	assert.Equal(t, StatusSuccess, res.Status)
}

func TestValidate_MissingRequiredTable(t *testing.T) {
	intro := &fakeIntrospector{tables: map[string]fakeTable{}}

	res := validate(t, intro, DefaultCatalog())

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, []string{"Table 'analysis_reports' is missing"}, res.Issues())

	tr, _ := res.Table("analysis_reports")
	assert.False(t, tr.Exists)
	assert.Empty(t, tr.Columns)
	assert.NotContains(t, intro.calls, "columns:analysis_reports")
}

func TestValidate_MissingOptionalTableIsInfo(t *testing.T) {
	catalog := Catalog{{Name: "audit_log", Columns: []ColumnSpec{{Name: "id", Type: "int"}}}}
	intro := &fakeIntrospector{tables: map[string]fakeTable{}}

	res := validate(t, intro, catalog)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Empty(t, res.Issues())
	require.Len(t, res.Findings, 1)
	assert.Equal(t, SeverityInfo, res.Findings[0].Severity)
}

func TestValidate_Columns(t *testing.T) {
	catalog := Catalog{{
		Name:     "analysis_reports",
		Required: true,
		Columns: []ColumnSpec{
			{Name: "id", Type: "int", Key: KeyPrimary},
			{Name: "severity", Type: "enum"},
			{Name: "category", Type: "varchar"},
			{Name: "notes", Type: "text"},
		},
	}}
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"analysis_reports": {
			columns: []ObservedColumn{
				pk("id", "int(11)"),
				col("severity", "varchar(20)"),
				col("legacy_flag", "tinyint(1)"),
			},
		},
	}}

	res := validate(t, intro, catalog)
	tr, _ := res.Table("analysis_reports")

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, []string{"severity"}, tr.TypeMismatches)
	assert.Equal(t, []string{"category", "notes"}, tr.MissingColumns, "type mismatch is not a missing column")
	assert.Equal(t, []string{"legacy_flag"}, tr.ExtraColumns)
	assert.Equal(t, []string{
		"Column 'analysis_reports.severity' type mismatch",
		"Column 'analysis_reports.category' is missing",
		"Column 'analysis_reports.notes' is missing",
	}, res.Issues())

	for _, f := range res.Findings {
		assert.Equal(t, SeverityError, f.Severity, f.Message)
	}
}

func TestValidate_ParsedCatalogDefaultsToRequired(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
tables:
  - name: analysis_reports
    columns:
      - {name: id, type: int}
      - {name: severity, type: enum}
  - name: users
    columns:
      - {name: id, type: int}
  - name: audit_log
    required: false
    columns:
      - {name: id, type: int}
`))
	require.NoError(t, err)
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"analysis_reports": {columns: []ObservedColumn{pk("id", "int(11)")}},
	}}

	res := validate(t, intro, catalog)

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, []string{
		"Column 'analysis_reports.severity' is missing",
		"Table 'users' is missing",
	}, res.Issues())
	audit, ok := res.Table("audit_log")
	require.True(t, ok)
	assert.False(t, audit.Exists)
}

func TestValidate_PrimarySatisfiedByKeyColumn(t *testing.T) {
	catalog := Catalog{{
		Name:    "t",
		Columns: []ColumnSpec{{Name: "id", Type: "int", Key: KeyPrimary}},
		Indexes: []string{"PRIMARY"},
	}}
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"t": {columns: []ObservedColumn{pk("id", "bigint")}},
	}}

	res := validate(t, intro, catalog)
	tr, _ := res.Table("t")
	assert.Empty(t, tr.MissingIndexes)
	assert.Empty(t, res.Issues())
}

func TestValidate_ExtraIndexesAreInformational(t *testing.T) {
	catalog := Catalog{{Name: "t", Columns: []ColumnSpec{{Name: "id", Type: "int"}}}}
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"t": {
			columns: []ObservedColumn{pk("id", "int")},
			indexes: []ObservedIndex{
				{Name: "PRIMARY", Columns: []string{"id"}, Unique: true},
				{Name: "idx_extra", Columns: []string{"id"}},
			},
		},
	}}

	res := validate(t, intro, catalog)
	tr, _ := res.Table("t")
	assert.Equal(t, []string{"idx_extra"}, tr.ExtraIndexes)
	assert.Empty(t, res.Issues())
	assert.Equal(t, StatusSuccess, res.Status)
}

func TestValidate_QueryErrorBecomesFinding(t *testing.T) {
	catalog := Catalog{
		{Name: "a", Required: true, Columns: []ColumnSpec{{Name: "id", Type: "int"}}, Indexes: []string{"idx_a"}},
		{Name: "b", Required: true, Columns: []ColumnSpec{{Name: "id", Type: "int"}}},
	}
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"a": {colErr: errs.New(errs.ErrKindPermissionDenied, "SHOW command denied")},
		"b": {columns: []ObservedColumn{pk("id", "int")}},
	}}

	res := validate(t, intro, catalog)

	assert.Equal(t, StatusError, res.Status)
	require.Len(t, res.Tables, 2)
	assert.True(t, res.Tables[1].Exists, "validation continues after a failed check")
	assert.Contains(t, res.Issues()[0], "Error reading columns of table 'a'")
	assert.Contains(t, res.Issues()[0], "SHOW command denied")
	assert.Empty(t, res.Tables[0].MissingColumns)
	assert.Equal(t, []string{"idx_a"}, res.Tables[0].MissingIndexes)
}

func TestValidate_ExistenceErrorSkipsTable(t *testing.T) {
	catalog := Catalog{{Name: "a", Required: true, Columns: []ColumnSpec{{Name: "id", Type: "int"}}}}
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"a": {existsErr: errors.New("lost connection")},
	}}

	res := validate(t, intro, catalog)

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, []string{"Error checking table 'a': lost connection"}, res.Issues())
	assert.NotContains(t, intro.calls, "columns:a")
}

func TestValidate_PingFailure(t *testing.T) {
	intro := &fakeIntrospector{pingErr: errs.New(errs.ErrKindTimeout, "dial tcp: i/o timeout")}

	res, err := NewValidator(intro, nil).Validate(context.Background(), DefaultCatalog())

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Equal(t, []string{"ping"}, intro.calls)
}

func TestValidate_InvalidCatalog(t *testing.T) {
	intro := &fakeIntrospector{}
	_, err := NewValidator(intro, nil).Validate(context.Background(), Catalog{{Name: ""}})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Empty(t, intro.calls)
}

func TestValidate_VisitsTablesInCatalogOrder(t *testing.T) {
	catalog := Catalog{
		{Name: "zeta", Columns: []ColumnSpec{{Name: "id", Type: "int"}}},
		{Name: "alpha", Columns: []ColumnSpec{{Name: "id", Type: "int"}}},
	}
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"zeta":  {columns: []ObservedColumn{pk("id", "int")}},
		"alpha": {columns: []ObservedColumn{pk("id", "int")}},
	}}

	res := validate(t, intro, catalog)

	assert.Equal(t, "zeta", res.Tables[0].Name)
	assert.Equal(t, "alpha", res.Tables[1].Name)
	assert.Equal(t, []string{
		"ping",
		"exists:zeta", "columns:zeta", "indexes:zeta", "fks:zeta",
		"exists:alpha", "columns:alpha", "indexes:alpha", "fks:alpha",
	}, intro.calls)
}

func TestValidate_Idempotent(t *testing.T) {
	table := fullAnalysisReports()
	table.indexes = table.indexes[:2]
	intro := &fakeIntrospector{tables: map[string]fakeTable{"analysis_reports": table}}
	v := NewValidator(intro, nil)

	first, err := v.Validate(context.Background(), DefaultCatalog())
	require.NoError(t, err)
	second, err := v.Validate(context.Background(), DefaultCatalog())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Issues(), 3)
}

func TestValidate_AttributeNotesAreInfo(t *testing.T) {
	catalog := Catalog{{
		Name:    "t",
		Columns: []ColumnSpec{{Name: "id", Type: "int", Key: KeyPrimary, Extra: ExtraAutoIncrement}},
	}}
	intro := &fakeIntrospector{tables: map[string]fakeTable{
		"t": {columns: []ObservedColumn{col("id", "int")}},
	}}

	res := validate(t, intro, catalog)

	assert.Empty(t, res.Issues())
	assert.Len(t, res.Findings, 2)
	assert.Equal(t, StatusSuccess, res.Status)
}

func TestTypeMatches(t *testing.T) {
	tests := []struct {
		observed, family string
		want             bool
	}{
		{"varchar(255)", "varchar", true},
		{"INT UNSIGNED", "int", true},
		{"decimal(10,8)", "DECIMAL", true},
		{"bigint", "int", true},
		{"text", "varchar", false},
		{"anything", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.observed+"/"+tt.family, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeMatches(tt.observed, tt.family))
		})
	}
}
