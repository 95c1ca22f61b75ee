package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/logger"
)

// Validator diffs a live database against a Catalog.
type Validator struct {
	intro Introspector
	log   *logger.Logger
}

// NewValidator returns a Validator reading through intro. A nil log
// discards output.
func NewValidator(intro Introspector, log *logger.Logger) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	return &Validator{intro: intro, log: log}
}

// Validate checks every table of catalog, in catalog order, and returns the
// combined result. The only returned errors are an invalid catalog and a
// failed initial Ping; every per-table query failure becomes an error
// finding and validation moves on.
func (v *Validator) Validate(ctx context.Context, catalog Catalog) (*Result, error) {
	if err := catalog.Check(); err != nil {
		return nil, err
	}
	if err := v.intro.Ping(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "database connection failed", err)
	}

	res := &Result{
		Tables:   make([]TableResult, 0, len(catalog)),
		Findings: make([]Finding, 0),
		Status:   StatusSuccess,
	}

	for _, exp := range catalog {
		tr, findings := v.checkTable(ctx, exp)
		res.Tables = append(res.Tables, tr)
		res.Findings = append(res.Findings, findings...)
	}

	for _, f := range res.Findings {
		if f.Severity == SeverityError {
			res.Status = StatusError
			break
		}
	}

	v.log.InfoWith("schema validation finished", map[string]interface{}{
		"tables": len(res.Tables),
		"issues": len(res.Issues()),
		"status": string(res.Status),
	})
	return res, nil
}

// findings accumulates the findings of one table in discovery order.
type findings struct {
	table string
	list  []Finding
	log   *logger.Logger
}

func (f *findings) add(sev Severity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	f.list = append(f.list, Finding{Severity: sev, Table: f.table, Message: msg})

	switch sev {
	case SeverityError:
		f.log.Error(msg)
	case SeverityWarning:
		f.log.Warn(msg)
	default:
		f.log.Info(msg)
	}
}

// checkTable runs existence, column, index and foreign key checks for one
// table. Nothing is shared between tables.
func (v *Validator) checkTable(ctx context.Context, exp ExpectedSchema) (TableResult, []Finding) {
	log := v.log.With().Str("table", exp.Name).Bool("required", exp.Required).Logger()
	log.Debug("checking table")

	tr := TableResult{
		Name:           exp.Name,
		Columns:        []ObservedColumn{},
		Indexes:        []ObservedIndex{},
		ForeignKeys:    []ForeignKey{},
		MissingColumns: []string{},
		MissingIndexes: []string{},
		ExtraColumns:   []string{},
		ExtraIndexes:   []string{},
		TypeMismatches: []string{},
	}
	fs := &findings{table: exp.Name, log: log}

	// 1. existence
	exists, err := v.intro.TableExists(ctx, exp.Name)
	if err != nil {
		fs.add(SeverityError, "Error checking table '%s': %s", exp.Name, errs.Message(err))
		return tr, fs.list
	}
	if !exists {
		if exp.Required {
			fs.add(SeverityError, "Table '%s' is missing", exp.Name)
		} else {
			fs.add(SeverityInfo, "Optional table '%s' is not present", exp.Name)
		}
		return tr, fs.list
	}
	tr.Exists = true

	// 2-3. columns
	cols, err := v.intro.Columns(ctx, exp.Name)
	if err != nil {
		fs.add(SeverityError, "Error reading columns of table '%s': %s", exp.Name, errs.Message(err))
	} else {
		tr.Columns = cols
		checkColumns(exp, &tr, fs)
	}

	// 4-5. indexes
	idx, err := v.intro.Indexes(ctx, exp.Name)
	if err != nil {
		fs.add(SeverityError, "Error reading indexes of table '%s': %s", exp.Name, errs.Message(err))
	} else {
		tr.Indexes = idx
		checkIndexes(exp, &tr, fs)
	}

	// 6. foreign keys, informational
	fks, err := v.intro.ForeignKeys(ctx, exp.Name)
	if err != nil {
		fs.add(SeverityError, "Error reading foreign keys of table '%s': %s", exp.Name, errs.Message(err))
	} else if len(fks) > 0 {
		tr.ForeignKeys = fks
	}

	return tr, fs.list
}

func checkColumns(exp ExpectedSchema, tr *TableResult, fs *findings) {
	observed := make(map[string]bool, len(tr.Columns))

	for _, col := range tr.Columns {
		observed[col.Name] = true

		spec, ok := exp.Column(col.Name)
		if !ok {
			tr.ExtraColumns = append(tr.ExtraColumns, col.Name)
			continue
		}
		if !TypeMatches(col.Type, spec.Type) {
			tr.TypeMismatches = append(tr.TypeMismatches, col.Name)
			fs.add(SeverityError, "Column '%s.%s' type mismatch", exp.Name, col.Name)
			// key and extra notes are skipped for a column of the wrong type
			continue
		}
		if spec.Key == KeyPrimary && !col.IsPrimary() {
			fs.add(SeverityInfo, "Column '%s.%s' is not part of the primary key", exp.Name, col.Name)
		}
		if spec.Extra != "" && !strings.Contains(strings.ToLower(col.Extra), strings.ToLower(spec.Extra)) {
			fs.add(SeverityInfo, "Column '%s.%s' lacks %s", exp.Name, col.Name, spec.Extra)
		}
	}

	for _, spec := range exp.Columns {
		if observed[spec.Name] {
			continue
		}
		tr.MissingColumns = append(tr.MissingColumns, spec.Name)
		fs.add(SeverityError, "Column '%s.%s' is missing", exp.Name, spec.Name)
	}
}

func checkIndexes(exp ExpectedSchema, tr *TableResult, fs *findings) {
	observed := make(map[string]bool, len(tr.Indexes))
	for _, idx := range tr.Indexes {
		observed[idx.Name] = true
		if !exp.ExpectsIndex(idx.Name) {
			tr.ExtraIndexes = append(tr.ExtraIndexes, idx.Name)
		}
	}

	hasPrimary := observed[PrimaryIndex]
	for _, col := range tr.Columns {
		if col.IsPrimary() {
			hasPrimary = true
			break
		}
	}

	for _, name := range exp.Indexes {
		if observed[name] || (name == PrimaryIndex && hasPrimary) {
			continue
		}
		tr.MissingIndexes = append(tr.MissingIndexes, name)
		fs.add(SeverityWarning, "Index '%s' is missing from table '%s'", name, exp.Name)
	}
}

// TypeMatches reports whether an observed SQL type belongs to an expected
// type family: a case-insensitive substring test, so "varchar(255)"
// matches "varchar" and "int unsigned" matches "int".
func TypeMatches(observed, family string) bool {
	if family == "" {
		return true
	}
	return strings.Contains(strings.ToLower(observed), strings.ToLower(family))
}
