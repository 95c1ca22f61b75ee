// Package smoke runs end-to-end smoke tests against the UrbanPulse
// database and HTTP endpoints.
package smoke

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/logger"
)

// CRUDOptions controls the test row. Zero values take the defaults.
type CRUDOptions struct {
	Table           string // analysis_reports
	Marker          string // written to user_input so stray rows are identifiable
	Severity        string // inserted severity, "low"
	UpdatedSeverity string // severity after the update step, "high"
	Status          string // omitted from the insert when empty
}

func (o *CRUDOptions) defaults() {
	if o.Table == "" {
		o.Table = "analysis_reports"
	}
	if o.Marker == "" {
		o.Marker = "pulsecheck smoke test"
	}
	if o.Severity == "" {
		o.Severity = "low"
	}
	if o.UpdatedSeverity == "" {
		o.UpdatedSeverity = "high"
	}
}

// Step is one stage of the CRUD round trip.
type Step struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Detail     string `json:"detail,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// CRUDReport is the outcome of CRUD.
type CRUDReport struct {
	Table string `json:"table"`
	RowID int64  `json:"row_id,omitempty"`
	OK    bool   `json:"ok"`
	Steps []Step `json:"steps"`
	Error string `json:"error,omitempty"`
}

// CRUD inserts a marked row, reads it back, updates and re-reads it, then
// deletes it and checks it is gone. It stops at the first failing step but
// always tries the delete once the row id is known.
func CRUD(ctx context.Context, db database.DB, opts CRUDOptions) CRUDReport {
	opts.defaults()
	r := &crudRun{
		db:   db,
		d:    db.Dialect(),
		opts: opts,
		log:  logger.FromContext(ctx).With().Str("check", "crud").Str("table", opts.Table).Logger(),
		rep:  CRUDReport{Table: opts.Table, Steps: []Step{}},
	}

	ok := r.step("insert", func() (string, error) { return r.insert(ctx) })
	if ok {
		ok = r.step("select", func() (string, error) { return r.expectRow(ctx, opts.Severity) }) &&
			r.step("update", func() (string, error) { return r.update(ctx) }) &&
			r.step("verify_update", func() (string, error) { return r.expectRow(ctx, opts.UpdatedSeverity) })
	}
	if r.rep.RowID != 0 {
		if r.step("delete", func() (string, error) { return r.delete(ctx) }) {
			r.step("verify_delete", func() (string, error) { return r.expectGone(ctx) })
		}
	}

	r.rep.OK = ok && r.rep.Error == ""
	return r.rep
}

type crudRun struct {
	db   database.DB
	d    database.Dialect
	opts CRUDOptions
	log  *logger.Logger
	rep  CRUDReport
}

func (r *crudRun) step(name string, fn func() (string, error)) bool {
	start := time.Now()
	detail, err := fn()
	s := Step{Name: name, OK: err == nil, Detail: detail, DurationMS: time.Since(start).Milliseconds()}
	if err != nil {
		s.Detail = errs.Message(err)
		if r.rep.Error == "" {
			r.rep.Error = name + ": " + s.Detail
		}
		r.log.Warnf("crud step %s failed: %s", name, s.Detail)
	} else {
		r.log.Debugf("crud step %s ok", name)
	}
	r.rep.Steps = append(r.rep.Steps, s)
	return err == nil
}

func (r *crudRun) table() string {
	return r.d.QuoteIdent(r.opts.Table)
}

func (r *crudRun) insert(ctx context.Context) (string, error) {
	cols := []string{
		"user_input", "analysis_result", "severity", "category",
		"latitude", "longitude", "location_name", "confidence_score",
	}
	args := []any{
		r.opts.Marker, `{"source":"pulsecheck"}`, r.opts.Severity, "smoke_test",
		0.0, 0.0, "pulsecheck", 0.5,
	}
	if r.opts.Status != "" {
		cols = append(cols, "status")
		args = append(args, r.opts.Status)
	}
	q := insertSQL(r.d, r.opts.Table, cols)

	if r.d == database.DialectPostgres {
		if err := r.db.QueryRow(ctx, q, args...).Scan(&r.rep.RowID); err != nil {
			return "", err
		}
	} else {
		res, err := r.db.Exec(ctx, q, args...)
		if err != nil {
			return "", err
		}
		r.rep.RowID = res.LastInsertID
	}
	if r.rep.RowID == 0 {
		return "", errs.New(errs.ErrKindQueryFailed, "insert returned no row id")
	}
	return fmt.Sprintf("inserted row %d", r.rep.RowID), nil
}

func (r *crudRun) selectRow(ctx context.Context) ([]map[string]any, error) {
	q, args, err := database.Select(r.opts.Table, r.d).
		Columns("id", "user_input", "severity").
		Where("id", "=", r.rep.RowID).
		Limit(1).
		Build()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return database.ScanRows(rows)
}

func (r *crudRun) expectRow(ctx context.Context, severity string) (string, error) {
	rows, err := r.selectRow(ctx)
	if err != nil {
		return "", err
	}
	if len(rows) != 1 {
		return "", errs.Newf(errs.ErrKindNotFound, "row %d not found", r.rep.RowID)
	}
	row := rows[0]
	if got := database.String(row["user_input"]); got != r.opts.Marker {
		return "", errs.Newf(errs.ErrKindQueryFailed, "user_input is %q, want %q", got, r.opts.Marker)
	}
	if got := database.String(row["severity"]); got != severity {
		return "", errs.Newf(errs.ErrKindQueryFailed, "severity is %q, want %q", got, severity)
	}
	return fmt.Sprintf("row %d has severity %s", r.rep.RowID, severity), nil
}

func (r *crudRun) update(ctx context.Context) (string, error) {
	q := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
		r.table(), r.d.QuoteIdent("severity"), r.d.Placeholder(1), r.d.QuoteIdent("id"), r.d.Placeholder(2))
	res, err := r.db.Exec(ctx, q, r.opts.UpdatedSeverity, r.rep.RowID)
	if err != nil {
		return "", err
	}
	if res.RowsAffected != 1 {
		return "", errs.Newf(errs.ErrKindQueryFailed, "update affected %d rows", res.RowsAffected)
	}
	return "severity set to " + r.opts.UpdatedSeverity, nil
}

func (r *crudRun) delete(ctx context.Context) (string, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", r.table(), r.d.QuoteIdent("id"), r.d.Placeholder(1))
	res, err := r.db.Exec(ctx, q, r.rep.RowID)
	if err != nil {
		return "", err
	}
	if res.RowsAffected != 1 {
		return "", errs.Newf(errs.ErrKindQueryFailed, "delete affected %d rows", res.RowsAffected)
	}
	return fmt.Sprintf("deleted row %d", r.rep.RowID), nil
}

func (r *crudRun) expectGone(ctx context.Context) (string, error) {
	rows, err := r.selectRow(ctx)
	if err != nil {
		return "", err
	}
	if len(rows) != 0 {
		return "", errs.Newf(errs.ErrKindQueryFailed, "row %d still present after delete", r.rep.RowID)
	}
	return "row gone", nil
}

// insertSQL builds the INSERT for cols. Postgres has no LastInsertId, so
// it returns the id instead.
func insertSQL(d database.Dialect, table string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdent(c)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), strings.Join(quoted, ", "), d.Placeholders(len(cols)))
	if d == database.DialectPostgres {
		q += " RETURNING " + d.QuoteIdent("id")
	}
	return q
}
