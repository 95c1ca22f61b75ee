package database

import (
	"fmt"
	"strconv"
	"time"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

// ScanRows reads all rows from the result set into maps keyed by column
// name. It is the way to read statements whose column set varies between
// server versions (SHOW INDEX grows columns across MySQL releases).
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows, so callers do not need to call Close().
func ScanRows(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return result, nil
}

// String converts a value produced by ScanRows into text. MySQL returns
// text columns as []byte; NULL becomes "".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// NullableString is String that keeps NULL distinguishable.
func NullableString(v any) *string {
	if v == nil {
		return nil
	}
	s := String(v)
	return &s
}

// Int converts a numeric value produced by ScanRows. Non-numeric values
// yield 0.
func Int(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case uint64:
		return int64(t)
	case []byte, string:
		n, _ := strconv.ParseInt(String(t), 10, 64)
		return n
	default:
		return 0
	}
}
