package database

import (
	"errors"
	"testing"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	cols   []string
	data   [][]any
	pos    int
	closed bool
	err    error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		*(d.(*any)) = row[i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Close()                     { r.closed = true }
func (r *fakeRows) Err() error                 { return r.err }

func TestScanRows(t *testing.T) {
	rows := &fakeRows{
		cols: []string{"Key_name", "Column_name", "Non_unique"},
		data: [][]any{
			{[]byte("PRIMARY"), []byte("id"), int64(0)},
			{[]byte("idx_severity"), []byte("severity"), int64(1)},
		},
	}

	got, err := ScanRows(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, rows.closed)
	assert.Equal(t, "idx_severity", String(got[1]["Key_name"]))
	assert.Equal(t, int64(0), Int(got[0]["Non_unique"]))
}

func TestScanRows_EmptyIsNonNil(t *testing.T) {
	got, err := ScanRows(&fakeRows{cols: []string{"a"}})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestScanRows_IterationError(t *testing.T) {
	_, err := ScanRows(&fakeRows{cols: []string{"a"}, err: errors.New("conn reset")})
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
}
