// Package report renders schema validation results and combined check runs.
// Every renderer is a pure function of its input; nothing here touches the
// database.
package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/schema"
)

// OrderedMap is a JSON object whose keys keep insertion order. encoding/json
// sorts plain map keys, which would lose catalog order.
type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

// Set adds or replaces key. A new key goes to the end.
func (m *OrderedMap[V]) Set(key string, v V) {
	if m.vals == nil {
		m.vals = make(map[string]V)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

func (m OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TableSummary is the machine-readable view of one table.
type TableSummary struct {
	Exists         bool                              `json:"exists"`
	Columns        OrderedMap[schema.ObservedColumn] `json:"columns"`
	Indexes        OrderedMap[schema.ObservedIndex]  `json:"indexes"`
	ForeignKeys    []schema.ForeignKey               `json:"foreign_keys,omitempty"`
	MissingColumns []string                          `json:"missing_columns"`
	MissingIndexes []string                          `json:"missing_indexes"`
	ExtraColumns   []string                          `json:"extra_columns"`
}

// Summary is the machine-readable form of a validation result.
type Summary struct {
	Tables        OrderedMap[TableSummary] `json:"tables"`
	OverallStatus schema.Status            `json:"overall_status"`
	IssuesFound   []string                 `json:"issues_found"`
}

// Summarize converts res into a Summary. Tables keep catalog order.
func Summarize(res *schema.Result) Summary {
	s := Summary{
		OverallStatus: res.Status,
		IssuesFound:   res.Issues(),
	}
	for _, t := range res.Tables {
		ts := TableSummary{
			Exists:         t.Exists,
			ForeignKeys:    t.ForeignKeys,
			MissingColumns: nonNil(t.MissingColumns),
			MissingIndexes: nonNil(t.MissingIndexes),
			ExtraColumns:   nonNil(t.ExtraColumns),
		}
		for _, c := range t.Columns {
			ts.Columns.Set(c.Name, c)
		}
		for _, idx := range t.Indexes {
			ts.Indexes.Set(idx.Name, idx)
		}
		s.Tables.Set(t.Name, ts)
	}
	return s
}

// WriteJSON writes the indented Summary of res.
func WriteJSON(w io.Writer, res *schema.Result) error {
	return encodeJSON(w, Summarize(res))
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
