package schema

import "go.yaml.in/yaml/v3"

// KeyRole is the key role a column is expected to play.
type KeyRole string

const (
	KeyNone    KeyRole = ""
	KeyPrimary KeyRole = "PRIMARY"
)

// ExtraAutoIncrement is the only extra attribute the catalog declares.
const ExtraAutoIncrement = "auto_increment"

// PrimaryIndex is the key name MySQL gives the primary key. The Postgres
// introspector reports its *_pkey index under the same name.
const PrimaryIndex = "PRIMARY"

// ColumnSpec is one expected column.
type ColumnSpec struct {
	Name  string  `yaml:"name"`
	Type  string  `yaml:"type"` // type family: int, varchar, decimal, json, text, enum, timestamp
	Key   KeyRole `yaml:"key,omitempty"`
	Extra string  `yaml:"extra,omitempty"`
}

// ExpectedSchema is the reference definition of one table. Every declared
// column must exist; only the table itself can be optional.
type ExpectedSchema struct {
	Name     string       `yaml:"name"`
	Required bool         `yaml:"required"`
	Columns  []ColumnSpec `yaml:"columns"`
	Indexes  []string     `yaml:"indexes"` // PRIMARY is implied and may be omitted
}

// UnmarshalYAML treats a table as required unless it says required: false.
func (e *ExpectedSchema) UnmarshalYAML(value *yaml.Node) error {
	type plain ExpectedSchema
	out := plain{Required: true}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*e = ExpectedSchema(out)
	return nil
}

// Column returns the expected column called name.
func (e ExpectedSchema) Column(name string) (ColumnSpec, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// ExpectsIndex reports whether name is an expected index. PRIMARY always is.
func (e ExpectedSchema) ExpectsIndex(name string) bool {
	if name == PrimaryIndex {
		return true
	}
	for _, idx := range e.Indexes {
		if idx == name {
			return true
		}
	}
	return false
}

// ObservedColumn is one row of SHOW FULL COLUMNS (or its Postgres equivalent).
type ObservedColumn struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Key      string  `json:"key"`
	Default  *string `json:"default"`
	Extra    string  `json:"extra"`
}

// IsPrimary reports whether the column is part of the primary key.
func (c ObservedColumn) IsPrimary() bool {
	return c.Key == "PRI"
}

// ObservedIndex is one index, with its columns in sequence order.
type ObservedIndex struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// IndexRow is one row of SHOW INDEX: a single column of a single index.
type IndexRow struct {
	KeyName   string
	Column    string
	Seq       int
	NonUnique bool
}

// ForeignKey describes a constraint on the table referencing another table.
type ForeignKey struct {
	Name      string `json:"name"`
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// Severity grades a Finding.
type Severity string

const (
	SeverityError   Severity = "error"   // flips the run to error
	SeverityWarning Severity = "warning" // advisory
	SeverityInfo    Severity = "info"    // not an issue
)

// Finding is one discrepancy (or note) discovered during validation.
type Finding struct {
	Severity Severity `json:"severity"`
	Table    string   `json:"table"`
	Message  string   `json:"message"`
}

// Status is the aggregate outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// TableResult is the observed state of one expected table.
type TableResult struct {
	Name           string           `json:"name"`
	Exists         bool             `json:"exists"`
	Columns        []ObservedColumn `json:"columns"`
	Indexes        []ObservedIndex  `json:"indexes"`
	ForeignKeys    []ForeignKey     `json:"foreign_keys"`
	MissingColumns []string         `json:"missing_columns"`
	MissingIndexes []string         `json:"missing_indexes"`
	ExtraColumns   []string         `json:"extra_columns"`
	ExtraIndexes   []string         `json:"extra_indexes"`
	TypeMismatches []string         `json:"type_mismatches"`
}

// Result is the outcome of one Validate call.
type Result struct {
	Tables   []TableResult `json:"tables"`
	Findings []Finding     `json:"findings"`
	Status   Status        `json:"overall_status"`
}

// Issues returns the error and warning messages in discovery order.
func (r *Result) Issues() []string {
	issues := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		if f.Severity == SeverityInfo {
			continue
		}
		issues = append(issues, f.Message)
	}
	return issues
}

// OK reports whether the run succeeded.
func (r *Result) OK() bool {
	return r.Status == StatusSuccess
}

// Table returns the result for name.
func (r *Result) Table(name string) (TableResult, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableResult{}, false
}
