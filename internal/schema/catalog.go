package schema

import (
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

// Catalog is the ordered list of expected tables. Validation visits tables
// in this order.
type Catalog []ExpectedSchema

// Check rejects empty or duplicate table names and malformed columns. An
// empty catalog is valid and validates clean.
func (c Catalog) Check() error {
	seen := make(map[string]bool, len(c))
	for i, t := range c {
		if t.Name == "" {
			return errs.Newf(errs.ErrKindInvalidInput, "catalog entry %d has no table name", i)
		}
		if seen[t.Name] {
			return errs.Newf(errs.ErrKindInvalidInput, "table %q declared twice", t.Name)
		}
		seen[t.Name] = true

		cols := make(map[string]bool, len(t.Columns))
		for _, col := range t.Columns {
			if col.Name == "" || col.Type == "" {
				return errs.Newf(errs.ErrKindInvalidInput, "table %q has a column without name or type", t.Name)
			}
			if cols[col.Name] {
				return errs.Newf(errs.ErrKindInvalidInput, "column %q declared twice in table %q", col.Name, t.Name)
			}
			cols[col.Name] = true
		}
	}
	return nil
}

// Names returns the table names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name
	}
	return names
}

// Lookup returns the expectation for table.
func (c Catalog) Lookup(table string) (ExpectedSchema, bool) {
	for _, t := range c {
		if t.Name == table {
			return t, true
		}
	}
	return ExpectedSchema{}, false
}

type catalogFile struct {
	Tables Catalog `yaml:"tables"`
}

// LoadCatalog reads a YAML catalog:
//
//	tables:
//	  - name: analysis_reports
//	    required: true
//	    columns:
//	      - {name: id, type: int, key: PRIMARY, extra: auto_increment}
//	    indexes: [idx_severity]
func LoadCatalog(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "catalog file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read catalog file", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog parses YAML catalog bytes and checks the result.
func ParseCatalog(b []byte) (Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse catalog", err)
	}
	if err := f.Tables.Check(); err != nil {
		return nil, err
	}
	return f.Tables, nil
}

// DefaultCatalog is the schema the UrbanPulse application expects.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Name:     "analysis_reports",
			Required: true,
			Columns: []ColumnSpec{
				{Name: "id", Type: "int", Key: KeyPrimary, Extra: ExtraAutoIncrement},
				{Name: "user_input", Type: "text"},
				{Name: "analysis_result", Type: "json"},
				{Name: "severity", Type: "enum"},
				{Name: "category", Type: "varchar"},
				{Name: "latitude", Type: "decimal"},
				{Name: "longitude", Type: "decimal"},
				{Name: "location_name", Type: "varchar"},
				{Name: "confidence_score", Type: "decimal"},
				{Name: "status", Type: "enum"},
				{Name: "created_at", Type: "timestamp"},
				{Name: "updated_at", Type: "timestamp"},
			},
			Indexes: []string{"idx_severity", "idx_category", "idx_created_at", "idx_location"},
		},
	}
}
