package report

import (
	"embed"
	"html/template"
	"io"
	"slices"
	"strings"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/schema"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var htmlTemplates = template.Must(template.New("report").ParseFS(templateFS, "templates/*.tmpl"))

// Row status labels shared by the HTML and text renderers.
const (
	statusOK       = "ok"
	statusMissing  = "missing"
	statusMismatch = "mismatch"
	statusExtra    = "extra"
)

type htmlPage struct {
	Title    string
	Status   schema.Status
	Issues   []string
	Findings []schema.Finding
	Tables   []htmlTable
}

type htmlTable struct {
	Name        string
	Exists      bool
	Columns     []htmlColumn
	Indexes     []htmlIndex
	ForeignKeys []schema.ForeignKey
}

type htmlColumn struct {
	Name     string
	Type     string
	Nullable string
	Key      string
	Default  string
	Extra    string
	Status   string
}

type htmlIndex struct {
	Name    string
	Columns string
	Unique  string
	Status  string
}

// WriteHTML renders res as a standalone HTML page: per table a column
// table, an index table and foreign keys when present, then the findings.
// Missing columns and indexes appear as rows with status "missing".
func WriteHTML(w io.Writer, res *schema.Result) error {
	page := htmlPage{
		Title:    "UrbanPulse schema validation",
		Status:   res.Status,
		Issues:   res.Issues(),
		Findings: res.Findings,
	}
	for _, t := range res.Tables {
		page.Tables = append(page.Tables, buildTable(t))
	}
	return htmlTemplates.ExecuteTemplate(w, "schema", page)
}

func buildTable(t schema.TableResult) htmlTable {
	ht := htmlTable{Name: t.Name, Exists: t.Exists, ForeignKeys: t.ForeignKeys}

	for _, c := range t.Columns {
		def := "NULL"
		if c.Default != nil {
			def = *c.Default
		}
		ht.Columns = append(ht.Columns, htmlColumn{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: yesNo(c.Nullable),
			Key:      c.Key,
			Default:  def,
			Extra:    c.Extra,
			Status:   columnStatus(t, c.Name),
		})
	}
	for _, name := range t.MissingColumns {
		ht.Columns = append(ht.Columns, htmlColumn{Name: name, Status: statusMissing})
	}

	for _, idx := range t.Indexes {
		ht.Indexes = append(ht.Indexes, htmlIndex{
			Name:    idx.Name,
			Columns: strings.Join(idx.Columns, ", "),
			Unique:  yesNo(idx.Unique),
			Status:  indexStatus(t, idx.Name),
		})
	}
	for _, name := range t.MissingIndexes {
		ht.Indexes = append(ht.Indexes, htmlIndex{Name: name, Status: statusMissing})
	}
	return ht
}

func columnStatus(t schema.TableResult, name string) string {
	switch {
	case slices.Contains(t.TypeMismatches, name):
		return statusMismatch
	case slices.Contains(t.ExtraColumns, name):
		return statusExtra
	default:
		return statusOK
	}
}

func indexStatus(t schema.TableResult, name string) string {
	if slices.Contains(t.ExtraIndexes, name) {
		return statusExtra
	}
	return statusOK
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
