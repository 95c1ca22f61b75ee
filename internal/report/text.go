package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/schema"
)

// WriteText renders res for a terminal.
func WriteText(w io.Writer, res *schema.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, t := range res.Tables {
		if !t.Exists {
			fmt.Fprintf(tw, "table %s: not found\n\n", t.Name)
			continue
		}
		fmt.Fprintf(tw, "table %s\n", t.Name)

		fmt.Fprintln(tw, "  COLUMN\tTYPE\tNULL\tKEY\tEXTRA\tSTATUS")
		for _, c := range t.Columns {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				c.Name, c.Type, yesNo(c.Nullable), c.Key, c.Extra, columnStatus(t, c.Name))
		}
		for _, name := range t.MissingColumns {
			fmt.Fprintf(tw, "  %s\t\t\t\t\t%s\n", name, statusMissing)
		}

		fmt.Fprintln(tw, "  INDEX\tCOLUMNS\tUNIQUE\tSTATUS")
		for _, idx := range t.Indexes {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				idx.Name, strings.Join(idx.Columns, ","), yesNo(idx.Unique), indexStatus(t, idx.Name))
		}
		for _, name := range t.MissingIndexes {
			fmt.Fprintf(tw, "  %s\t\t\t%s\n", name, statusMissing)
		}

		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(tw, "  fk %s: %s -> %s.%s\n", fk.Name, fk.Column, fk.RefTable, fk.RefColumn)
		}
		fmt.Fprintln(tw)
	}

	issues := res.Issues()
	if len(issues) == 0 {
		fmt.Fprintln(tw, "no issues found")
	} else {
		fmt.Fprintf(tw, "%d issue(s):\n", len(issues))
		for _, f := range res.Findings {
			if f.Severity == schema.SeverityInfo {
				continue
			}
			fmt.Fprintf(tw, "  [%s] %s\n", f.Severity, f.Message)
		}
	}
	fmt.Fprintf(tw, "overall status: %s\n", res.Status)

	return tw.Flush()
}
