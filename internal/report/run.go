package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/schema"
)

// CheckResult is one entry of a Run. Payload is the check's own report and
// is emitted as-is in JSON.
type CheckResult struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
	Payload any    `json:"report,omitempty"`
}

// Run is the combined envelope produced by "pulsecheck all".
type Run struct {
	ID        uuid.UUID               `json:"run_id"`
	StartedAt time.Time               `json:"started_at"`
	Checks    OrderedMap[CheckResult] `json:"checks"`
	Status    schema.Status           `json:"status"`
}

// NewRun starts a run with a fresh v4 id.
func NewRun(now time.Time) *Run {
	return &Run{
		ID:        uuid.New(),
		StartedAt: now.UTC(),
		Status:    schema.StatusSuccess,
	}
}

// Add records a check. Any failed check that was not skipped turns the run
// status to error.
func (r *Run) Add(name string, c CheckResult) {
	r.Checks.Set(name, c)
	if !c.OK && !c.Skipped {
		r.Status = schema.StatusError
	}
}

// Failed returns the names of checks that ran and failed, in run order.
func (r *Run) Failed() []string {
	var out []string
	for _, name := range r.Checks.Keys() {
		c, _ := r.Checks.Get(name)
		if !c.OK && !c.Skipped {
			out = append(out, name)
		}
	}
	return out
}

// OK reports whether every check that ran passed.
func (r *Run) OK() bool {
	return r.Status == schema.StatusSuccess
}

// WriteJSON writes the indented run envelope.
func (r *Run) WriteJSON(w io.Writer) error {
	return encodeJSON(w, r)
}

// WriteText writes one line per check.
func (r *Run) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s started %s\n", r.ID, r.StartedAt.Format(time.RFC3339))
	for _, name := range r.Checks.Keys() {
		c, _ := r.Checks.Get(name)
		state := "ok"
		switch {
		case c.Skipped:
			state = "skipped"
		case !c.OK:
			state = "FAIL"
		}
		line := fmt.Sprintf("  %s\t%s", name, state)
		if c.Error != "" {
			line += "\t" + c.Error
		}
		fmt.Fprintln(tw, line)
	}
	fmt.Fprintf(tw, "status: %s\n", r.Status)
	return tw.Flush()
}
