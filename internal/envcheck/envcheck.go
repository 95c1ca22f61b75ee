// Package envcheck reports which UrbanPulse settings are present in the
// environment without ever printing their values.
package envcheck

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Source tells where a value was found.
type Source string

const (
	SourceProcess Source = "process"
	SourceFile    Source = "file"
)

// Options selects the keys to check. Zero values fall back to the defaults
// below.
type Options struct {
	// EnvFile is read with godotenv when set. The process environment is
	// never modified.
	EnvFile string

	// Required keys must all be present.
	Required []string

	// LLMKeys need at least one present.
	LLMKeys []string

	// Optional keys are reported but never fail the check.
	Optional []string

	// Lookup reads the process environment. Defaults to os.LookupEnv.
	Lookup func(key string) (string, bool)
}

var (
	DefaultRequired = []string{"DB_HOST", "DB_NAME", "DB_USER"}
	DefaultLLMKeys  = []string{"GROQ_API_KEY", "OPENROUTER_API_KEY"}
	DefaultOptional = []string{"DB_PASS", "DB_PORT", "DB_DRIVER", "HEATMAP_URL"}
)

// Key is the state of one variable.
type Key struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Masked  string `json:"masked,omitempty"`
	Source  Source `json:"source,omitempty"`
}

// Report is the outcome of Check.
type Report struct {
	EnvFile      string   `json:"env_file,omitempty"`
	EnvFileFound bool     `json:"env_file_found"`
	Keys         []Key    `json:"keys"`
	Notes        []string `json:"notes"`
	Issues       []string `json:"issues"`
	OK           bool     `json:"ok"`
}

// Key returns the entry for name.
func (r Report) Key(name string) (Key, bool) {
	for _, k := range r.Keys {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// Check inspects the environment. Values from the process win over values
// from EnvFile. A missing EnvFile is a note; an unreadable one is an issue.
func Check(opts Options) Report {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.Required == nil {
		opts.Required = DefaultRequired
	}
	if opts.LLMKeys == nil {
		opts.LLMKeys = DefaultLLMKeys
	}
	if opts.Optional == nil {
		opts.Optional = DefaultOptional
	}

	rep := Report{EnvFile: opts.EnvFile, Keys: []Key{}, Notes: []string{}, Issues: []string{}}

	var fileVals map[string]string
	if opts.EnvFile != "" {
		vals, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			fileVals = vals
			rep.EnvFileFound = true
		case errors.Is(err, fs.ErrNotExist):
			rep.Notes = append(rep.Notes, fmt.Sprintf("env file %s not found, using process environment only", opts.EnvFile))
		default:
			rep.Issues = append(rep.Issues, fmt.Sprintf("env file %s could not be read: %v", opts.EnvFile, err))
		}
	}

	lookup := func(name string) Key {
		k := Key{Name: name}
		if v, ok := opts.Lookup(name); ok && v != "" {
			k.Present, k.Masked, k.Source = true, Mask(v), SourceProcess
		} else if v := fileVals[name]; v != "" {
			k.Present, k.Masked, k.Source = true, Mask(v), SourceFile
		}
		return k
	}

	seen := make(map[string]bool)
	add := func(name string) Key {
		k := lookup(name)
		if !seen[name] {
			seen[name] = true
			rep.Keys = append(rep.Keys, k)
		}
		return k
	}

	for _, name := range opts.Required {
		if !add(name).Present {
			rep.Issues = append(rep.Issues, fmt.Sprintf("required variable %s is not set", name))
		}
	}

	llm := 0
	for _, name := range opts.LLMKeys {
		if add(name).Present {
			llm++
		}
	}
	if len(opts.LLMKeys) > 0 && llm == 0 {
		rep.Issues = append(rep.Issues, fmt.Sprintf("no LLM API key set (need one of %s)", strings.Join(opts.LLMKeys, ", ")))
	}

	for _, name := range opts.Optional {
		add(name)
	}

	rep.OK = len(rep.Issues) == 0
	return rep
}

// Mask keeps the first four characters of v and hides the rest. Values of
// four characters or fewer are hidden entirely.
func Mask(v string) string {
	r := []rune(v)
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:4]) + "****"
}
