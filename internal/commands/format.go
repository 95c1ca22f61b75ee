package commands

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/filestore"
)

type format string

const (
	formatText format = "text"
	formatJSON format = "json"
	formatHTML format = "html"
)

var _ pflag.Value = (*format)(nil)

func (f *format) String() string { return string(*f) }

func (f *format) Set(v string) error {
	switch format(strings.ToLower(v)) {
	case formatText, formatJSON, formatHTML:
		*f = format(strings.ToLower(v))
		return nil
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "format must be text, json or html, got %q", v)
	}
}

func (f *format) Type() string { return "format" }

// archiveFormat maps an output format to the stored object format.
func (f format) archiveFormat() filestore.Format {
	switch f {
	case formatJSON:
		return filestore.FormatJSON
	case formatHTML:
		return filestore.FormatHTML
	default:
		return filestore.FormatText
	}
}

// emit writes payload as indented JSON, or through text for the text
// format. Only the schema report has an HTML rendering.
func emit(w io.Writer, f format, payload any, text func(io.Writer) error) error {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case formatHTML:
		return errs.New(errs.ErrKindInvalidInput, "html output is only available for the schema check")
	default:
		return text(w)
	}
}
