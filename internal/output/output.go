// Package output renders snapshots, replay steps and hit lists as a
// terminal table, JSON, YAML or an Excel workbook.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/hittest"
	"github.com/conneroisu/panesync/internal/session"
	"gopkg.in/yaml.v3"
)

// Format selects a renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

// Formats lists the accepted format names.
var Formats = []string{string(FormatTable), string(FormatJSON), string(FormatYAML), string(FormatXLSX)}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTable, FormatJSON, FormatYAML, FormatXLSX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", charterrors.NewValidationError(charterrors.ErrCodeValidationFailed,
		fmt.Sprintf("unknown output format %q", s)).
		WithSuggestions(charterrors.SuggestIDs(s, Formats)...)
}

// Binary reports whether the format must not be written to a terminal.
func (f Format) Binary() bool { return f == FormatXLSX }

// Report is a replay's result.
type Report struct {
	Script string          `json:"script" yaml:"script"`
	Steps  []*session.Step `json:"steps" yaml:"steps"`
	Errors int             `json:"errors" yaml:"errors"`
}

// WriteSnapshot renders one snapshot.
func WriteSnapshot(w io.Writer, f Format, snap session.Snapshot) error {
	switch f {
	case FormatTable:
		_, err := fmt.Fprintln(w, snapshotTable(snap))
		return err
	case FormatXLSX:
		return writeWorkbook(w, nil, snap, nil)
	}
	return encode(w, f, snap)
}

// WriteReport renders a replay: one row per step, then the final layout.
func WriteReport(w io.Writer, f Format, r *Report) error {
	switch f {
	case FormatTable:
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %d steps, %d errors\n", r.Script, len(r.Steps), r.Errors)
		b.WriteString(stepsTable(r.Steps))
		if n := len(r.Steps); n > 0 {
			b.WriteString("\n")
			b.WriteString(snapshotTable(r.Steps[n-1].Snapshot))
		}
		_, err := fmt.Fprintln(w, b.String())
		return err
	case FormatXLSX:
		var last session.Snapshot
		if n := len(r.Steps); n > 0 {
			last = r.Steps[n-1].Snapshot
		}
		return writeWorkbook(w, r.Steps, last, nil)
	}
	return encode(w, f, r)
}

// WriteHits renders a ranked hit list.
func WriteHits(w io.Writer, f Format, hits []*hittest.Result) error {
	switch f {
	case FormatTable:
		_, err := fmt.Fprintln(w, hitsTable(hits))
		return err
	case FormatXLSX:
		return writeWorkbook(w, nil, session.Snapshot{}, hits)
	}
	if hits == nil {
		hits = []*hittest.Result{}
	}
	return encode(w, f, hits)
}

func encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return charterrors.NewValidationError(charterrors.ErrCodeValidationFailed,
		fmt.Sprintf("format %q cannot encode %T", f, v))
}
