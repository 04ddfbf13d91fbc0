// Package session drives an assembled chart from scripted or live events:
// pans, zooms, resizes, label changes and pointer probes.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/validation"
	"gopkg.in/yaml.v3"
)

// Event types.
const (
	EventPan         = "pan"
	EventZoom        = "zoom"
	EventZoomExtents = "zoom_extents"
	EventResize      = "resize"
	EventRelabel     = "relabel"
	EventPointer     = "pointer"
	EventBatch       = "batch"
)

// EventTypes lists the accepted event types.
var EventTypes = []string{
	EventPan, EventZoom, EventZoomExtents, EventResize, EventRelabel, EventPointer, EventBatch,
}

// Event is one interaction. Fields apply per type:
//
//	pan          axis, pixels
//	zoom         axis, factor, anchor
//	zoom_extents pane (all panes when empty)
//	resize       width, height
//	relabel      axis, format
//	pointer      pane (found from x/y when empty), x, y, radius, mode
//	batch        events, applied inside one update scope
type Event struct {
	Type   string   `json:"type" yaml:"type"`
	Pane   string   `json:"pane,omitempty" yaml:"pane,omitempty"`
	Axis   string   `json:"axis,omitempty" yaml:"axis,omitempty"`
	Pixels float64  `json:"pixels,omitempty" yaml:"pixels,omitempty"`
	Factor float64  `json:"factor,omitempty" yaml:"factor,omitempty"`
	Anchor float64  `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Width  float64  `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64  `json:"height,omitempty" yaml:"height,omitempty"`
	Format string   `json:"format,omitempty" yaml:"format,omitempty"`
	X      float64  `json:"x,omitempty" yaml:"x,omitempty"`
	Y      float64  `json:"y,omitempty" yaml:"y,omitempty"`
	Radius *float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	Mode   string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Events []Event  `json:"events,omitempty" yaml:"events,omitempty"`
}

// Validate checks the fields the event type needs.
func (e Event) Validate() error {
	invalid := func(msg string) error {
		return charterrors.NewValidationError(charterrors.ErrCodeInvalidEvent,
			fmt.Sprintf("%s event: %s", e.Type, msg))
	}

	switch e.Type {
	case EventPan, EventZoomExtents, EventPointer:
	case EventZoom:
		if e.Factor <= 0 {
			return invalid("factor must be positive")
		}
	case EventResize:
		if e.Width <= 0 || e.Height <= 0 {
			return invalid("width and height must be positive")
		}
	case EventRelabel:
		if e.Axis == "" || e.Format == "" {
			return invalid("axis and format are required")
		}
	case EventBatch:
		for i, child := range e.Events {
			if child.Type == EventBatch {
				return invalid(fmt.Sprintf("event %d: batches do not nest", i))
			}
			if err := child.Validate(); err != nil {
				return charterrors.WrapValidation(err, charterrors.ErrCodeInvalidEvent,
					fmt.Sprintf("batch event %d", i))
			}
		}
	default:
		return charterrors.NewValidationError(charterrors.ErrCodeInvalidEvent,
			fmt.Sprintf("unknown event type %q", e.Type)).
			WithSuggestions(charterrors.SuggestIDs(e.Type, EventTypes)...)
	}
	if e.Radius != nil && *e.Radius < 0 {
		return invalid("radius must not be negative")
	}
	return nil
}

// Script is a named sequence of events.
type Script struct {
	Name   string  `json:"name" yaml:"name"`
	Events []Event `json:"events" yaml:"events"`
}

// Validate checks every event.
func (s *Script) Validate() error {
	for i, e := range s.Events {
		if err := e.Validate(); err != nil {
			return charterrors.WrapValidation(err, charterrors.ErrCodeInvalidEvent,
				fmt.Sprintf("script %q event %d", s.Name, i))
		}
	}
	return nil
}

// ParseScript decodes a YAML or JSON script.
func ParseScript(data []byte, format string) (*Script, error) {
	var s Script
	var err error
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &s)
	case "yaml", "yml", "":
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, charterrors.NewValidationError(charterrors.ErrCodeDecodeFailed,
			fmt.Sprintf("unsupported script format %q", format))
	}
	if err != nil {
		return nil, charterrors.WrapData(err, charterrors.ErrCodeDecodeFailed, "cannot decode script")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a script file; the extension picks the format.
func LoadScript(path string) (*Script, error) {
	if err := validation.ValidateScriptPath(path); err != nil {
		return nil, charterrors.WrapValidation(err, charterrors.ErrCodeValidationFailed, "bad script path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, charterrors.NewIOError(charterrors.ErrCodeFileNotFound,
				"script not found: "+path, err)
		}
		return nil, charterrors.WrapIO(err, charterrors.ErrCodeFileNotFound, "cannot read script")
	}
	s, err := ParseScript(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s.Name = validation.SanitizeInput(s.Name)
	return s, nil
}
