package session

import (
	"context"
	"fmt"
	"time"

	"github.com/conneroisu/panesync/internal/chart"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/hittest"
	"github.com/conneroisu/panesync/internal/logging"
	"github.com/conneroisu/panesync/internal/stockchart"
	"github.com/conneroisu/panesync/internal/validation"
	"github.com/google/uuid"
)

// Session applies events to one chart. It is not safe for concurrent use;
// callers serialize access.
type Session struct {
	ID string

	chart  *stockchart.Chart
	engine *hittest.Engine
	radius float64
	mode   hittest.Mode
	logger logging.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngine replaces the default hit-test engine.
func WithEngine(e *hittest.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithHitTestDefaults sets the radius and mode of pointer events that do
// not carry their own.
func WithHitTestDefaults(radius float64, mode hittest.Mode) Option {
	return func(s *Session) {
		s.radius = radius
		s.mode = mode
	}
}

// New creates a session over c.
func New(c *stockchart.Chart, opts ...Option) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		chart:  c,
		engine: hittest.NewEngine(),
		radius: 8,
		mode:   hittest.ModePoint,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("session").With("session", s.ID)
	return s
}

// Chart returns the driven chart.
func (s *Session) Chart() *stockchart.Chart { return s.chart }

// Step is the outcome of one event.
type Step struct {
	Index    int               `json:"index" yaml:"index"`
	Event    string            `json:"event" yaml:"event"`
	Hits     []*hittest.Result `json:"hits,omitempty" yaml:"hits,omitempty"`
	Snapshot Snapshot          `json:"snapshot" yaml:"snapshot"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration     `json:"duration_ns" yaml:"duration_ns"`
}

// Apply validates and applies one event and snapshots the result.
func (s *Session) Apply(ctx context.Context, e Event) (*Step, error) {
	start := time.Now()
	if err := e.Validate(); err != nil {
		return nil, err
	}

	step := &Step{Event: e.Type}
	var err error
	if e.Type == EventBatch {
		panes := s.chart.Panes()
		err = chart.WithSuspendedUpdates(func() error {
			for _, child := range e.Events {
				hits, cerr := s.apply(child)
				if cerr != nil {
					return cerr
				}
				step.Hits = append(step.Hits, hits...)
			}
			return nil
		}, panes...)
	} else {
		step.Hits, err = s.apply(e)
	}
	step.Snapshot = s.Snapshot()
	step.Duration = time.Since(start)

	if err != nil {
		s.logger.Warn(ctx, err, "event failed", "event", e.Type)
		return step, err
	}
	s.logger.Debug(ctx, "event applied", "event", e.Type, "hits", len(step.Hits),
		"duration_us", step.Duration.Microseconds())
	return step, nil
}

func (s *Session) apply(e Event) ([]*hittest.Result, error) {
	switch e.Type {
	case EventPan:
		axis, err := s.axis(e.Axis)
		if err != nil {
			return nil, err
		}
		return nil, axis.Pan(e.Pixels)
	case EventZoom:
		axis, err := s.axis(e.Axis)
		if err != nil {
			return nil, err
		}
		return nil, axis.Zoom(e.Factor, e.Anchor)
	case EventZoomExtents:
		if e.Pane == "" {
			for _, p := range s.chart.Panes() {
				p.ZoomExtents()
			}
			return nil, nil
		}
		p, err := s.chart.Arena.MustPane(chart.PaneID(e.Pane))
		if err != nil {
			return nil, err
		}
		p.ZoomExtents()
		return nil, nil
	case EventResize:
		return nil, s.chart.Resize(e.Width, e.Height)
	case EventRelabel:
		axis, err := s.chart.Arena.MustAxis(chart.AxisID(e.Axis))
		if err != nil {
			return nil, err
		}
		if axis.Domain() != chart.DomainDateTime {
			if err := validation.ValidateNumberFormat(e.Format); err != nil {
				return nil, charterrors.WrapValidation(err, charterrors.ErrCodeInvalidEvent,
					"relabel "+e.Axis)
			}
		}
		axis.SetTextFormat(e.Format)
		return nil, nil
	case EventPointer:
		return s.pointer(e)
	}
	return nil, charterrors.NewValidationError(charterrors.ErrCodeInvalidEvent,
		fmt.Sprintf("event %q cannot be applied here", e.Type))
}

// axis resolves an axis id, defaulting to the main pane's time axis.
func (s *Session) axis(id string) (*chart.Axis, error) {
	if id == "" {
		id = string(stockchart.XAxisID(stockchart.PanePrice))
	}
	return s.chart.Arena.MustAxis(chart.AxisID(id))
}

func (s *Session) pointer(e Event) ([]*hittest.Result, error) {
	radius, mode := s.radius, s.mode
	if e.Radius != nil {
		radius = *e.Radius
	}
	if e.Mode != "" {
		m, err := hittest.ParseMode(e.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	pt := chart.Point{X: e.X, Y: e.Y}
	var p *chart.Pane
	if e.Pane != "" {
		var err error
		if p, err = s.chart.Arena.MustPane(chart.PaneID(e.Pane)); err != nil {
			return nil, err
		}
	} else {
		p = s.PaneAt(pt)
	}
	if p == nil {
		return nil, nil
	}
	return s.engine.HitTestPane(p, pt, radius, mode), nil
}

// PaneAt returns the pane whose plot area contains pt.
func (s *Session) PaneAt(pt chart.Point) *chart.Pane {
	for _, p := range s.chart.Panes() {
		if p.PlotArea().Contains(pt) {
			return p
		}
	}
	return nil
}

// Run applies every event of a script. Failed events are collected and do
// not stop the run.
func (s *Session) Run(ctx context.Context, script *Script) ([]*Step, *charterrors.ErrorCollector) {
	collector := charterrors.NewErrorCollector()
	steps := make([]*Step, 0, len(script.Events))
	perf := logging.StartOperation(s.logger, "run "+script.Name)

	for i, e := range script.Events {
		if err := ctx.Err(); err != nil {
			collector.AddError(err)
			break
		}
		step, err := s.Apply(ctx, e)
		if err != nil {
			collector.Add(charterrors.EventError{Index: i, Event: e.Type, Err: err, Timestamp: time.Now()})
			if step == nil {
				step = &Step{Event: e.Type, Snapshot: s.Snapshot()}
			}
			step.Error = charterrors.FormatError(err)
		}
		step.Index = i
		steps = append(steps, step)
	}

	if collector.HasErrors() {
		perf.EndWithError(ctx, collector.GetAllErrors()[0])
	} else {
		perf.End(ctx)
	}
	return steps, collector
}
