package hittest

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/conneroisu/panesync/internal/chart"
	"github.com/conneroisu/panesync/internal/logging"
)

// Engine runs hit tests. It holds no per-call state, so one engine can serve
// every pane of a layout.
type Engine struct {
	logger   logging.Logger
	tieBreak TieBreak
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.WithComponent("hittest")
		}
	}
}

// WithTieBreak selects how equal-distance results are ordered.
func WithTieBreak(t TieBreak) Option {
	return func(e *Engine) {
		e.tieBreak = t
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TieBreak returns the configured tie-break.
func (e *Engine) TieBreak() TieBreak { return e.tieBreak }

// HitTest resolves pt against one series. It returns nil when nothing lies
// within radius pixels, when any value of the hit is not finite, and for
// empty, unsorted or NaN-bearing series,
// unbound series, or pointers outside either axis' pixel span. It never
// panics on malformed data.
func (e *Engine) HitTest(s *chart.RenderableSeries, pt chart.Point, radius float64, mode Mode) *Result {
	if !e.testable(s, pt, radius) {
		return nil
	}

	var r *Result
	switch s.Kind.Strategy() {
	case chart.StrategyPoint:
		r = hitPoint(s, pt, radius, mode)
	case chart.StrategyBand:
		r = hitBand(s, pt, radius, mode)
	case chart.StrategyHeatmap:
		r = hitHeatmap(s, pt)
	}
	if r != nil && !r.finite() {
		e.logger.Debug(context.Background(), "dropping non-finite hit", "series", string(s.ID))
		return nil
	}
	if r != nil {
		r.SeriesID = s.ID
		r.Kind = s.Kind
		r.zIndex = s.ZIndex
	}
	return r
}

func (e *Engine) testable(s *chart.RenderableSeries, pt chart.Point, radius float64) bool {
	if s == nil || s.Count() == 0 {
		return false
	}
	if math.IsNaN(radius) || radius < 0 {
		return false
	}
	xa, ya := s.XAxis(), s.YAxis()
	if xa == nil || ya == nil {
		return false
	}
	if !s.Sorted() {
		e.logger.Debug(context.Background(), "series not hit-testable: domain unsorted or NaN",
			"series", string(s.ID))
		return false
	}
	return xa.ContainsPixel(pt.X) && ya.ContainsPixel(pt.Y)
}

// HitTestAll tests every series and returns the hits ranked by distance.
// Equal distances are ordered by the engine's tie-break.
func (e *Engine) HitTestAll(series []*chart.RenderableSeries, pt chart.Point, radius float64, mode Mode) []*Result {
	var results []*Result
	for i, s := range series {
		if r := e.HitTest(s, pt, radius, mode); r != nil {
			r.order = i
			results = append(results, r)
		}
	}
	e.rank(results)
	return results
}

// HitTestPane tests the pane's hit-testable series.
func (e *Engine) HitTestPane(p *chart.Pane, pt chart.Point, radius float64, mode Mode) []*Result {
	if p == nil {
		return nil
	}
	var series []*chart.RenderableSeries
	for _, s := range p.Series() {
		if s.HitTestable {
			series = append(series, s)
		}
	}
	return e.HitTestAll(series, pt, radius, mode)
}

// Nearest returns the best ranked hit across series, or nil.
func (e *Engine) Nearest(series []*chart.RenderableSeries, pt chart.Point, radius float64, mode Mode) *Result {
	results := e.HitTestAll(series, pt, radius, mode)
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

func (e *Engine) rank(results []*Result) {
	slices.SortStableFunc(results, func(a, b *Result) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		if e.tieBreak == TieBreakZOrder {
			if c := cmp.Compare(b.zIndex, a.zIndex); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.order, b.order)
	})
}
