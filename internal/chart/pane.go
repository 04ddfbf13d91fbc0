package chart

import (
	"fmt"

	charterrors "github.com/conneroisu/panesync/internal/errors"
)

// PaneID is the handle synchronizers and sessions use to refer to a pane.
type PaneID string

// LayoutChangeFunc observes changes to a pane's bounds or measured gutters.
type LayoutChangeFunc func(p *Pane)

// PaneOptions configures a new pane.
type PaneOptions struct {
	Bounds  Rect
	Metrics FontMetrics
	// ManualLayout disables measuring gutters from tick labels; gutters then
	// only change through SetMeasuredGutter.
	ManualLayout bool
}

// Pane is one chart surface: ordered axes, series and annotations plus the
// rectangle they are laid out in.
type Pane struct {
	id      PaneID
	bounds  Rect
	metrics FontMetrics
	manual  bool

	xAxes       []*Axis
	yAxes       []*Axis
	series      []*RenderableSeries
	annotations []*AxisMarker

	measured Gutters
	pushed   Gutters
	plot     Rect

	layoutObservers observerList[LayoutChangeFunc]
	arena           *Arena

	suspendCount int
	flushing     bool
	dirtyAxes    []*Axis
	layoutDirty  bool
}

// NewPane creates an empty pane. Zero metrics fall back to the defaults.
func NewPane(id PaneID, opts PaneOptions) *Pane {
	metrics := opts.Metrics
	if metrics == (FontMetrics{}) {
		metrics = DefaultFontMetrics()
	}
	p := &Pane{
		id:      id,
		bounds:  opts.Bounds,
		metrics: metrics,
		manual:  opts.ManualLayout,
	}
	p.applyPlotArea()
	return p
}

func (p *Pane) ID() PaneID { return p.id }
func (p *Pane) Bounds() Rect { return p.bounds }
func (p *Pane) Metrics() FontMetrics { return p.metrics }
func (p *Pane) PlotArea() Rect { return p.plot }
func (p *Pane) MeasuredGutters() Gutters { return p.measured }
func (p *Pane) XAxes() []*Axis { return p.xAxes }
func (p *Pane) YAxes() []*Axis { return p.yAxes }
func (p *Pane) Series() []*RenderableSeries { return p.series }
func (p *Pane) Annotations() []*AxisMarker { return p.annotations }

// ReservedGutters returns the gutters actually reserved: per side the larger
// of the measured gutter and any value pushed by a size synchronizer.
func (p *Pane) ReservedGutters() Gutters {
	var g Gutters
	for _, s := range AllSides {
		g = g.With(s, max(p.measured.Get(s), p.pushed.Get(s)))
	}
	return g
}

// Axes returns the X axes followed by the Y axes.
func (p *Pane) Axes() []*Axis {
	out := make([]*Axis, 0, len(p.xAxes)+len(p.yAxes))
	out = append(out, p.xAxes...)
	return append(out, p.yAxes...)
}

// Axis looks up one of the pane's axes.
func (p *Pane) Axis(id AxisID) (*Axis, bool) {
	for _, a := range p.Axes() {
		if a.id == id {
			return a, true
		}
	}
	return nil, false
}

// SeriesByID looks up one of the pane's series.
func (p *Pane) SeriesByID(id SeriesID) (*RenderableSeries, bool) {
	for _, s := range p.series {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// AddXAxis appends a horizontal axis. Vertical alignments are rejected.
func (p *Pane) AddXAxis(a *Axis) error {
	if !a.IsHorizontal() {
		return charterrors.NewConfigError(
			charterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("x axis %q must be aligned top or bottom, got %s", a.id, a.alignment),
		).WithPane(string(p.id)).WithAxis(string(a.id))
	}
	if err := p.adopt(a); err != nil {
		return err
	}
	p.xAxes = append(p.xAxes, a)
	p.relayout()
	return nil
}

// AddYAxis appends a vertical axis. Horizontal alignments are rejected.
func (p *Pane) AddYAxis(a *Axis) error {
	if a.IsHorizontal() {
		return charterrors.NewConfigError(
			charterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("y axis %q must be aligned left or right, got %s", a.id, a.alignment),
		).WithPane(string(p.id)).WithAxis(string(a.id))
	}
	if err := p.adopt(a); err != nil {
		return err
	}
	p.yAxes = append(p.yAxes, a)
	p.relayout()
	return nil
}

func (p *Pane) adopt(a *Axis) error {
	if a.owner != nil {
		return charterrors.ErrAlreadyAttached("axis", string(a.id)).WithPane(string(p.id))
	}
	if _, dup := p.Axis(a.id); dup {
		return charterrors.ErrDuplicateID("axis", string(a.id)).WithPane(string(p.id))
	}
	if p.arena != nil {
		if _, dup := p.arena.Axis(a.id); dup {
			return charterrors.ErrDuplicateID("axis", string(a.id)).WithPane(string(p.id))
		}
	}
	a.owner = p
	// tick labels follow the visible range, so range changes re-measure
	a.Observe(func(changed *Axis, _, _ Range) {
		if changed.IsHorizontal() {
			p.AutoRange()
		}
		p.relayout()
	})
	return nil
}

// seriesOn returns the series bound to axis.
func (p *Pane) seriesOn(axis *Axis) []*RenderableSeries {
	var out []*RenderableSeries
	for _, s := range p.series {
		if s.xAxis == axis || s.yAxis == axis {
			out = append(out, s)
		}
	}
	return out
}

// AutoRange fits every auto-ranging Y axis to the data visible through the
// X axes of its series.
func (p *Pane) AutoRange() {
	for _, y := range p.yAxes {
		if y.autoRange {
			p.fitY(y)
		}
	}
}

func (p *Pane) fitY(y *Axis) {
	var (
		fit   Range
		found bool
	)
	for _, s := range p.seriesOn(y) {
		r, ok := s.DataYRangeIn(s.xAxis.VisibleRange())
		if !ok {
			continue
		}
		if found {
			fit = fit.Union(r)
		} else {
			fit, found = r, true
		}
	}
	if found {
		// fit is a union of finite extents, which ZoomExtents always accepts
		_ = y.ZoomExtents(fit)
	}
}

// ZoomExtents fits the X axes to the full data extent, then every Y axis to
// the data inside it.
func (p *Pane) ZoomExtents() {
	for _, x := range p.xAxes {
		var (
			fit   Range
			found bool
		)
		for _, s := range p.seriesOn(x) {
			r, ok := s.DataXRange()
			if !ok {
				continue
			}
			if found {
				fit = fit.Union(r)
			} else {
				fit, found = r, true
			}
		}
		if found {
			// as in fitY
			_ = x.ZoomExtents(fit)
		}
	}
	for _, y := range p.yAxes {
		p.fitY(y)
	}
}

// AddSeries binds s to the pane's axes and appends it. Empty axis ids bind
// to the first X and Y axis.
func (p *Pane) AddSeries(s *RenderableSeries) error {
	if _, dup := p.SeriesByID(s.ID); dup {
		return charterrors.ErrDuplicateID("series", string(s.ID)).WithPane(string(p.id))
	}
	x, err := p.resolveAxis(s.XAxisID, p.xAxes)
	if err != nil {
		return err
	}
	y, err := p.resolveAxis(s.YAxisID, p.yAxes)
	if err != nil {
		return err
	}
	s.xAxis, s.yAxis, s.pane = x, y, p
	s.XAxisID, s.YAxisID = x.id, y.id
	p.series = append(p.series, s)
	return nil
}

func (p *Pane) resolveAxis(id AxisID, axes []*Axis) (*Axis, error) {
	if id == "" {
		if len(axes) == 0 {
			return nil, charterrors.ErrAxisNotFound("", nil).WithPane(string(p.id))
		}
		return axes[0], nil
	}
	known := make([]string, 0, len(axes))
	for _, a := range axes {
		if a.id == id {
			return a, nil
		}
		known = append(known, string(a.id))
	}
	return nil, charterrors.ErrAxisNotFound(string(id), known).WithPane(string(p.id))
}

// RemoveSeries unbinds and removes a series. It reports whether it was
// present.
func (p *Pane) RemoveSeries(id SeriesID) bool {
	for i, s := range p.series {
		if s.ID == id {
			p.series = append(p.series[:i], p.series[i+1:]...)
			s.xAxis, s.yAxis, s.pane = nil, nil, nil
			return true
		}
	}
	return false
}

// AddAnnotation appends an axis marker bound to one of the pane's Y axes.
func (p *Pane) AddAnnotation(m *AxisMarker) error {
	axis, err := p.resolveAxis(m.YAxisID, p.yAxes)
	if err != nil {
		return err
	}
	m.YAxisID = axis.id
	m.pane = p
	p.annotations = append(p.annotations, m)
	p.relayout()
	return nil
}

// Resize moves the pane to new bounds and lays it out again.
func (p *Pane) Resize(bounds Rect) {
	if bounds == p.bounds {
		return
	}
	p.bounds = bounds
	p.applyPlotArea()
	p.layoutChanged()
}

// Layout re-measures the gutters from the current tick and marker labels.
func (p *Pane) Layout() {
	p.relayout()
}

func (p *Pane) relayout() {
	changed := false
	if !p.manual {
		m := p.measure()
		changed = m != p.measured
		p.measured = m
	}
	p.applyPlotArea()
	if changed {
		p.layoutChanged()
	}
}

// measure sums the label extents of the visible axes on each side. Axis
// markers widen their axis' side to fit their label.
func (p *Pane) measure() Gutters {
	var g Gutters
	for _, a := range p.Axes() {
		extent := a.LabelExtent(p.metrics)
		if !a.IsHorizontal() && a.IsVisible() {
			for _, m := range p.annotations {
				if m.YAxisID == a.id {
					extent = max(extent, m.LabelExtent(a, p.metrics))
				}
			}
		}
		side := a.alignment.Side()
		g = g.With(side, g.Get(side)+extent)
	}
	return g
}

// SetMeasuredGutter overrides the measured gutter on one side, as a label
// or font change would. Panes that measure their labels overwrite it on
// the next layout.
func (p *Pane) SetMeasuredGutter(side Side, v float64) {
	if v < 0 || !isFinite(v) {
		v = 0
	}
	if p.measured.Get(side) == v {
		return
	}
	p.measured = p.measured.With(side, v)
	p.applyPlotArea()
	p.layoutChanged()
}

// SetReservedGutter is how a size synchronizer pushes a gutter. It moves
// the plot area but does not raise a layout change.
func (p *Pane) SetReservedGutter(side Side, v float64) {
	if v < 0 || !isFinite(v) {
		v = 0
	}
	if p.pushed.Get(side) == v {
		return
	}
	p.pushed = p.pushed.With(side, v)
	p.applyPlotArea()
}

// ClearReservedGutter drops a pushed gutter so the side reverts to its
// measured size.
func (p *Pane) ClearReservedGutter(side Side) {
	p.SetReservedGutter(side, 0)
}

func (p *Pane) applyPlotArea() {
	p.plot = p.bounds.Inset(p.ReservedGutters())
	for _, a := range p.xAxes {
		a.setPixelSpan(p.plot.Left(), p.plot.Right())
	}
	for _, a := range p.yAxes {
		a.setPixelSpan(p.plot.Bottom(), p.plot.Top())
	}
}

// OnLayoutChanged registers fn for bounds and measured gutter changes.
func (p *Pane) OnLayoutChanged(fn LayoutChangeFunc) Subscription {
	return p.layoutObservers.add(fn)
}

func (p *Pane) layoutChanged() {
	if p.suspendCount > 0 || p.flushing {
		p.layoutDirty = true
		return
	}
	p.layoutObservers.each(func(fn LayoutChangeFunc) {
		fn(p)
	})
}

// IsSuspended reports whether an update scope is open on the pane.
func (p *Pane) IsSuspended() bool { return p.suspendCount > 0 }

func (p *Pane) markAxisDirty(a *Axis) {
	p.dirtyAxes = append(p.dirtyAxes, a)
}

func (p *Pane) suspend() { p.suspendCount++ }

// resume closes one level of suspension. At zero it emits one range
// notification per changed axis, then at most one layout notification.
func (p *Pane) resume() {
	if p.suspendCount == 0 {
		return
	}
	p.suspendCount--
	if p.suspendCount > 0 {
		return
	}

	p.flushing = true
	func() {
		defer func() { p.flushing = false }()
		for len(p.dirtyAxes) > 0 {
			axes := p.dirtyAxes
			p.dirtyAxes = nil
			for _, a := range axes {
				a.flush()
			}
		}
	}()

	if p.layoutDirty {
		p.layoutDirty = false
		p.layoutChanged()
	}
}

func (p *Pane) String() string {
	return fmt.Sprintf("pane %s %s", p.id, p.bounds)
}
