package chart

import (
	"fmt"
	"math"
	"sync/atomic"

	charterrors "github.com/conneroisu/panesync/internal/errors"
)

// rangeWrites orders visible range writes across every axis.
var rangeWrites atomic.Uint64

// AxisID is the handle other components use to refer to an axis without
// holding it.
type AxisID string

// Alignment is the pane edge an axis is drawn against. Top and bottom axes
// map the horizontal (X) pixel direction; left and right map vertical (Y).
type Alignment int

const (
	AlignBottom Alignment = iota
	AlignTop
	AlignLeft
	AlignRight
)

// IsHorizontal reports whether the axis runs along the X pixel direction.
func (a Alignment) IsHorizontal() bool {
	return a == AlignBottom || a == AlignTop
}

// Side returns the gutter the axis labels occupy.
func (a Alignment) Side() Side {
	switch a {
	case AlignTop:
		return SideTop
	case AlignLeft:
		return SideLeft
	case AlignRight:
		return SideRight
	default:
		return SideBottom
	}
}

func (a Alignment) String() string {
	return a.Side().String()
}

// RangeChangeFunc observes visible range changes.
type RangeChangeFunc func(axis *Axis, oldRange, newRange Range)

// AxisOptions configures a new axis.
type AxisOptions struct {
	Domain     DomainType
	Alignment  Alignment
	Range      Range
	GrowBy     GrowBy
	TextFormat string
	Hidden     bool
	AutoRange  bool
	MaxTicks   int
}

// Axis maps a visible data range onto a pixel span and back. An axis belongs
// to exactly one pane; synchronizers only hold its AxisID.
type Axis struct {
	id         AxisID
	domain     DomainType
	alignment  Alignment
	visible    Range
	pixelStart float64
	pixelEnd   float64
	growBy     GrowBy
	textFormat string
	hidden     bool
	autoRange  bool
	maxTicks   int

	observers observerList[RangeChangeFunc]
	owner     *Pane

	// sequence of the write that produced visible
	writeSeq uint64

	// set while the owning pane is suspended
	dirty      bool
	pendingOld Range
}

// NewAxis creates a detached axis. Invalid initial ranges fall back to [0, 1].
func NewAxis(id AxisID, opts AxisOptions) *Axis {
	r := opts.Range
	if !r.IsValid() || (r.Min == 0 && r.Max == 0) {
		r = Range{Min: 0, Max: 1}
	}
	maxTicks := opts.MaxTicks
	if maxTicks < 2 {
		maxTicks = 6
	}
	return &Axis{
		id:         id,
		domain:     opts.Domain,
		alignment:  opts.Alignment,
		visible:    r,
		pixelStart: 0,
		pixelEnd:   1,
		growBy:     opts.GrowBy,
		textFormat: opts.TextFormat,
		hidden:     opts.Hidden,
		autoRange:  opts.AutoRange,
		maxTicks:   maxTicks,
	}
}

func (a *Axis) ID() AxisID { return a.id }
func (a *Axis) Domain() DomainType { return a.domain }
func (a *Axis) Alignment() Alignment { return a.alignment }
func (a *Axis) VisibleRange() Range { return a.visible }
func (a *Axis) GrowBy() GrowBy { return a.growBy }
func (a *Axis) TextFormat() string { return a.textFormat }
func (a *Axis) IsVisible() bool { return !a.hidden }
func (a *Axis) AutoRange() bool { return a.autoRange }
func (a *Axis) MaxTicks() int { return a.maxTicks }
func (a *Axis) Pane() *Pane { return a.owner }
func (a *Axis) IsHorizontal() bool { return a.alignment.IsHorizontal() }
func (a *Axis) PixelSpan() (start, end float64) { return a.pixelStart, a.pixelEnd }

// SetTextFormat changes the label format and re-measures the owning pane.
func (a *Axis) SetTextFormat(format string) {
	if a.textFormat == format {
		return
	}
	a.textFormat = format
	if a.owner != nil {
		a.owner.relayout()
	}
}

// SetVisibleRange replaces the visible range. Observers are notified
// synchronously, in subscription order, unless the owning pane is inside a
// suspended-updates scope; then a single notification carrying the range
// from before the scope is emitted when the scope closes. Setting an equal
// range never notifies.
func (a *Axis) SetVisibleRange(r Range) error {
	return a.setVisibleRange(r, 0)
}

// ApplyVisibleRange sets a range that was written to another axis, keeping
// that write's sequence so the two axes rank as equally recent. It
// otherwise behaves like SetVisibleRange.
func (a *Axis) ApplyVisibleRange(r Range, seq uint64) error {
	return a.setVisibleRange(r, seq)
}

// WriteSeq returns the sequence of the write that produced the current
// visible range. Later writes have larger sequences; zero means the range
// was never written.
func (a *Axis) WriteSeq() uint64 { return a.writeSeq }

func (a *Axis) setVisibleRange(r Range, seq uint64) error {
	if !r.IsValid() {
		return charterrors.NewValidationError(
			charterrors.ErrCodeInvalidRange,
			fmt.Sprintf("invalid visible range %s", r),
		).WithAxis(string(a.id))
	}
	if r.Equal(a.visible) {
		return nil
	}

	if seq == 0 {
		seq = rangeWrites.Add(1)
	}
	old := a.visible
	a.visible = r
	a.writeSeq = seq

	if a.owner != nil && a.owner.IsSuspended() {
		if !a.dirty {
			a.dirty = true
			a.pendingOld = old
			a.owner.markAxisDirty(a)
		}
		return nil
	}

	a.notify(old, r)
	return nil
}

// flush emits the deferred notification collected while suspended.
func (a *Axis) flush() {
	if !a.dirty {
		return
	}
	a.dirty = false
	if a.pendingOld.Equal(a.visible) {
		return
	}
	a.notify(a.pendingOld, a.visible)
}

func (a *Axis) notify(old, r Range) {
	a.observers.each(func(fn RangeChangeFunc) {
		fn(a, old, r)
	})
}

// Observe registers fn for visible range changes.
func (a *Axis) Observe(fn RangeChangeFunc) Subscription {
	return a.observers.add(fn)
}

// setPixelSpan is driven by the owning pane's layout. It never notifies
// range observers.
func (a *Axis) setPixelSpan(start, end float64) {
	a.pixelStart = start
	a.pixelEnd = end
}

// ValueToPixel maps a data value onto the axis' pixel span.
func (a *Axis) ValueToPixel(v float64) float64 {
	span := a.visible.Span()
	if span == 0 {
		return a.pixelStart
	}
	return a.pixelStart + (v-a.visible.Min)/span*(a.pixelEnd-a.pixelStart)
}

// PixelToValue is the inverse of ValueToPixel.
func (a *Axis) PixelToValue(p float64) float64 {
	pixels := a.pixelEnd - a.pixelStart
	if pixels == 0 {
		return a.visible.Min
	}
	return a.visible.Min + (p-a.pixelStart)/pixels*a.visible.Span()
}

// PixelDirection is +1 when pixels grow with data values and -1 when the
// mapping is flipped, as it is for vertical axes.
func (a *Axis) PixelDirection() float64 {
	if a.pixelEnd < a.pixelStart {
		return -1
	}
	return 1
}

// ContainsPixel reports whether p lies within the axis' pixel span.
func (a *Axis) ContainsPixel(p float64) bool {
	if math.IsNaN(p) {
		return false
	}
	lo, hi := a.pixelStart, a.pixelEnd
	if lo > hi {
		lo, hi = hi, lo
	}
	return p >= lo && p <= hi
}

// PixelLength returns the absolute size of the pixel span.
func (a *Axis) PixelLength() float64 {
	return math.Abs(a.pixelEnd - a.pixelStart)
}

// Pan shifts the visible range so content follows a drag of the given
// number of pixels along the axis direction.
func (a *Axis) Pan(pixels float64) error {
	length := a.pixelEnd - a.pixelStart
	if length == 0 || !isFinite(pixels) {
		return nil
	}
	delta := pixels / length * a.visible.Span()
	return a.SetVisibleRange(Range{Min: a.visible.Min - delta, Max: a.visible.Max - delta})
}

// Zoom scales the visible span by 1/factor around the data value under
// anchorPixel. Factors above one zoom in.
func (a *Axis) Zoom(factor, anchorPixel float64) error {
	if !isFinite(factor) || factor <= 0 {
		return charterrors.NewValidationError(
			charterrors.ErrCodeInvalidRange,
			fmt.Sprintf("invalid zoom factor %g", factor),
		).WithAxis(string(a.id))
	}
	anchor := a.PixelToValue(anchorPixel)
	return a.SetVisibleRange(Range{
		Min: anchor - (anchor-a.visible.Min)/factor,
		Max: anchor + (a.visible.Max-anchor)/factor,
	})
}

// ZoomExtents shows data, padded by the axis' GrowBy. Padding that would
// invert or overflow the range is dropped, so valid data always applies.
func (a *Axis) ZoomExtents(data Range) error {
	if !data.IsValid() {
		return nil
	}
	grown := data.Grow(a.growBy)
	if !grown.IsValid() {
		grown = data
	}
	return a.SetVisibleRange(grown)
}

// LabelExtent is the gutter depth the axis' tick labels need.
func (a *Axis) LabelExtent(m FontMetrics) float64 {
	if a.hidden {
		return 0
	}
	if a.IsHorizontal() {
		return m.LineHeight + m.TickLength + m.Padding
	}
	widest := 0
	for _, label := range a.TickLabels() {
		if w := textWidth(label); w > widest {
			widest = w
		}
	}
	return float64(widest)*m.CharWidth + m.TickLength + m.Padding
}

// TickLabels formats the labels at the axis' current tick positions.
func (a *Axis) TickLabels() []string {
	ticks := NiceTicks(a.visible, a.maxTicks)
	labels := make([]string, len(ticks))
	for i, v := range ticks {
		labels[i] = FormatLabel(a.domain, a.textFormat, v)
	}
	return labels
}
