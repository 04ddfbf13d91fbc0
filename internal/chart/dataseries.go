package chart

import (
	"fmt"
	"math"

	charterrors "github.com/conneroisu/panesync/internal/errors"
)

// xColumn is the shared domain column of every point buffer. It records
// whether appends kept the column sorted and NaN-free, so readers can
// binary-search without rescanning.
type xColumn struct {
	x        []float64
	unsorted bool
}

func (c *xColumn) appendX(x float64) {
	if !isFinite(x) || (len(c.x) > 0 && x < c.x[len(c.x)-1]) {
		c.unsorted = true
	}
	c.x = append(c.x, x)
}

// Count returns the number of appended points.
func (c *xColumn) Count() int { return len(c.x) }

// XAt returns the domain value at i.
func (c *xColumn) XAt(i int) float64 { return c.x[i] }

// XValues exposes the domain column. Callers must not modify it.
func (c *xColumn) XValues() []float64 { return c.x }

// Sorted reports whether the domain column is non-decreasing and finite.
func (c *xColumn) Sorted() bool { return !c.unsorted }

// XRange returns the domain extent, or false when empty.
func (c *xColumn) XRange() (Range, bool) {
	if len(c.x) == 0 || c.unsorted {
		return extent(c.x)
	}
	return Range{Min: c.x[0], Max: c.x[len(c.x)-1]}, true
}

func extent(columns ...[]float64) (Range, bool) {
	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	found := false
	for _, col := range columns {
		for _, v := range col {
			if !isFinite(v) {
				continue
			}
			found = true
			r.Min = math.Min(r.Min, v)
			r.Max = math.Max(r.Max, v)
		}
	}
	if !found {
		return Range{}, false
	}
	return r, true
}

func lengthMismatch(name string, lengths ...int) error {
	for _, l := range lengths[1:] {
		if l != lengths[0] {
			return charterrors.NewValidationError(
				charterrors.ErrCodeValidationFailed,
				fmt.Sprintf("%s: column lengths differ %v", name, lengths),
			).WithSeries(name)
		}
	}
	return nil
}

// XyDataSeries holds one y channel per domain value.
type XyDataSeries struct {
	xColumn
	Name string
	y    []float64
}

// NewXyDataSeries creates an empty XY buffer.
func NewXyDataSeries(name string) *XyDataSeries {
	return &XyDataSeries{Name: name}
}

// Append adds one point.
func (s *XyDataSeries) Append(x, y float64) {
	s.appendX(x)
	s.y = append(s.y, y)
}

// AppendRange adds parallel columns.
func (s *XyDataSeries) AppendRange(xs, ys []float64) error {
	if err := lengthMismatch(s.Name, len(xs), len(ys)); err != nil {
		return err
	}
	for i := range xs {
		s.Append(xs[i], ys[i])
	}
	return nil
}

func (s *XyDataSeries) YAt(i int) float64 { return s.y[i] }
func (s *XyDataSeries) YValues() []float64 { return s.y }
func (s *XyDataSeries) YRange() (Range, bool) { return extent(s.y) }

// XyyDataSeries holds two y channels per domain value, as band series do.
type XyyDataSeries struct {
	xColumn
	Name string
	y0   []float64
	y1   []float64
}

// NewXyyDataSeries creates an empty XYY buffer.
func NewXyyDataSeries(name string) *XyyDataSeries {
	return &XyyDataSeries{Name: name}
}

// Append adds one point.
func (s *XyyDataSeries) Append(x, y0, y1 float64) {
	s.appendX(x)
	s.y0 = append(s.y0, y0)
	s.y1 = append(s.y1, y1)
}

// AppendRange adds parallel columns.
func (s *XyyDataSeries) AppendRange(xs, y0s, y1s []float64) error {
	if err := lengthMismatch(s.Name, len(xs), len(y0s), len(y1s)); err != nil {
		return err
	}
	for i := range xs {
		s.Append(xs[i], y0s[i], y1s[i])
	}
	return nil
}

func (s *XyyDataSeries) Y0At(i int) float64 { return s.y0[i] }
func (s *XyyDataSeries) Y1At(i int) float64 { return s.y1[i] }
func (s *XyyDataSeries) YRange() (Range, bool) { return extent(s.y0, s.y1) }

// OhlcDataSeries holds open/high/low/close bars.
type OhlcDataSeries struct {
	xColumn
	Name  string
	open  []float64
	high  []float64
	low   []float64
	close []float64
}

// NewOhlcDataSeries creates an empty OHLC buffer.
func NewOhlcDataSeries(name string) *OhlcDataSeries {
	return &OhlcDataSeries{Name: name}
}

// Append adds one bar.
func (s *OhlcDataSeries) Append(x, open, high, low, close float64) {
	s.appendX(x)
	s.open = append(s.open, open)
	s.high = append(s.high, high)
	s.low = append(s.low, low)
	s.close = append(s.close, close)
}

// AppendRange adds parallel columns.
func (s *OhlcDataSeries) AppendRange(xs, opens, highs, lows, closes []float64) error {
	if err := lengthMismatch(s.Name, len(xs), len(opens), len(highs), len(lows), len(closes)); err != nil {
		return err
	}
	for i := range xs {
		s.Append(xs[i], opens[i], highs[i], lows[i], closes[i])
	}
	return nil
}

func (s *OhlcDataSeries) OpenAt(i int) float64 { return s.open[i] }
func (s *OhlcDataSeries) HighAt(i int) float64 { return s.high[i] }
func (s *OhlcDataSeries) LowAt(i int) float64 { return s.low[i] }
func (s *OhlcDataSeries) CloseAt(i int) float64 { return s.close[i] }
func (s *OhlcDataSeries) CloseValues() []float64 { return s.close }
func (s *OhlcDataSeries) YRange() (Range, bool) { return extent(s.high, s.low) }

// UniformHeatmapData is a row-major grid of z values with constant cell
// sizes in data space. Cell (col,row) spans
// [X0+col*DX, X0+(col+1)*DX) x [Y0+row*DY, Y0+(row+1)*DY).
type UniformHeatmapData struct {
	Name   string
	Width  int
	Height int
	X0     float64
	DX     float64
	Y0     float64
	DY     float64
	z      []float64
}

// NewUniformHeatmapData creates a grid filled with NaN (no value).
func NewUniformHeatmapData(name string, width, height int, x0, dx, y0, dy float64) *UniformHeatmapData {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	z := make([]float64, width*height)
	for i := range z {
		z[i] = math.NaN()
	}
	return &UniformHeatmapData{
		Name: name, Width: width, Height: height,
		X0: x0, DX: dx, Y0: y0, DY: dy,
		z: z,
	}
}

// cell returns the storage index of (col,row), or -1 when the cell lies
// outside the grid or the storage does not cover it.
func (h *UniformHeatmapData) cell(col, row int) int {
	if col < 0 || row < 0 || col >= h.Width || row >= h.Height {
		return -1
	}
	i := row*h.Width + col
	if i >= len(h.z) {
		return -1
	}
	return i
}

// Set stores a cell value; out-of-grid writes are ignored.
func (h *UniformHeatmapData) Set(col, row int, v float64) {
	if i := h.cell(col, row); i >= 0 {
		h.z[i] = v
	}
}

// At returns a cell value, NaN when out of grid.
func (h *UniformHeatmapData) At(col, row int) float64 {
	if i := h.cell(col, row); i >= 0 {
		return h.z[i]
	}
	return math.NaN()
}

// Count is the number of cells.
func (h *UniformHeatmapData) Count() int { return h.Width * h.Height }

// Valid reports whether the grid geometry is usable for lookups. Grids not
// built with NewUniformHeatmapData, or resized afterwards, are invalid
// unless their storage matches Width*Height.
func (h *UniformHeatmapData) Valid() bool {
	return h.Width > 0 && h.Height > 0 && len(h.z) == h.Width*h.Height &&
		isFinite(h.X0) && isFinite(h.Y0) &&
		isFinite(h.DX) && isFinite(h.DY) && h.DX > 0 && h.DY > 0
}

// XRange returns the grid's domain extent.
func (h *UniformHeatmapData) XRange() (Range, bool) {
	if !h.Valid() {
		return Range{}, false
	}
	return Range{Min: h.X0, Max: h.X0 + float64(h.Width)*h.DX}, true
}

// YRange returns the grid's vertical extent.
func (h *UniformHeatmapData) YRange() (Range, bool) {
	if !h.Valid() {
		return Range{}, false
	}
	return Range{Min: h.Y0, Max: h.Y0 + float64(h.Height)*h.DY}, true
}
