package hittest

import (
	"math"
	"sort"

	"github.com/conneroisu/panesync/internal/chart"
)

// pixelColumn views a sorted domain column through an axis, in an order
// where keys grow with the index whatever the axis direction.
type pixelColumn struct {
	x    []float64
	axis *chart.Axis
	dir  float64
}

func newPixelColumn(s *chart.RenderableSeries) pixelColumn {
	xa := s.XAxis()
	return pixelColumn{x: s.XValues(), axis: xa, dir: xa.PixelDirection()}
}

func (c pixelColumn) pixel(i int) float64 { return c.axis.ValueToPixel(c.x[i]) }
func (c pixelColumn) key(i int) float64 { return c.dir * c.pixel(i) }

// window returns the index range [lo, hi) whose pixels lie within tol of
// px. Comparisons stay in pixel space so a zero tolerance only admits
// points that map exactly onto px.
func (c pixelColumn) window(px, tol float64) (int, int) {
	k := c.dir * px
	lo := sort.Search(len(c.x), func(i int) bool { return c.key(i) >= k-tol })
	hi := sort.Search(len(c.x), func(i int) bool { return c.key(i) > k+tol })
	return lo, hi
}

// nearestX picks the index in [lo, hi) closest to px horizontally. Ties go
// to the lower index.
func (c pixelColumn) nearestX(px float64, lo, hi int) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i := lo; i < hi; i++ {
		if d := math.Abs(c.pixel(i) - px); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// primaryY is the channel a point series is drawn through.
func primaryY(s *chart.RenderableSeries, i int) float64 {
	switch {
	case s.XY() != nil:
		return s.XY().YAt(i)
	case s.XYY() != nil:
		return s.XYY().Y0At(i)
	case s.OHLC() != nil:
		return s.OHLC().CloseAt(i)
	}
	return math.NaN()
}

func pointResult(s *chart.RenderableSeries, i int, dist float64) *Result {
	x, y := s.XValues()[i], primaryY(s, i)
	return &Result{
		Index:    i,
		DataX:    x,
		DataY:    y,
		PixelX:   s.XAxis().ValueToPixel(x),
		PixelY:   s.YAxis().ValueToPixel(y),
		Distance: dist,
		Channels: s.Channels(i),
	}
}

func hitPoint(s *chart.RenderableSeries, pt chart.Point, radius float64, mode Mode) *Result {
	col := newPixelColumn(s)
	if mode == ModeInterpolate {
		return hitInterpolated(s, col, pt, radius)
	}

	lo, hi := col.window(pt.X, radius)
	if lo >= hi {
		return nil
	}

	if mode == ModeVertical {
		i, d := col.nearestX(pt.X, lo, hi)
		if i < 0 || math.IsNaN(primaryY(s, i)) {
			return nil
		}
		return pointResult(s, i, d)
	}

	ya := s.YAxis()
	best, bestDist := -1, math.Inf(1)
	for i := lo; i < hi; i++ {
		y := primaryY(s, i)
		if math.IsNaN(y) {
			continue
		}
		d := math.Hypot(col.pixel(i)-pt.X, ya.ValueToPixel(y)-pt.Y)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > radius {
		return nil
	}
	return pointResult(s, best, bestDist)
}

// hitInterpolated tests the pointer against the segment spanning its x.
func hitInterpolated(s *chart.RenderableSeries, col pixelColumn, pt chart.Point, radius float64) *Result {
	n := len(col.x)
	k := col.dir * pt.X
	j := sort.Search(n, func(i int) bool { return col.key(i) >= k })
	if j == n {
		return nil
	}

	ya := s.YAxis()
	if col.key(j) == k {
		y := primaryY(s, j)
		if math.IsNaN(y) {
			return nil
		}
		d := math.Abs(ya.ValueToPixel(y) - pt.Y)
		if d > radius {
			return nil
		}
		return pointResult(s, j, d)
	}
	if j == 0 {
		return nil
	}

	i := j - 1
	y0, y1 := primaryY(s, i), primaryY(s, j)
	if math.IsNaN(y0) || math.IsNaN(y1) {
		return nil
	}
	p0, p1 := col.pixel(i), col.pixel(j)
	t := (pt.X - p0) / (p1 - p0)
	yPix := ya.ValueToPixel(y0) + t*(ya.ValueToPixel(y1)-ya.ValueToPixel(y0))
	d := math.Abs(yPix - pt.Y)
	if d > radius {
		return nil
	}

	nearer := i
	if math.Abs(p1-pt.X) < math.Abs(pt.X-p0) {
		nearer = j
	}
	return &Result{
		Index:    nearer,
		DataX:    s.XAxis().PixelToValue(pt.X),
		DataY:    y0 + t*(y1-y0),
		PixelX:   pt.X,
		PixelY:   yPix,
		Distance: d,
		Channels: s.Channels(nearer),
	}
}

// halfBarWidth estimates half a bar's pixel width from the mean spacing of
// the data.
func halfBarWidth(s *chart.RenderableSeries, col pixelColumn) float64 {
	n := len(col.x)
	if n < 2 {
		return 0
	}
	spacing := math.Abs(col.pixel(n-1)-col.pixel(0)) / float64(n-1)
	return spacing * s.DataPointWidth / 2
}

// envelope returns the low and high values a band or bar covers at i.
func envelope(s *chart.RenderableSeries, i int) (float64, float64) {
	switch {
	case s.OHLC() != nil:
		return s.OHLC().LowAt(i), s.OHLC().HighAt(i)
	case s.XYY() != nil:
		y0, y1 := s.XYY().Y0At(i), s.XYY().Y1At(i)
		return math.Min(y0, y1), math.Max(y0, y1)
	case s.XY() != nil:
		y := s.XY().YAt(i)
		return y, y
	}
	return math.NaN(), math.NaN()
}

func hitBand(s *chart.RenderableSeries, pt chart.Point, radius float64, mode Mode) *Result {
	col := newPixelColumn(s)
	tol := math.Max(radius, halfBarWidth(s, col))
	lo, hi := col.window(pt.X, tol)
	i, d := col.nearestX(pt.X, lo, hi)
	if i < 0 {
		return nil
	}

	if mode != ModeVertical {
		low, high := envelope(s, i)
		if math.IsNaN(low) || math.IsNaN(high) {
			return nil
		}
		ya := s.YAxis()
		a, b := ya.ValueToPixel(low), ya.ValueToPixel(high)
		if a > b {
			a, b = b, a
		}
		if pt.Y < a || pt.Y > b {
			return nil
		}
	}
	return pointResult(s, i, d)
}

func hitHeatmap(s *chart.RenderableSeries, pt chart.Point) *Result {
	h := s.Heatmap()
	if h == nil || !h.Valid() {
		return nil
	}
	xa, ya := s.XAxis(), s.YAxis()
	xv, yv := xa.PixelToValue(pt.X), ya.PixelToValue(pt.Y)

	col := int(math.Floor((xv - h.X0) / h.DX))
	row := int(math.Floor((yv - h.Y0) / h.DY))
	if col < 0 || row < 0 || col >= h.Width || row >= h.Height {
		return nil
	}
	z := h.At(col, row)
	if math.IsNaN(z) {
		return nil
	}

	cx := h.X0 + (float64(col)+0.5)*h.DX
	cy := h.Y0 + (float64(row)+0.5)*h.DY
	px, py := xa.ValueToPixel(cx), ya.ValueToPixel(cy)
	return &Result{
		Index:    row*h.Width + col,
		DataX:    cx,
		DataY:    cy,
		PixelX:   px,
		PixelY:   py,
		Distance: math.Hypot(px-pt.X, py-pt.Y),
		Channels: []float64{z},
	}
}
