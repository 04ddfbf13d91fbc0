package chart

import "sort"

// SeriesID identifies a renderable series within a pane.
type SeriesID string

// SeriesKind is the closed set of renderable series the engine knows how to
// draw and hit-test.
type SeriesKind int

const (
	KindLine SeriesKind = iota
	KindScatter
	KindColumn
	KindMountain
	KindBand
	KindCandlestick
	KindOHLC
	KindHeatmap
)

func (k SeriesKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindScatter:
		return "scatter"
	case KindColumn:
		return "column"
	case KindMountain:
		return "mountain"
	case KindBand:
		return "band"
	case KindCandlestick:
		return "candlestick"
	case KindOHLC:
		return "ohlc"
	case KindHeatmap:
		return "heatmap"
	default:
		return "unknown"
	}
}

// HitTestStrategy is the geometric test a series kind is resolved with.
type HitTestStrategy int

const (
	StrategyPoint HitTestStrategy = iota
	StrategyBand
	StrategyHeatmap
)

func (s HitTestStrategy) String() string {
	switch s {
	case StrategyPoint:
		return "point"
	case StrategyBand:
		return "band"
	case StrategyHeatmap:
		return "heatmap"
	default:
		return "unknown"
	}
}

// Strategy maps a kind onto its hit-test strategy.
func (k SeriesKind) Strategy() HitTestStrategy {
	switch k {
	case KindBand, KindCandlestick, KindOHLC:
		return StrategyBand
	case KindHeatmap:
		return StrategyHeatmap
	default:
		return StrategyPoint
	}
}

// defaultDataPointWidth is the fraction of the point spacing a bar occupies.
const defaultDataPointWidth = 0.6

// RenderableSeries is a tagged variant: Kind selects which one of the data
// buffers is set. Series are created with the New*Series constructors and
// bound to their axes when added to a pane.
type RenderableSeries struct {
	ID             SeriesID
	Kind           SeriesKind
	XAxisID        AxisID
	YAxisID        AxisID
	HitTestable    bool
	ZIndex         int
	DataPointWidth float64

	xy   *XyDataSeries
	xyy  *XyyDataSeries
	ohlc *OhlcDataSeries
	grid *UniformHeatmapData

	xAxis *Axis
	yAxis *Axis
	pane  *Pane
}

func newSeries(id SeriesID, kind SeriesKind) *RenderableSeries {
	return &RenderableSeries{
		ID:             id,
		Kind:           kind,
		HitTestable:    true,
		DataPointWidth: defaultDataPointWidth,
	}
}

// NewLineSeries creates a line series over XY data.
func NewLineSeries(id SeriesID, data *XyDataSeries) *RenderableSeries {
	s := newSeries(id, KindLine)
	s.xy = data
	return s
}

// NewScatterSeries creates a scatter series over XY data.
func NewScatterSeries(id SeriesID, data *XyDataSeries) *RenderableSeries {
	s := newSeries(id, KindScatter)
	s.xy = data
	return s
}

// NewColumnSeries creates a column series over XY data.
func NewColumnSeries(id SeriesID, data *XyDataSeries) *RenderableSeries {
	s := newSeries(id, KindColumn)
	s.xy = data
	return s
}

// NewMountainSeries creates a filled-area series over XY data.
func NewMountainSeries(id SeriesID, data *XyDataSeries) *RenderableSeries {
	s := newSeries(id, KindMountain)
	s.xy = data
	return s
}

// NewBandSeries creates a band series over XYY data.
func NewBandSeries(id SeriesID, data *XyyDataSeries) *RenderableSeries {
	s := newSeries(id, KindBand)
	s.xyy = data
	return s
}

// NewCandlestickSeries creates a candlestick series over OHLC data.
func NewCandlestickSeries(id SeriesID, data *OhlcDataSeries) *RenderableSeries {
	s := newSeries(id, KindCandlestick)
	s.ohlc = data
	return s
}

// NewOhlcSeries creates an OHLC bar series over OHLC data.
func NewOhlcSeries(id SeriesID, data *OhlcDataSeries) *RenderableSeries {
	s := newSeries(id, KindOHLC)
	s.ohlc = data
	return s
}

// NewHeatmapSeries creates a uniform heatmap series.
func NewHeatmapSeries(id SeriesID, data *UniformHeatmapData) *RenderableSeries {
	s := newSeries(id, KindHeatmap)
	s.grid = data
	return s
}

// OnAxes selects the axis pair by id. Empty ids bind to the pane's first
// X or Y axis.
func (s *RenderableSeries) OnAxes(x, y AxisID) *RenderableSeries {
	s.XAxisID = x
	s.YAxisID = y
	return s
}

// XY returns the XY buffer, or nil for other kinds.
func (s *RenderableSeries) XY() *XyDataSeries { return s.xy }

// XYY returns the XYY buffer, or nil for other kinds.
func (s *RenderableSeries) XYY() *XyyDataSeries { return s.xyy }

// OHLC returns the OHLC buffer, or nil for other kinds.
func (s *RenderableSeries) OHLC() *OhlcDataSeries { return s.ohlc }

// Heatmap returns the grid, or nil for other kinds.
func (s *RenderableSeries) Heatmap() *UniformHeatmapData { return s.grid }

// XAxis returns the bound X axis; nil until the series is added to a pane.
func (s *RenderableSeries) XAxis() *Axis { return s.xAxis }

// YAxis returns the bound Y axis; nil until the series is added to a pane.
func (s *RenderableSeries) YAxis() *Axis { return s.yAxis }

// Pane returns the owning pane, if any.
func (s *RenderableSeries) Pane() *Pane { return s.pane }

// Count returns the number of points (cells for heatmaps).
func (s *RenderableSeries) Count() int {
	switch {
	case s.xy != nil:
		return s.xy.Count()
	case s.xyy != nil:
		return s.xyy.Count()
	case s.ohlc != nil:
		return s.ohlc.Count()
	case s.grid != nil:
		return s.grid.Count()
	}
	return 0
}

// columns returns the domain column for point buffers.
func (s *RenderableSeries) columns() *xColumn {
	switch {
	case s.xy != nil:
		return &s.xy.xColumn
	case s.xyy != nil:
		return &s.xyy.xColumn
	case s.ohlc != nil:
		return &s.ohlc.xColumn
	}
	return nil
}

// XValues exposes the domain column of point buffers; nil for heatmaps.
func (s *RenderableSeries) XValues() []float64 {
	if c := s.columns(); c != nil {
		return c.x
	}
	return nil
}

// Sorted reports whether the domain column is usable for binary search.
// Heatmaps are always addressable by cell and report true when valid.
func (s *RenderableSeries) Sorted() bool {
	if s.grid != nil {
		return s.grid.Valid()
	}
	if c := s.columns(); c != nil {
		return c.Sorted()
	}
	return false
}

// DataXRange returns the domain extent of the data.
func (s *RenderableSeries) DataXRange() (Range, bool) {
	if s.grid != nil {
		return s.grid.XRange()
	}
	if c := s.columns(); c != nil {
		return c.XRange()
	}
	return Range{}, false
}

// DataYRange returns the value extent across all y channels.
func (s *RenderableSeries) DataYRange() (Range, bool) {
	switch {
	case s.xy != nil:
		return s.xy.YRange()
	case s.xyy != nil:
		return s.xyy.YRange()
	case s.ohlc != nil:
		return s.ohlc.YRange()
	case s.grid != nil:
		return s.grid.YRange()
	}
	return Range{}, false
}

// Channels returns the y channels at index i: one for XY, two for XYY,
// open/high/low/close for OHLC.
func (s *RenderableSeries) Channels(i int) []float64 {
	switch {
	case s.xy != nil:
		return []float64{s.xy.y[i]}
	case s.xyy != nil:
		return []float64{s.xyy.y0[i], s.xyy.y1[i]}
	case s.ohlc != nil:
		return []float64{s.ohlc.open[i], s.ohlc.high[i], s.ohlc.low[i], s.ohlc.close[i]}
	}
	return nil
}

// LastY returns the primary channel at the last index, used for axis
// markers.
func (s *RenderableSeries) LastY() (float64, bool) {
	n := s.Count()
	if n == 0 || s.grid != nil {
		return 0, false
	}
	switch {
	case s.xy != nil:
		return s.xy.y[n-1], true
	case s.xyy != nil:
		return s.xyy.y0[n-1], true
	default:
		return s.ohlc.close[n-1], true
	}
}

// DataYRangeIn returns the value extent of the points whose domain value
// lies within x. Unsorted buffers fall back to the full extent.
func (s *RenderableSeries) DataYRangeIn(x Range) (Range, bool) {
	c := s.columns()
	if c == nil || !c.Sorted() {
		return s.DataYRange()
	}
	lo := sort.SearchFloat64s(c.x, x.Min)
	hi := sort.Search(len(c.x), func(i int) bool { return c.x[i] > x.Max })
	if lo >= hi {
		return Range{}, false
	}
	switch {
	case s.xy != nil:
		return extent(s.xy.y[lo:hi])
	case s.xyy != nil:
		return extent(s.xyy.y0[lo:hi], s.xyy.y1[lo:hi])
	default:
		return extent(s.ohlc.high[lo:hi], s.ohlc.low[lo:hi])
	}
}
