// Package stockchart assembles the multi-pane stock chart: a price pane with
// moving averages, MACD, RSI and volume panes, their X axes mirrored by one
// range group and their right gutters aligned by one size group.
package stockchart

import (
	"context"
	"math"

	"github.com/conneroisu/panesync/internal/chart"
	"github.com/conneroisu/panesync/internal/chartsync"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/indicators"
	"github.com/conneroisu/panesync/internal/logging"
	"github.com/conneroisu/panesync/internal/mockdata"
)

// Pane ids, top to bottom.
const (
	PanePrice  chart.PaneID = "price"
	PaneMACD   chart.PaneID = "macd"
	PaneRSI    chart.PaneID = "rsi"
	PaneVolume chart.PaneID = "volume"
)

// PaneOrder lists the panes top to bottom.
var PaneOrder = []chart.PaneID{PanePrice, PaneMACD, PaneRSI, PaneVolume}

// XAxisID and YAxisID name a pane's axes.
func XAxisID(p chart.PaneID) chart.AxisID { return chart.AxisID(string(p) + "-x") }
func YAxisID(p chart.PaneID) chart.AxisID { return chart.AxisID(string(p) + "-y") }

// Layout sizes the chart.
type Layout struct {
	Width    float64
	Height   float64
	Ratios   []float64
	Spacing  float64
	Metrics  chart.FontMetrics
	SizeSync chartsync.SizeSyncMode
	// RangeSync mirrors the X axes across panes.
	RangeSync bool
}

// DefaultLayout gives the price pane half the height.
func DefaultLayout() Layout {
	return Layout{
		Width:     1200,
		Height:    800,
		Ratios:    []float64{4, 1.5, 1.5, 1},
		Spacing:   4,
		Metrics:   chart.DefaultFontMetrics(),
		SizeSync:  chartsync.SizeSyncRight,
		RangeSync: true,
	}
}

// Chart is an assembled layout. The arena owns the panes; the groups hold
// handles into it.
type Chart struct {
	Arena     *chart.Arena
	RangeSync *chartsync.AxisRangeSynchronizer
	SizeSync  *chartsync.AreaSizeSynchronizer
	Prices    *mockdata.PriceSeries

	layout Layout
	logger logging.Logger
}

// Option configures Build.
type Option func(*Chart)

// WithLogger sets the logger for the chart and its groups.
func WithLogger(l logging.Logger) Option {
	return func(c *Chart) {
		if l != nil {
			c.logger = l
		}
	}
}

type paneModel struct {
	id         chart.PaneID
	textFormat string
	maxTicks   int
	growBy     chart.GrowBy
	main       bool
	build      func(p *chart.Pane, prices *mockdata.PriceSeries) error
}

var models = []paneModel{
	{id: PanePrice, textFormat: "$%.4f", maxTicks: 8, growBy: chart.GrowBy{Lo: 0.05, Hi: 0.05}, main: true, build: buildPrice},
	{id: PaneMACD, textFormat: "%.2f", maxTicks: 4, build: buildMACD},
	{id: PaneRSI, textFormat: "%.1f", maxTicks: 4, build: buildRSI},
	{id: PaneVolume, textFormat: "%.2e", maxTicks: 4, build: buildVolume},
}

// Build assembles the chart over prices.
func Build(prices *mockdata.PriceSeries, layout Layout, opts ...Option) (*Chart, error) {
	if prices == nil || prices.Len() == 0 {
		return nil, charterrors.NewDataError(charterrors.ErrCodeValidationFailed, "no price data", nil)
	}
	if layout.Width <= 0 || layout.Height <= 0 {
		return nil, charterrors.NewValidationError(charterrors.ErrCodeValidationFailed, "layout width and height must be positive")
	}

	c := &Chart{
		Arena:  chart.NewArena(),
		Prices: prices,
		layout: layout,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("stockchart")

	c.RangeSync = chartsync.NewAxisRangeSynchronizer(c.Arena,
		chartsync.WithLogger(c.logger), chartsync.WithName("time"))
	c.SizeSync = chartsync.NewAreaSizeSynchronizer(c.Arena, layout.SizeSync,
		chartsync.WithLogger(c.logger), chartsync.WithName("gutters"))

	bounds := chart.StackVertical(chart.Rect{Width: layout.Width, Height: layout.Height},
		len(models), layout.Ratios, layout.Spacing)

	for i, m := range models {
		if err := c.addPane(m, bounds[i]); err != nil {
			return nil, err
		}
	}

	c.logger.Info(context.Background(), "chart built",
		"panes", len(models), "bars", prices.Len(), "sync_mode", layout.SizeSync.String())
	return c, nil
}

func (c *Chart) addPane(m paneModel, bounds chart.Rect) error {
	p := chart.NewPane(m.id, chart.PaneOptions{Bounds: bounds, Metrics: c.layout.Metrics})
	x := chart.NewAxis(XAxisID(m.id), chart.AxisOptions{
		Domain:    chart.DomainDateTime,
		Alignment: chart.AlignBottom,
		GrowBy:    chart.GrowBy{Hi: 0.05},
		Hidden:    !m.main,
	})
	if err := p.AddXAxis(x); err != nil {
		return err
	}
	if err := c.Arena.AddPane(p); err != nil {
		return err
	}
	if err := c.SizeSync.AttachSurface(m.id); err != nil {
		return err
	}
	if c.layout.RangeSync {
		if err := c.RangeSync.Attach(x.ID()); err != nil {
			return err
		}
	}

	return p.WithSuspendedUpdates(func() error {
		y := chart.NewAxis(YAxisID(m.id), chart.AxisOptions{
			Alignment:  chart.AlignRight,
			GrowBy:     m.growBy,
			TextFormat: m.textFormat,
			AutoRange:  true,
			MaxTicks:   m.maxTicks,
		})
		if err := p.AddYAxis(y); err != nil {
			return err
		}
		if err := m.build(p, c.Prices); err != nil {
			return charterrors.WrapData(err, charterrors.ErrCodeValidationFailed, "cannot build pane").
				WithPane(string(m.id))
		}
		p.ZoomExtents()
		return nil
	})
}

// addWithMarker adds s and pins its last finite value to the Y axis.
func addWithMarker(p *chart.Pane, s *chart.RenderableSeries) error {
	if err := p.AddSeries(s); err != nil {
		return err
	}
	last, ok := s.LastY()
	if !ok || math.IsNaN(last) {
		return nil
	}
	return p.AddAnnotation(chart.NewAxisMarker(string(s.ID)+"-last", s.YAxisID, last))
}

func buildPrice(p *chart.Pane, prices *mockdata.PriceSeries) error {
	ohlc := chart.NewOhlcDataSeries(prices.Symbol)
	if err := ohlc.AppendRange(prices.Time, prices.Open, prices.High, prices.Low, prices.Close); err != nil {
		return err
	}
	if err := addWithMarker(p, chart.NewCandlestickSeries("candles", ohlc)); err != nil {
		return err
	}

	for _, ma := range []struct {
		id     chart.SeriesID
		period int
	}{{"sma50", 50}, {"sma200", 200}} {
		line := chart.NewXyDataSeries(string(ma.id))
		if err := line.AppendRange(prices.Time, indicators.SMA(prices.Close, ma.period)); err != nil {
			return err
		}
		if err := addWithMarker(p, chart.NewLineSeries(ma.id, line)); err != nil {
			return err
		}
	}
	return nil
}

func buildMACD(p *chart.Pane, prices *mockdata.PriceSeries) error {
	points := indicators.MACD(prices.Close, 12, 25, 9)
	hist := chart.NewXyDataSeries("histogram")
	band := chart.NewXyyDataSeries("macd")
	for i, pt := range points {
		hist.Append(prices.Time[i], pt.Divergence)
		band.Append(prices.Time[i], pt.MACD, pt.Signal)
	}
	if err := addWithMarker(p, chart.NewColumnSeries("histogram", hist)); err != nil {
		return err
	}
	return addWithMarker(p, chart.NewBandSeries("macd", band))
}

func buildRSI(p *chart.Pane, prices *mockdata.PriceSeries) error {
	line := chart.NewXyDataSeries("rsi")
	if err := line.AppendRange(prices.Time, indicators.RSI(prices.Close, 14)); err != nil {
		return err
	}
	return addWithMarker(p, chart.NewLineSeries("rsi", line))
}

func buildVolume(p *chart.Pane, prices *mockdata.PriceSeries) error {
	cols := chart.NewXyDataSeries("volume")
	if err := cols.AppendRange(prices.Time, prices.Volume); err != nil {
		return err
	}
	return addWithMarker(p, chart.NewColumnSeries("volume", cols))
}

// Layout returns the layout the chart was built with, updated by Resize.
func (c *Chart) Layout() Layout { return c.layout }

// Panes returns the panes top to bottom.
func (c *Chart) Panes() []*chart.Pane { return c.Arena.Panes() }

// Resize restacks the panes into a new size. Layout notifications are held
// until every pane has moved, so each group runs once per pane.
func (c *Chart) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return charterrors.NewValidationError(charterrors.ErrCodeValidationFailed, "size must be positive")
	}
	c.layout.Width, c.layout.Height = width, height
	panes := c.Panes()
	bounds := chart.StackVertical(chart.Rect{Width: width, Height: height}, len(panes), c.layout.Ratios, c.layout.Spacing)
	return chart.WithSuspendedUpdates(func() error {
		for i, p := range panes {
			p.Resize(bounds[i])
		}
		return nil
	}, panes...)
}

// Close detaches every pane and axis from the groups.
func (c *Chart) Close() {
	c.RangeSync.Close()
	c.SizeSync.Close()
}
