//go:build property

package hittest

import (
	"testing"

	"github.com/conneroisu/panesync/internal/chart"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func propertyPane() *chart.Pane {
	p := chart.NewPane("pane", chart.PaneOptions{
		Bounds:       chart.Rect{Width: 640, Height: 480},
		ManualLayout: true,
	})
	_ = p.AddXAxis(chart.NewAxis("x", chart.AxisOptions{Range: chart.Range{Min: 0, Max: 100}}))
	_ = p.AddYAxis(chart.NewAxis("y", chart.AxisOptions{Alignment: chart.AlignRight, Range: chart.Range{Min: -50, Max: 50}}))
	return p
}

// TestHitTestProperties validates hit-test invariants
func TestHitTestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	// Property: an empty series never hits
	properties.Property("empty series returns nil", prop.ForAll(
		func(x, y, radius float64) bool {
			p := propertyPane()
			s := chart.NewLineSeries("empty", chart.NewXyDataSeries("empty"))
			_ = p.AddSeries(s)
			return NewEngine().HitTest(s, chart.Point{X: x, Y: y}, radius, ModePoint) == nil
		},
		gen.Float64Range(-100, 800),
		gen.Float64Range(-100, 600),
		gen.Float64Range(0, 1e6),
	))

	// Property: with radius 0 a hit lands exactly on a point's pixel, and a
	// pointer placed on a point always hits
	properties.Property("radius zero is exact", prop.ForAll(
		func(ys []float64, pick int, dx, dy float64) bool {
			if len(ys) == 0 {
				return true
			}
			p := propertyPane()
			data := chart.NewXyDataSeries("s")
			for i, y := range ys {
				data.Append(float64(i)*100/float64(len(ys)), y)
			}
			s := chart.NewScatterSeries("s", data)
			_ = p.AddSeries(s)
			engine := NewEngine()

			i := pick % len(ys)
			on := chart.Point{X: s.XAxis().ValueToPixel(data.XAt(i)), Y: s.YAxis().ValueToPixel(ys[i])}
			if engine.HitTest(s, on, 0, ModePoint) == nil {
				return false
			}

			off := chart.Point{X: on.X + dx, Y: on.Y + dy}
			r := engine.HitTest(s, off, 0, ModePoint)
			return r == nil || (r.PixelX == off.X && r.PixelY == off.Y)
		},
		gen.SliceOf(gen.Float64Range(-50, 50)),
		gen.IntRange(0, 1000),
		gen.Float64Range(-3, 3),
		gen.Float64Range(-3, 3),
	))

	properties.TestingRun(t)
}
