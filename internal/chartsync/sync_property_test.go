//go:build property

package chartsync

import (
	"fmt"
	"testing"

	"github.com/conneroisu/panesync/internal/chart"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func propertyArena(n int) *chart.Arena {
	arena := chart.NewArena()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%d", i)
		p := chart.NewPane(chart.PaneID(id), chart.PaneOptions{
			Bounds:       chart.Rect{Width: 500, Height: 100},
			ManualLayout: true,
		})
		_ = p.AddXAxis(chart.NewAxis(chart.AxisID(id+"-x"), chart.AxisOptions{Range: chart.Range{Min: 0, Max: 1}}))
		_ = p.AddYAxis(chart.NewAxis(chart.AxisID(id+"-y"), chart.AxisOptions{Alignment: chart.AlignRight}))
		_ = arena.AddPane(p)
	}
	return arena
}

// TestRangeSyncProperties validates the range group invariants
func TestRangeSyncProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: after any mutation every member reports the mutated range
	properties.Property("members mirror every mutation", prop.ForAll(
		func(members int, origin int, lo float64, span float64) bool {
			arena := propertyArena(members)
			sync := NewAxisRangeSynchronizer(arena)
			for i := 0; i < members; i++ {
				if err := sync.Attach(chart.AxisID(fmt.Sprintf("p%d-x", i))); err != nil {
					return false
				}
			}

			src, _ := arena.Axis(chart.AxisID(fmt.Sprintf("p%d-x", origin%members)))
			want := chart.Range{Min: lo, Max: lo + span}
			if err := src.SetVisibleRange(want); err != nil {
				return false
			}
			for _, id := range sync.Members() {
				a, _ := arena.Axis(id)
				if !a.VisibleRange().Equal(want) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 100),
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(0, 1e6),
	))

	// Property: a late member adopts the consensus range on attach
	properties.Property("attach adopts consensus", prop.ForAll(
		func(lo float64, span float64) bool {
			arena := propertyArena(2)
			sync := NewAxisRangeSynchronizer(arena)
			first, _ := arena.Axis("p0-x")
			want := chart.Range{Min: lo, Max: lo + span}
			_ = first.SetVisibleRange(want)
			_ = sync.Attach("p0-x")
			if err := sync.Attach("p1-x"); err != nil {
				return false
			}
			late, _ := arena.Axis("p1-x")
			return late.VisibleRange().Equal(want)
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(0, 1e6),
	))

	properties.TestingRun(t)
}

// TestSizeSyncProperties validates the size group invariants
func TestSizeSyncProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2424)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: every member reserves the group maximum, and a second pass
	// changes nothing
	properties.Property("right gutters equal the maximum and are stable", prop.ForAll(
		func(gutters []float64) bool {
			if len(gutters) == 0 {
				return true
			}
			arena := propertyArena(len(gutters))
			sync := NewAreaSizeSynchronizer(arena, SizeSyncRight)
			widest := 0.0
			for i, g := range gutters {
				p, _ := arena.Pane(chart.PaneID(fmt.Sprintf("p%d", i)))
				p.SetMeasuredGutter(chart.SideRight, g)
				widest = max(widest, g)
				if err := sync.AttachSurface(p.ID()); err != nil {
					return false
				}
			}

			before := make([]float64, 0, len(gutters))
			for _, p := range arena.Panes() {
				if p.ReservedGutters().Right != widest {
					return false
				}
				before = append(before, p.ReservedGutters().Right)
			}
			sync.Sync()
			for i, p := range arena.Panes() {
				if p.ReservedGutters().Right != before[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 200)),
	))

	properties.TestingRun(t)
}
