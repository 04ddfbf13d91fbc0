package chartsync

import (
	"testing"

	"github.com/conneroisu/panesync/internal/chart"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pane(t *testing.T, arena *chart.Arena, id chart.PaneID) *chart.Pane {
	t.Helper()
	p, ok := arena.Pane(id)
	require.True(t, ok, "pane %s", id)
	return p
}

func TestSizeSyncRightGutterScenario(t *testing.T) {
	arena := newArena(t, "pane1", "pane2")
	p1, p2 := pane(t, arena, "pane1"), pane(t, arena, "pane2")
	p2.SetMeasuredGutter(chart.SideRight, 20)

	sync := NewAreaSizeSynchronizer(arena, SizeSyncRight)
	require.NoError(t, sync.AttachSurface("pane1"))
	require.NoError(t, sync.AttachSurface("pane2"))

	// a long label makes pane1 re-measure
	p1.SetMeasuredGutter(chart.SideRight, 40)

	assert.Equal(t, 40.0, p1.ReservedGutters().Right)
	assert.Equal(t, 40.0, p2.ReservedGutters().Right)
	assert.Equal(t, p1.PlotArea().Right(), p2.PlotArea().Right())
	assert.Equal(t, 20.0, p2.MeasuredGutters().Right)

	g, ok := sync.Gutter(chart.SideRight)
	require.True(t, ok)
	assert.Equal(t, 40.0, g)
	_, ok = sync.Gutter(chart.SideLeft)
	assert.False(t, ok)
}

func TestSizeSyncIdempotent(t *testing.T) {
	arena := newArena(t, "a", "b", "c")
	pane(t, arena, "a").SetMeasuredGutter(chart.SideRight, 31)
	pane(t, arena, "b").SetMeasuredGutter(chart.SideRight, 47)
	pane(t, arena, "c").SetMeasuredGutter(chart.SideRight, 12)

	sync := NewAreaSizeSynchronizer(arena, SizeSyncRight)
	for _, id := range []chart.PaneID{"a", "b", "c"} {
		require.NoError(t, sync.AttachSurface(id))
	}

	snapshot := func() []chart.Gutters {
		var out []chart.Gutters
		for _, p := range arena.Panes() {
			out = append(out, p.ReservedGutters())
		}
		return out
	}

	sync.Sync()
	first := snapshot()
	sync.Sync()
	assert.Equal(t, first, snapshot())
	for _, g := range first {
		assert.Equal(t, 47.0, g.Right)
	}
}

func TestSizeSyncShrinksWithMeasurement(t *testing.T) {
	arena := newArena(t, "a", "b")
	a, b := pane(t, arena, "a"), pane(t, arena, "b")
	a.SetMeasuredGutter(chart.SideRight, 60)
	b.SetMeasuredGutter(chart.SideRight, 30)

	sync := NewAreaSizeSynchronizer(arena, SizeSyncRight)
	require.NoError(t, sync.AttachSurface("a"))
	require.NoError(t, sync.AttachSurface("b"))
	assert.Equal(t, 60.0, b.ReservedGutters().Right)

	a.SetMeasuredGutter(chart.SideRight, 25)
	assert.Equal(t, 30.0, a.ReservedGutters().Right)
	assert.Equal(t, 30.0, b.ReservedGutters().Right)
}

func TestSizeSyncBothSidesIndependent(t *testing.T) {
	arena := newArena(t, "a", "b")
	a, b := pane(t, arena, "a"), pane(t, arena, "b")
	a.SetMeasuredGutter(chart.SideLeft, 50)
	a.SetMeasuredGutter(chart.SideRight, 10)
	b.SetMeasuredGutter(chart.SideLeft, 20)
	b.SetMeasuredGutter(chart.SideRight, 35)
	b.SetMeasuredGutter(chart.SideBottom, 18)

	sync := NewAreaSizeSynchronizer(arena, SizeSyncBoth)
	require.NoError(t, sync.AttachSurface("a"))
	require.NoError(t, sync.AttachSurface("b"))

	for _, p := range []*chart.Pane{a, b} {
		assert.Equal(t, 50.0, p.ReservedGutters().Left)
		assert.Equal(t, 35.0, p.ReservedGutters().Right)
	}
	assert.Equal(t, 0.0, a.ReservedGutters().Bottom)
	assert.Equal(t, 18.0, b.ReservedGutters().Bottom)
}

func TestSizeSyncDetachReverts(t *testing.T) {
	arena := newArena(t, "a", "b", "c")
	a, b, c := pane(t, arena, "a"), pane(t, arena, "b"), pane(t, arena, "c")
	a.SetMeasuredGutter(chart.SideRight, 80)
	b.SetMeasuredGutter(chart.SideRight, 20)
	c.SetMeasuredGutter(chart.SideRight, 40)

	sync := NewAreaSizeSynchronizer(arena, SizeSyncRight)
	for _, id := range []chart.PaneID{"a", "b", "c"} {
		require.NoError(t, sync.AttachSurface(id))
	}

	sync.DetachSurface("a")
	assert.Equal(t, 80.0, a.ReservedGutters().Right)
	assert.Equal(t, 40.0, b.ReservedGutters().Right)
	assert.Equal(t, 40.0, c.ReservedGutters().Right)
	assert.Equal(t, []chart.PaneID{"b", "c"}, sync.Members())

	// a detached pane no longer drives the group
	a.SetMeasuredGutter(chart.SideRight, 100)
	assert.Equal(t, 40.0, b.ReservedGutters().Right)

	sync.Close()
	assert.Equal(t, 20.0, b.ReservedGutters().Right)
	assert.Empty(t, sync.Members())
}

func TestSizeSyncDeferredUntilScopeCloses(t *testing.T) {
	arena := newArena(t, "a", "b")
	a, b := pane(t, arena, "a"), pane(t, arena, "b")

	sync := NewAreaSizeSynchronizer(arena, SizeSyncRight)
	require.NoError(t, sync.AttachSurface("a"))
	require.NoError(t, sync.AttachSurface("b"))

	scope := a.SuspendUpdates()
	a.SetMeasuredGutter(chart.SideRight, 30)
	a.SetMeasuredGutter(chart.SideRight, 45)
	assert.Equal(t, 0.0, b.ReservedGutters().Right)
	scope.Close()

	assert.Equal(t, 45.0, b.ReservedGutters().Right)
}

func TestSizeSyncPushDoesNotRaiseLayoutEvents(t *testing.T) {
	arena := newArena(t, "a", "b")
	a, b := pane(t, arena, "a"), pane(t, arena, "b")

	events := 0
	b.OnLayoutChanged(func(*chart.Pane) { events++ })

	sync := NewAreaSizeSynchronizer(arena, SizeSyncRight)
	require.NoError(t, sync.AttachSurface("a"))
	require.NoError(t, sync.AttachSurface("b"))
	a.SetMeasuredGutter(chart.SideRight, 70)

	assert.Equal(t, 70.0, b.ReservedGutters().Right)
	assert.Zero(t, events)
}

func TestSizeSyncAttachErrors(t *testing.T) {
	arena := newArena(t, "price", "volume")
	sync := NewAreaSizeSynchronizer(arena, SizeSyncRight)
	require.NoError(t, sync.AttachSurface("price"))

	err := sync.AttachSurface("price")
	assert.True(t, charterrors.HasCode(err, charterrors.ErrCodeAlreadyAttached))

	err = sync.AttachSurface("volum")
	require.Error(t, err)
	assert.True(t, charterrors.HasCode(err, charterrors.ErrCodePaneNotFound))
	assert.Contains(t, charterrors.FormatErrorWithSuggestions(err), "volume")
	assert.Equal(t, []chart.PaneID{"price"}, sync.Members())
}

func TestParseSizeSyncMode(t *testing.T) {
	for _, name := range SizeSyncModes {
		mode, err := ParseSizeSyncMode(name)
		require.NoError(t, err)
		assert.Equal(t, name, mode.String())
	}

	_, err := ParseSizeSyncMode("rigth")
	require.Error(t, err)
	assert.Contains(t, charterrors.FormatErrorWithSuggestions(err), "right")
	assert.Len(t, SizeSyncBoth.Sides(), 2)
}
