package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/panesync/internal/chart"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/hittest"
	"github.com/conneroisu/panesync/internal/mockdata"
	"github.com/conneroisu/panesync/internal/stockchart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	prices := mockdata.NewPriceGenerator(11).Generate(mockdata.Options{Count: 300})
	c, err := stockchart.Build(prices, stockchart.DefaultLayout())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return New(c)
}

func xRanges(snap Snapshot) []chart.Range {
	var out []chart.Range
	for _, p := range snap.Panes {
		out = append(out, p.Axes[0].Visible)
	}
	return out
}

func assertMirrored(t *testing.T, snap Snapshot) {
	t.Helper()
	ranges := xRanges(snap)
	for _, r := range ranges[1:] {
		assert.Equal(t, ranges[0], r)
	}
}

func TestApplyPanMirrorsAllPanes(t *testing.T) {
	s := newSession(t)
	before := s.Snapshot()

	step, err := s.Apply(context.Background(), Event{Type: EventPan, Pixels: 120})
	require.NoError(t, err)
	assert.Equal(t, EventPan, step.Event)
	assert.NotEqual(t, xRanges(before)[0], xRanges(step.Snapshot)[0])
	assertMirrored(t, step.Snapshot)
}

func TestApplyZoomOnSecondaryPane(t *testing.T) {
	s := newSession(t)
	before := xRanges(s.Snapshot())[0]

	axis := string(stockchart.XAxisID(stockchart.PaneRSI))
	step, err := s.Apply(context.Background(), Event{Type: EventZoom, Axis: axis, Factor: 2, Anchor: 300})
	require.NoError(t, err)

	after := xRanges(step.Snapshot)[0]
	assert.InDelta(t, before.Span()/2, after.Span(), 1e-6*before.Span())
	assertMirrored(t, step.Snapshot)
}

func TestApplyBatch(t *testing.T) {
	s := newSession(t)
	before := xRanges(s.Snapshot())[0]

	step, err := s.Apply(context.Background(), Event{Type: EventBatch, Events: []Event{
		{Type: EventPan, Pixels: 50},
		{Type: EventPan, Pixels: -50},
		{Type: EventResize, Width: 900, Height: 600},
	}})
	require.NoError(t, err)
	assertMirrored(t, step.Snapshot)
	after := xRanges(step.Snapshot)[0]
	assert.InDelta(t, before.Min, after.Min, 1e-6*before.Span())
	for _, p := range step.Snapshot.Panes {
		assert.Equal(t, 900.0, p.Bounds.Width)
	}
}

func TestApplyBatchKeepsLastPan(t *testing.T) {
	price := string(stockchart.XAxisID(stockchart.PanePrice))
	volume := string(stockchart.XAxisID(stockchart.PaneVolume))

	expected := newSession(t)
	want, err := expected.Apply(context.Background(), Event{Type: EventPan, Axis: price, Pixels: -40})
	require.NoError(t, err)

	s := newSession(t)
	step, err := s.Apply(context.Background(), Event{Type: EventBatch, Events: []Event{
		{Type: EventPan, Axis: volume, Pixels: 200},
		{Type: EventPan, Axis: price, Pixels: -40},
	}})
	require.NoError(t, err)
	assertMirrored(t, step.Snapshot)
	assert.Equal(t, xRanges(want.Snapshot)[0], xRanges(step.Snapshot)[0])
}

func TestApplyRelabelWidensEveryGutter(t *testing.T) {
	s := newSession(t)
	before, ok := s.Snapshot().Pane(string(stockchart.PaneVolume))
	require.True(t, ok)

	step, err := s.Apply(context.Background(), Event{
		Type:   EventRelabel,
		Axis:   string(stockchart.YAxisID(stockchart.PanePrice)),
		Format: "$%.10f",
	})
	require.NoError(t, err)

	price, ok := step.Snapshot.Pane(string(stockchart.PanePrice))
	require.True(t, ok)
	volume, ok := step.Snapshot.Pane(string(stockchart.PaneVolume))
	require.True(t, ok)
	assert.Greater(t, volume.Reserved.Right, before.Reserved.Right)
	assert.Equal(t, price.Measured.Right, volume.Reserved.Right)
	assert.Equal(t, price.PlotArea.Right(), volume.PlotArea.Right())
}

func TestApplyPointer(t *testing.T) {
	s := newSession(t)
	price, ok := s.Chart().Arena.Pane(stockchart.PanePrice)
	require.True(t, ok)

	const i = 250
	prices := s.Chart().Prices
	x := price.XAxes()[0].ValueToPixel(prices.Time[i])
	y := price.YAxes()[0].ValueToPixel(prices.Close[i])

	r := 0.0
	step, err := s.Apply(context.Background(), Event{Type: EventPointer, X: x, Y: y, Radius: &r, Mode: "vertical"})
	require.NoError(t, err)
	require.NotEmpty(t, step.Hits)

	var found bool
	for _, h := range step.Hits {
		if h.SeriesID == "candles" {
			found = true
			assert.Equal(t, i, h.Index)
			assert.Equal(t, prices.Time[i], h.DataX)
		}
	}
	assert.True(t, found)
	assert.Same(t, price, s.PaneAt(chart.Point{X: x, Y: y}))
}

func TestApplyPointerOutsidePanes(t *testing.T) {
	s := newSession(t)
	step, err := s.Apply(context.Background(), Event{Type: EventPointer, X: -10, Y: -10})
	require.NoError(t, err)
	assert.Empty(t, step.Hits)
}

func TestApplyErrors(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, Event{Type: EventPan, Axis: "prce-x"})
	require.Error(t, err)
	assert.True(t, charterrors.HasCode(err, charterrors.ErrCodeAxisNotFound))
	assert.Contains(t, charterrors.FormatErrorWithSuggestions(err), "price-x")

	_, err = s.Apply(ctx, Event{Type: EventZoomExtents, Pane: "nope"})
	assert.True(t, charterrors.HasCode(err, charterrors.ErrCodePaneNotFound))

	_, err = s.Apply(ctx, Event{Type: EventPointer, Mode: "nearest"})
	assert.Error(t, err)

	_, err = s.Apply(ctx, Event{Type: EventZoom})
	assert.True(t, charterrors.IsValidationError(err))

	before := s.Snapshot()
	step, err := s.Apply(ctx, Event{Type: EventRelabel, Axis: "rsi-y", Format: "%d"})
	assert.True(t, charterrors.HasCode(err, charterrors.ErrCodeInvalidEvent))
	require.NotNil(t, step)
	assert.Equal(t, before, step.Snapshot)
}

func TestZoomExtentsRestores(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	original := xRanges(s.Snapshot())[0]

	_, err := s.Apply(ctx, Event{Type: EventZoom, Factor: 3, Anchor: 100})
	require.NoError(t, err)
	step, err := s.Apply(ctx, Event{Type: EventZoomExtents})
	require.NoError(t, err)
	assert.Equal(t, original, xRanges(step.Snapshot)[0])
}

const script = `
name: walkthrough
events:
  - type: pan
    pixels: 40
  - type: zoom
    axis: volume-y
    factor: 0
  - type: zoom
    axis: nope-x
    factor: 2
  - type: pointer
    x: 600
    y: 200
`

func TestRun(t *testing.T) {
	s := newSession(t)

	_, err := ParseScript([]byte(script), "yaml")
	require.Error(t, err, "zero zoom factor is rejected at parse time")

	sc := &Script{Name: "walkthrough", Events: []Event{
		{Type: EventPan, Pixels: 40},
		{Type: EventZoom, Axis: "nope-x", Factor: 2},
		{Type: EventPointer, X: 600, Y: 200},
	}}
	steps, collector := s.Run(context.Background(), sc)
	require.Len(t, steps, 3)
	for i, st := range steps {
		assert.Equal(t, i, st.Index)
	}
	assert.Empty(t, steps[0].Error)
	assert.NotEmpty(t, steps[1].Error)
	require.Len(t, collector.GetErrors(), 1)
	assert.Equal(t, 1, collector.GetErrors()[0].Index)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps, collector := s.Run(ctx, &Script{Events: []Event{{Type: EventPan, Pixels: 1}}})
	assert.Empty(t, steps)
	assert.True(t, collector.HasErrors())
}

func TestEventValidate(t *testing.T) {
	err := Event{Type: "zom"}.Validate()
	var ce *charterrors.ChartError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Suggestions, "did you mean 'zoom'?")

	neg := -1.0
	assert.Error(t, Event{Type: EventPointer, Radius: &neg}.Validate())
	assert.Error(t, Event{Type: EventResize, Width: 10}.Validate())
	assert.Error(t, Event{Type: EventRelabel, Axis: "price-y"}.Validate())
	assert.Error(t, Event{Type: EventBatch, Events: []Event{{Type: EventBatch}}}.Validate())
	assert.Error(t, Event{Type: EventBatch, Events: []Event{{Type: EventZoom}}}.Validate())
	assert.NoError(t, Event{Type: EventBatch, Events: []Event{{Type: EventPan, Pixels: 3}}}.Validate())
}

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(`{"name":"j","events":[{"type":"resize","width":800,"height":600}]}`), "json")
	require.NoError(t, err)
	assert.Equal(t, "j", s.Name)
	require.Len(t, s.Events, 1)
	assert.Equal(t, 800.0, s.Events[0].Width)

	s, err = ParseScript([]byte("events:\n  - type: pointer\n    x: 1\n    y: 2\n    radius: 0\n"), "yml")
	require.NoError(t, err)
	require.NotNil(t, s.Events[0].Radius)
	assert.Zero(t, *s.Events[0].Radius)

	_, err = ParseScript([]byte("x"), "toml")
	assert.True(t, charterrors.HasCode(err, charterrors.ErrCodeDecodeFailed))

	_, err = ParseScript([]byte("events: [\n"), "yaml")
	assert.True(t, charterrors.HasCode(err, charterrors.ErrCodeDecodeFailed))
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pan-left.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  - type: pan\n    pixels: -20\n"), 0o600))

	s, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, "pan-left", s.Name)

	_, err = LoadScript(filepath.Join(dir, "missing.yaml"))
	assert.True(t, charterrors.HasCode(err, charterrors.ErrCodeFileNotFound))

	_, err = LoadScript(filepath.Join(dir, "pan-left.txt"))
	assert.True(t, charterrors.IsValidationError(err))
	_, err = LoadScript("../pan-left.yaml")
	assert.True(t, charterrors.IsValidationError(err))
}

func TestWithHitTestDefaults(t *testing.T) {
	prices := mockdata.NewPriceGenerator(1).Generate(mockdata.Options{Count: 60})
	c, err := stockchart.Build(prices, stockchart.DefaultLayout())
	require.NoError(t, err)
	defer c.Close()

	s := New(c, WithHitTestDefaults(0, hittest.ModeVertical),
		WithEngine(hittest.NewEngine(hittest.WithTieBreak(hittest.TieBreakZOrder))))
	assert.Equal(t, hittest.ModeVertical, s.mode)
	assert.Zero(t, s.radius)
	assert.Equal(t, hittest.TieBreakZOrder, s.engine.TieBreak())
	assert.NotEmpty(t, s.ID)
}
