package session

import (
	"github.com/conneroisu/panesync/internal/chart"
)

// Snapshot is the observable layout state after an event.
type Snapshot struct {
	Panes []PaneSnapshot `json:"panes" yaml:"panes"`
}

// PaneSnapshot captures one pane.
type PaneSnapshot struct {
	ID       string           `json:"id" yaml:"id"`
	Bounds   chart.Rect       `json:"bounds" yaml:"bounds"`
	PlotArea chart.Rect       `json:"plot_area" yaml:"plot_area"`
	Measured chart.Gutters    `json:"measured" yaml:"measured"`
	Reserved chart.Gutters    `json:"reserved" yaml:"reserved"`
	Axes     []AxisSnapshot   `json:"axes" yaml:"axes"`
	Markers  []MarkerSnapshot `json:"markers,omitempty" yaml:"markers,omitempty"`
}

// AxisSnapshot captures one axis.
type AxisSnapshot struct {
	ID      string      `json:"id" yaml:"id"`
	Align   string      `json:"alignment" yaml:"alignment"`
	Visible chart.Range `json:"visible_range" yaml:"visible_range"`
	Labels  []string    `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// MarkerSnapshot captures one axis marker.
type MarkerSnapshot struct {
	ID       string  `json:"id" yaml:"id"`
	Axis     string  `json:"axis" yaml:"axis"`
	Position float64 `json:"position" yaml:"position"`
	Label    string  `json:"label" yaml:"label"`
}

// Snapshot captures every pane of the chart in layout order.
func (s *Session) Snapshot() Snapshot {
	panes := s.chart.Panes()
	out := Snapshot{Panes: make([]PaneSnapshot, 0, len(panes))}
	for _, p := range panes {
		out.Panes = append(out.Panes, snapshotPane(p))
	}
	return out
}

func snapshotPane(p *chart.Pane) PaneSnapshot {
	ps := PaneSnapshot{
		ID:       string(p.ID()),
		Bounds:   p.Bounds(),
		PlotArea: p.PlotArea(),
		Measured: p.MeasuredGutters(),
		Reserved: p.ReservedGutters(),
	}
	for _, a := range p.Axes() {
		as := AxisSnapshot{
			ID:      string(a.ID()),
			Align:   a.Alignment().String(),
			Visible: a.VisibleRange(),
		}
		if a.IsVisible() {
			as.Labels = a.TickLabels()
		}
		ps.Axes = append(ps.Axes, as)
	}
	for _, m := range p.Annotations() {
		ms := MarkerSnapshot{ID: m.ID, Axis: string(m.YAxisID), Position: m.Position}
		if a, ok := p.Axis(m.YAxisID); ok {
			ms.Label = m.Label(a)
		}
		ps.Markers = append(ps.Markers, ms)
	}
	return ps
}

// Pane returns the snapshot of pane id.
func (s Snapshot) Pane(id string) (PaneSnapshot, bool) {
	for _, p := range s.Panes {
		if p.ID == id {
			return p, true
		}
	}
	return PaneSnapshot{}, false
}
