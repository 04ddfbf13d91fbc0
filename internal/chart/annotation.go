package chart

// AxisMarker pins a value label to a Y axis, as last-price markers do.
// Its label is drawn inside the axis gutter, so a long label widens it.
type AxisMarker struct {
	ID       string
	YAxisID  AxisID
	Position float64

	pane *Pane
}

// NewAxisMarker creates a marker for the given Y axis.
func NewAxisMarker(id string, yAxis AxisID, position float64) *AxisMarker {
	return &AxisMarker{ID: id, YAxisID: yAxis, Position: position}
}

// SetPosition moves the marker and re-measures the owning pane.
func (m *AxisMarker) SetPosition(v float64) {
	if m.Position == v {
		return
	}
	m.Position = v
	if m.pane != nil {
		m.pane.relayout()
	}
}

// Label formats the marker value with its axis' label format.
func (m *AxisMarker) Label(a *Axis) string {
	return FormatLabel(a.Domain(), a.TextFormat(), m.Position)
}

// LabelExtent is the gutter depth the marker label needs.
func (m *AxisMarker) LabelExtent(a *Axis, metrics FontMetrics) float64 {
	return float64(textWidth(m.Label(a)))*metrics.CharWidth + metrics.TickLength + metrics.Padding
}
