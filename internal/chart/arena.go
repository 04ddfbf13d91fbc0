package chart

import (
	charterrors "github.com/conneroisu/panesync/internal/errors"
)

// Arena owns the panes of one layout, and through them their axes.
// Synchronizers and sessions hold PaneID and AxisID handles and resolve them
// here, so a removed pane simply stops resolving.
type Arena struct {
	panes []*Pane
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// AddPane registers p. Pane ids and axis ids must be unique across the
// arena.
func (a *Arena) AddPane(p *Pane) error {
	if _, dup := a.Pane(p.id); dup {
		return charterrors.ErrDuplicateID("pane", string(p.id)).WithPane(string(p.id))
	}
	for _, axis := range p.Axes() {
		if _, dup := a.Axis(axis.id); dup {
			return charterrors.ErrDuplicateID("axis", string(axis.id)).
				WithPane(string(p.id)).
				WithAxis(string(axis.id))
		}
	}
	p.arena = a
	a.panes = append(a.panes, p)
	return nil
}

// RemovePane drops a pane. Handles to it and its axes stop resolving.
func (a *Arena) RemovePane(id PaneID) bool {
	for i, p := range a.panes {
		if p.id == id {
			a.panes = append(a.panes[:i], a.panes[i+1:]...)
			p.arena = nil
			return true
		}
	}
	return false
}

// Pane resolves a pane handle.
func (a *Arena) Pane(id PaneID) (*Pane, bool) {
	for _, p := range a.panes {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

// Axis resolves an axis handle across all panes.
func (a *Arena) Axis(id AxisID) (*Axis, bool) {
	for _, p := range a.panes {
		if axis, ok := p.Axis(id); ok {
			return axis, true
		}
	}
	return nil, false
}

// Panes returns the panes in registration order.
func (a *Arena) Panes() []*Pane {
	out := make([]*Pane, len(a.panes))
	copy(out, a.panes)
	return out
}

// PaneIDs lists pane ids in registration order.
func (a *Arena) PaneIDs() []string {
	ids := make([]string, len(a.panes))
	for i, p := range a.panes {
		ids[i] = string(p.id)
	}
	return ids
}

// AxisIDs lists every axis id, pane by pane.
func (a *Arena) AxisIDs() []string {
	var ids []string
	for _, p := range a.panes {
		for _, axis := range p.Axes() {
			ids = append(ids, string(axis.id))
		}
	}
	return ids
}

// MustPane resolves a pane handle or returns a not-found error with
// suggestions.
func (a *Arena) MustPane(id PaneID) (*Pane, error) {
	if p, ok := a.Pane(id); ok {
		return p, nil
	}
	return nil, charterrors.ErrPaneNotFound(string(id), a.PaneIDs())
}

// MustAxis resolves an axis handle or returns a not-found error with
// suggestions.
func (a *Arena) MustAxis(id AxisID) (*Axis, error) {
	if axis, ok := a.Axis(id); ok {
		return axis, nil
	}
	return nil, charterrors.ErrAxisNotFound(string(id), a.AxisIDs())
}
