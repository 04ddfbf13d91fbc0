package chartsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/panesync/internal/chart"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/logging"
)

// SizeSyncMode selects the gutters a size group equalizes.
type SizeSyncMode int

const (
	SizeSyncLeft SizeSyncMode = iota
	SizeSyncRight
	SizeSyncTop
	SizeSyncBottom
	// SizeSyncBoth equalizes left and right, each side on its own.
	SizeSyncBoth
)

// Sides lists the gutters the mode covers.
func (m SizeSyncMode) Sides() []chart.Side {
	switch m {
	case SizeSyncLeft:
		return []chart.Side{chart.SideLeft}
	case SizeSyncRight:
		return []chart.Side{chart.SideRight}
	case SizeSyncTop:
		return []chart.Side{chart.SideTop}
	case SizeSyncBottom:
		return []chart.Side{chart.SideBottom}
	case SizeSyncBoth:
		return []chart.Side{chart.SideLeft, chart.SideRight}
	}
	return nil
}

func (m SizeSyncMode) String() string {
	switch m {
	case SizeSyncLeft:
		return "left"
	case SizeSyncRight:
		return "right"
	case SizeSyncTop:
		return "top"
	case SizeSyncBottom:
		return "bottom"
	case SizeSyncBoth:
		return "both"
	}
	return "unknown"
}

// SizeSyncModes lists the accepted mode names.
var SizeSyncModes = []string{"left", "right", "top", "bottom", "both"}

// ParseSizeSyncMode is the inverse of SizeSyncMode.String.
func ParseSizeSyncMode(s string) (SizeSyncMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return SizeSyncLeft, nil
	case "right":
		return SizeSyncRight, nil
	case "top":
		return SizeSyncTop, nil
	case "bottom":
		return SizeSyncBottom, nil
	case "both":
		return SizeSyncBoth, nil
	}
	return SizeSyncRight, charterrors.NewConfigError(
		charterrors.ErrCodeConfigInvalid,
		fmt.Sprintf("unknown size sync mode %q", s),
	).WithSuggestions(charterrors.SuggestIDs(s, SizeSyncModes)...)
}

type paneMember struct {
	id  chart.PaneID
	sub chart.Subscription
}

// AreaSizeSynchronizer pushes, per synchronized side, the largest measured
// gutter of its member panes back to every member as the reserved gutter,
// so plot areas start and end at the same offsets.
type AreaSizeSynchronizer struct {
	source  PaneSource
	mode    SizeSyncMode
	logger  logging.Logger
	members []*paneMember
	syncing bool
}

// NewAreaSizeSynchronizer creates an empty size group.
func NewAreaSizeSynchronizer(source PaneSource, mode SizeSyncMode, opts ...Option) *AreaSizeSynchronizer {
	o := buildOptions("size-sync", opts)
	return &AreaSizeSynchronizer{
		source: source,
		mode:   mode,
		logger: o.logger.With("mode", mode.String()),
	}
}

// Mode returns the synchronized sides.
func (s *AreaSizeSynchronizer) Mode() SizeSyncMode { return s.mode }

// AttachSurface adds a pane and runs a pass.
func (s *AreaSizeSynchronizer) AttachSurface(id chart.PaneID) error {
	pane, ok := s.source.Pane(id)
	if !ok {
		return charterrors.ErrPaneNotFound(string(id), s.source.PaneIDs())
	}
	if s.IsAttached(id) {
		return charterrors.ErrAlreadyAttached("pane", string(id)).WithPane(string(id))
	}

	m := &paneMember{id: id}
	m.sub = pane.OnLayoutChanged(func(*chart.Pane) {
		s.Sync()
	})
	s.members = append(s.members, m)
	s.logger.Debug(context.Background(), "pane attached", "pane", string(id), "members", len(s.members))

	s.Sync()
	return nil
}

// DetachSurface removes a pane. The pane reverts to its own measured
// gutters and the remaining members are synchronized again.
func (s *AreaSizeSynchronizer) DetachSurface(id chart.PaneID) {
	for i, m := range s.members {
		if m.id != id {
			continue
		}
		m.sub.Cancel()
		s.members = append(s.members[:i], s.members[i+1:]...)
		if pane, ok := s.source.Pane(id); ok {
			for _, side := range s.mode.Sides() {
				pane.ClearReservedGutter(side)
			}
		}
		s.logger.Debug(context.Background(), "pane detached", "pane", string(id), "members", len(s.members))
		s.Sync()
		return
	}
}

// Close detaches every member.
func (s *AreaSizeSynchronizer) Close() {
	for _, id := range s.Members() {
		s.DetachSurface(id)
	}
}

// IsAttached reports membership.
func (s *AreaSizeSynchronizer) IsAttached(id chart.PaneID) bool {
	for _, m := range s.members {
		if m.id == id {
			return true
		}
	}
	return false
}

// Members lists member handles in registration order.
func (s *AreaSizeSynchronizer) Members() []chart.PaneID {
	ids := make([]chart.PaneID, len(s.members))
	for i, m := range s.members {
		ids[i] = m.id
	}
	return ids
}

// Sync runs one pass. It is idempotent: with unchanged measured gutters
// every member keeps the same reserved gutters.
func (s *AreaSizeSynchronizer) Sync() {
	if s.syncing {
		return
	}
	s.syncing = true
	defer func() { s.syncing = false }()

	panes := make([]*chart.Pane, 0, len(s.members))
	for _, m := range s.members {
		if p, ok := s.source.Pane(m.id); ok {
			panes = append(panes, p)
		}
	}
	if len(panes) == 0 {
		return
	}

	for _, side := range s.mode.Sides() {
		widest := 0.0
		for _, p := range panes {
			widest = max(widest, p.MeasuredGutters().Get(side))
		}
		for _, p := range panes {
			p.SetReservedGutter(side, widest)
		}
		s.logger.Debug(context.Background(), "gutter synchronized",
			"side", side.String(), "gutter", widest, "panes", len(panes))
	}
}

// Gutter returns the synchronized gutter on side, or false when the side
// is not covered by the mode or the group is empty.
func (s *AreaSizeSynchronizer) Gutter(side chart.Side) (float64, bool) {
	covered := false
	for _, sd := range s.mode.Sides() {
		if sd == side {
			covered = true
		}
	}
	if !covered {
		return 0, false
	}
	for _, m := range s.members {
		if p, ok := s.source.Pane(m.id); ok {
			return p.ReservedGutters().Get(side), true
		}
	}
	return 0, false
}
