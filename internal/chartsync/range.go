package chartsync

import (
	"context"

	"github.com/conneroisu/panesync/internal/chart"
	charterrors "github.com/conneroisu/panesync/internal/errors"
	"github.com/conneroisu/panesync/internal/logging"
)

type axisMember struct {
	id  chart.AxisID
	sub chart.Subscription
}

// AxisRangeSynchronizer mirrors the visible range of any member axis onto
// every other member. Members are held by handle and applied in
// registration order.
type AxisRangeSynchronizer struct {
	source AxisSource
	logger logging.Logger

	members      []*axisMember
	domain       chart.DomainType
	consensus    chart.Range
	hasConsensus bool
	// write sequence the consensus came from
	appliedSeq uint64

	// one flag per group: a pass never starts a nested pass
	propagating   bool
	pendingDetach []chart.AxisID
}

// NewAxisRangeSynchronizer creates an empty range group.
func NewAxisRangeSynchronizer(source AxisSource, opts ...Option) *AxisRangeSynchronizer {
	o := buildOptions("range-sync", opts)
	return &AxisRangeSynchronizer{source: source, logger: o.logger}
}

// Attach adds an axis to the group. The first member seeds the consensus
// range; later members are set to it immediately. Unknown, already
// attached and domain-mismatched axes are rejected with a configuration
// error and leave the group unchanged.
func (s *AxisRangeSynchronizer) Attach(id chart.AxisID) error {
	axis, ok := s.source.Axis(id)
	if !ok {
		return charterrors.ErrAxisNotFound(string(id), s.source.AxisIDs())
	}
	if s.IsAttached(id) {
		return charterrors.ErrAlreadyAttached("axis", string(id)).WithAxis(string(id))
	}
	if s.hasConsensus && axis.Domain() != s.domain {
		return charterrors.ErrDomainMismatch(string(id), s.domain.String(), axis.Domain().String())
	}

	if !s.hasConsensus {
		s.consensus = axis.VisibleRange()
		s.domain = axis.Domain()
		s.hasConsensus = true
		s.appliedSeq = axis.WriteSeq()
	} else if err := axis.ApplyVisibleRange(s.consensus, s.appliedSeq); err != nil {
		return charterrors.WrapConfig(err, charterrors.ErrCodeInvalidRange, "cannot apply group range").
			WithAxis(string(id))
	}

	m := &axisMember{id: id}
	m.sub = axis.Observe(func(_ *chart.Axis, _, r chart.Range) {
		s.propagate(id, r)
	})
	s.members = append(s.members, m)

	s.logger.Debug(context.Background(), "axis attached",
		"axis", string(id), "range", s.consensus.String(), "members", len(s.members))
	return nil
}

// Detach removes an axis. During a propagation pass the removal is queued
// until the pass completes. Unknown ids are ignored.
func (s *AxisRangeSynchronizer) Detach(id chart.AxisID) {
	if s.propagating {
		for _, pending := range s.pendingDetach {
			if pending == id {
				return
			}
		}
		s.pendingDetach = append(s.pendingDetach, id)
		return
	}
	s.remove(id)
}

func (s *AxisRangeSynchronizer) remove(id chart.AxisID) {
	for i, m := range s.members {
		if m.id != id {
			continue
		}
		m.sub.Cancel()
		s.members = append(s.members[:i], s.members[i+1:]...)
		if len(s.members) == 0 {
			s.hasConsensus = false
			s.consensus = chart.Range{}
			s.appliedSeq = 0
		}
		s.logger.Debug(context.Background(), "axis detached",
			"axis", string(id), "members", len(s.members))
		return
	}
}

// Close detaches every member.
func (s *AxisRangeSynchronizer) Close() {
	for _, id := range s.Members() {
		s.Detach(id)
	}
}

// IsAttached reports current membership, including members whose detach
// is still pending.
func (s *AxisRangeSynchronizer) IsAttached(id chart.AxisID) bool {
	for _, m := range s.members {
		if m.id == id {
			return true
		}
	}
	return false
}

// Members lists member handles in registration order.
func (s *AxisRangeSynchronizer) Members() []chart.AxisID {
	ids := make([]chart.AxisID, len(s.members))
	for i, m := range s.members {
		ids[i] = m.id
	}
	return ids
}

// ConsensusRange is the range every member reports after the last pass.
func (s *AxisRangeSynchronizer) ConsensusRange() (chart.Range, bool) {
	return s.consensus, s.hasConsensus
}

// Domain is the group's domain type, fixed by the first member.
func (s *AxisRangeSynchronizer) Domain() (chart.DomainType, bool) {
	return s.domain, s.hasConsensus
}

// propagate runs one pass. Deferred notifications from a closing update
// scope arrive one member at a time, so the pass starts from whichever
// member was written last, and later notifications carrying writes the
// group already applied are ignored.
func (s *AxisRangeSynchronizer) propagate(origin chart.AxisID, r chart.Range) {
	if s.propagating {
		return
	}
	originAxis, ok := s.source.Axis(origin)
	if !ok {
		return
	}
	seq := originAxis.WriteSeq()
	if seq <= s.appliedSeq && r.Equal(s.consensus) {
		return
	}
	for _, m := range s.members {
		axis, ok := s.source.Axis(m.id)
		if ok && axis.WriteSeq() > seq {
			origin, r, seq = m.id, axis.VisibleRange(), axis.WriteSeq()
		}
	}

	s.propagating = true
	defer func() {
		s.propagating = false
		pending := s.pendingDetach
		s.pendingDetach = nil
		for _, id := range pending {
			s.remove(id)
		}
	}()

	s.consensus = r
	s.appliedSeq = seq
	members := make([]*axisMember, len(s.members))
	copy(members, s.members)

	applied := 0
	for _, m := range members {
		if m.id == origin {
			continue
		}
		follower, ok := s.source.Axis(m.id)
		if !ok {
			s.logger.Debug(context.Background(), "skipping unresolved axis", "axis", string(m.id))
			continue
		}
		if err := follower.ApplyVisibleRange(r, seq); err != nil {
			s.logger.Warn(context.Background(), err, "range not applied", "axis", string(m.id))
			continue
		}
		applied++
	}

	s.logger.Debug(context.Background(), "range propagated",
		"origin", string(origin), "range", r.String(), "followers", applied)
}
