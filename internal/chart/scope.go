package chart

// UpdateScope batches changes on one or more panes. While any scope is open
// on a pane its axes defer range notifications and the pane defers layout
// notifications. Closing the last scope emits one notification per changed
// axis and at most one layout notification per pane.
type UpdateScope struct {
	panes  []*Pane
	closed bool
}

// Suspend opens a scope over the given panes. Nil panes are ignored.
func Suspend(panes ...*Pane) *UpdateScope {
	s := &UpdateScope{panes: make([]*Pane, 0, len(panes))}
	for _, p := range panes {
		if p == nil {
			continue
		}
		p.suspend()
		s.panes = append(s.panes, p)
	}
	return s
}

// SuspendUpdates opens a scope over p.
func (p *Pane) SuspendUpdates() *UpdateScope {
	return Suspend(p)
}

// Close releases the scope. It is idempotent, so it is safe to defer and
// to call again on an early return. Panes resume in reverse order.
func (s *UpdateScope) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	for i := len(s.panes) - 1; i >= 0; i-- {
		s.panes[i].resume()
	}
}

// Closed reports whether Close has run.
func (s *UpdateScope) Closed() bool { return s.closed }

// WithSuspendedUpdates runs fn inside a scope over p. The scope is closed
// on every exit path, including a panic unwinding through fn.
func (p *Pane) WithSuspendedUpdates(fn func() error) error {
	return WithSuspendedUpdates(fn, p)
}

// WithSuspendedUpdates runs fn inside a scope over all panes.
func WithSuspendedUpdates(fn func() error, panes ...*Pane) error {
	scope := Suspend(panes...)
	defer scope.Close()
	return fn()
}
