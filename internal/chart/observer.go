package chart

// Subscription cancels a registered observer. Cancel is idempotent.
type Subscription interface {
	Cancel()
}

type observerEntry[F any] struct {
	fn        F
	cancelled bool
}

// observerList keeps callbacks in registration order. Callbacks may cancel
// themselves or others while a notification is running; cancelled entries
// are skipped and pruned afterwards.
type observerList[F any] struct {
	entries []*observerEntry[F]
}

func (l *observerList[F]) add(fn F) Subscription {
	e := &observerEntry[F]{fn: fn}
	l.entries = append(l.entries, e)
	return &observerSubscription[F]{list: l, entry: e}
}

func (l *observerList[F]) each(call func(F)) {
	snapshot := make([]*observerEntry[F], len(l.entries))
	copy(snapshot, l.entries)
	for _, e := range snapshot {
		if !e.cancelled {
			call(e.fn)
		}
	}
}

func (l *observerList[F]) count() int {
	n := 0
	for _, e := range l.entries {
		if !e.cancelled {
			n++
		}
	}
	return n
}

func (l *observerList[F]) remove(target *observerEntry[F]) {
	target.cancelled = true
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e != target {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(l.entries); i++ {
		l.entries[i] = nil
	}
	l.entries = kept
}

type observerSubscription[F any] struct {
	list  *observerList[F]
	entry *observerEntry[F]
}

func (s *observerSubscription[F]) Cancel() {
	if s.entry.cancelled {
		return
	}
	s.list.remove(s.entry)
}
