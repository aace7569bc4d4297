package surface

import (
	"slices"
	"sync"

	"github.com/palette/canvaslogin/internal/cookies"
)

// Signals is the subscriber registry shared by Surface implementations.
// Emit* calls invoke callbacks synchronously on the caller's goroutine, so an
// implementation that emits from one event goroutine delivers events serially.
type Signals struct {
	mu       sync.RWMutex
	next     uint64
	added    map[uint64]func(cookies.Cookie)
	removed  map[uint64]func(cookies.Cookie)
	progress map[uint64]func(string)
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(s.cancel)
	return nil
}

func (s *Signals) register(add func(id uint64), drop func(id uint64)) Subscription {
	s.mu.Lock()
	s.next++
	id := s.next
	add(id)
	s.mu.Unlock()
	return &subscription{cancel: func() {
		s.mu.Lock()
		drop(id)
		s.mu.Unlock()
	}}
}

// OnCookieAdded registers fn for cookie-added events.
func (s *Signals) OnCookieAdded(fn func(cookies.Cookie)) Subscription {
	return s.register(
		func(id uint64) {
			if s.added == nil {
				s.added = make(map[uint64]func(cookies.Cookie))
			}
			s.added[id] = fn
		},
		func(id uint64) { delete(s.added, id) },
	)
}

// OnCookieRemoved registers fn for cookie-removed events.
func (s *Signals) OnCookieRemoved(fn func(cookies.Cookie)) Subscription {
	return s.register(
		func(id uint64) {
			if s.removed == nil {
				s.removed = make(map[uint64]func(cookies.Cookie))
			}
			s.removed[id] = fn
		},
		func(id uint64) { delete(s.removed, id) },
	)
}

// OnProgress registers fn for navigation-progress events.
func (s *Signals) OnProgress(fn func(string)) Subscription {
	return s.register(
		func(id uint64) {
			if s.progress == nil {
				s.progress = make(map[uint64]func(string))
			}
			s.progress[id] = fn
		},
		func(id uint64) { delete(s.progress, id) },
	)
}

// EmitCookieAdded delivers c to every cookie-added subscriber.
func (s *Signals) EmitCookieAdded(c cookies.Cookie) {
	for _, fn := range snapshot(s, func() map[uint64]func(cookies.Cookie) { return s.added }) {
		fn(c)
	}
}

// EmitCookieRemoved delivers c to every cookie-removed subscriber.
func (s *Signals) EmitCookieRemoved(c cookies.Cookie) {
	for _, fn := range snapshot(s, func() map[uint64]func(cookies.Cookie) { return s.removed }) {
		fn(c)
	}
}

// EmitProgress delivers url to every progress subscriber.
func (s *Signals) EmitProgress(url string) {
	for _, fn := range snapshot(s, func() map[uint64]func(string) { return s.progress }) {
		fn(url)
	}
}

// Subscribers returns the number of live subscriptions of all kinds.
func (s *Signals) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.added) + len(s.removed) + len(s.progress)
}

// snapshot copies the callbacks so subscribers may unsubscribe from inside a
// callback without deadlocking on mu. Callbacks run in registration order.
func snapshot[F any](s *Signals, field func() map[uint64]F) []F {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := field()
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]F, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
