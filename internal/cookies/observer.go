package cookies

import (
	"errors"
	"sync"
)

// Subscription is a handle to a registered event callback.
// Unsubscribe must be safe to call more than once.
type Subscription interface {
	Unsubscribe() error
}

// Source is anything that reports cookie store mutations.
type Source interface {
	OnCookieAdded(fn func(Cookie)) Subscription
	OnCookieRemoved(fn func(Cookie)) Subscription
}

// Observer maintains a live Jar from cookie store events.
//
// Surfaces deliver events on their own goroutine while the jar is read from
// the controller's goroutine, so every jar access holds mu.
type Observer struct {
	mu     sync.Mutex
	jar    Jar
	frozen bool
	subs   []Subscription
}

// NewObserver returns an Observer with an empty jar.
func NewObserver() *Observer {
	return &Observer{jar: make(Jar)}
}

// CookieAdded inserts or overwrites the cookie's value under its name.
func (o *Observer) CookieAdded(c Cookie) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.frozen {
		return
	}
	o.jar[c.Name] = c.Value
}

// CookieRemoved deletes the cookie's name from the jar. Removing a name that
// is not present is a no-op.
func (o *Observer) CookieRemoved(c Cookie) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.frozen {
		return
	}
	delete(o.jar, c.Name)
}

// Subscribe registers the observer with src. It does nothing once the jar
// has been frozen.
func (o *Observer) Subscribe(src Source) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.frozen {
		return
	}
	o.subs = append(o.subs,
		src.OnCookieAdded(o.CookieAdded),
		src.OnCookieRemoved(o.CookieRemoved),
	)
}

// Unsubscribe detaches the observer from every source it subscribed to.
// Calling it again, or without ever subscribing, returns nil. Every
// subscription is attempted even if an earlier one fails.
func (o *Observer) Unsubscribe() error {
	o.mu.Lock()
	subs := o.subs
	o.subs = nil
	o.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if s == nil {
			continue
		}
		if err := s.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Snapshot returns a copy of the current jar.
func (o *Observer) Snapshot() Jar {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.jar.Clone()
}

// Freeze makes the jar read-only and returns a copy of it. Events arriving
// after Freeze are ignored. Freeze may be called more than once.
func (o *Observer) Freeze() Jar {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frozen = true
	return o.jar.Clone()
}

// Len returns the number of cookies currently held.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.jar)
}
