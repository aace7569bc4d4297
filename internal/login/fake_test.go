package login

import (
	"context"
	"errors"
	"sync"

	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/internal/cookies"
	"github.com/palette/canvaslogin/internal/surface"
)

// fakeSurface is a scripted surface. When Navigate is called it runs script
// on its own goroutine, standing in for the browser's event loop.
type fakeSurface struct {
	surface.Signals

	startErr error
	// startBlocks makes Start wait for its context, like a browser that
	// never finishes launching.
	startBlocks bool
	navErr      error
	script      func(f *fakeSurface)

	mu        sync.Mutex
	navigated []string
	closes    int
	done      chan struct{}
	doneOnce  sync.Once
	scriptEnd chan struct{}
}

func newFakeSurface(script func(f *fakeSurface)) *fakeSurface {
	return &fakeSurface{
		script:    script,
		done:      make(chan struct{}),
		scriptEnd: make(chan struct{}),
	}
}

func (f *fakeSurface) Start(ctx context.Context) error {
	if f.startBlocks {
		<-ctx.Done()
		return autherr.Wrap(autherr.KindSurfaceInit, "fake.start", ctx.Err())
	}
	return f.startErr
}

func (f *fakeSurface) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	f.navigated = append(f.navigated, url)
	f.mu.Unlock()
	go func() {
		defer close(f.scriptEnd)
		if f.script != nil {
			f.script(f)
		}
	}()
	return f.navErr
}

func (f *fakeSurface) Done() <-chan struct{} { return f.done }

// userClose simulates the user closing the window.
func (f *fakeSurface) userClose() {
	f.doneOnce.Do(func() { close(f.done) })
}

func (f *fakeSurface) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeSurface) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeSurface) add(name, value string) {
	f.EmitCookieAdded(cookies.Cookie{Name: name, Value: value, Domain: "canvas.asu.edu", Path: "/"})
}

func (f *fakeSurface) remove(name string) {
	f.EmitCookieRemoved(cookies.Cookie{Name: name, Domain: "canvas.asu.edu", Path: "/"})
}

var errDisconnected = errors.New("already disconnected")

type failingSub struct {
	inner surface.Subscription
}

func (s failingSub) Unsubscribe() error {
	_ = s.inner.Unsubscribe()
	return errDisconnected
}

// detachedSurface reports an error from every unsubscribe, as a surface
// whose event source vanished first would.
type detachedSurface struct {
	*fakeSurface
}

func (d detachedSurface) OnCookieAdded(fn func(cookies.Cookie)) surface.Subscription {
	return failingSub{d.fakeSurface.OnCookieAdded(fn)}
}

func (d detachedSurface) OnCookieRemoved(fn func(cookies.Cookie)) surface.Subscription {
	return failingSub{d.fakeSurface.OnCookieRemoved(fn)}
}

func (d detachedSurface) OnProgress(fn func(string)) surface.Subscription {
	return failingSub{d.fakeSurface.OnProgress(fn)}
}

var (
	_ surface.Surface = (*fakeSurface)(nil)
	_ surface.Surface = detachedSurface{}
)
