// Package cdp implements surface.Surface on a visible Chrome or Chromium
// window driven over the DevTools protocol.
//
// The protocol has no cookie-change events, so the surface snapshots the
// browser cookie store on every main-frame navigation, on every load event
// and on a poll ticker, and replays the difference as add/remove events.
// Within one tick cookies are always replayed before the progress URL.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/internal/surface"
	"github.com/palette/canvaslogin/pkg/logger"
)

const (
	DefaultWidth        = 800
	DefaultHeight       = 600
	DefaultPollInterval = time.Second
	// DefaultStartTimeout bounds browser launch when the caller's context
	// has no deadline.
	DefaultStartTimeout = 30 * time.Second

	eventBuffer = 64
	// maxPollFailures consecutive failed snapshots mean the browser is gone.
	maxPollFailures = 3
)

// ErrNoDisplay is returned by Start when no graphical display is available.
var ErrNoDisplay = errors.New("no display")

// Options configure a Chrome surface.
type Options struct {
	// ExecPath is the browser binary. Empty lets chromedp search for one.
	ExecPath     string
	Width        int
	Height       int
	PollInterval time.Duration
	StartTimeout time.Duration
	// Title replaces the page title on every document the tab loads, so the
	// window keeps one recognizable name. Empty leaves titles alone.
	Title string
	// Headless hides the window. Only useful for tests.
	Headless bool
	Logger   logger.Logger
}

func (o *Options) setDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.StartTimeout <= 0 {
		o.StartTimeout = DefaultStartTimeout
	}
	if o.Logger == nil {
		o.Logger = logger.NewNopLogger()
	}
}

// allocatorOptions returns the exec allocator options for a fresh browser.
// chromedp creates a temporary profile directory and removes it on cancel,
// so nothing survives the run.
func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("headless", o.Headless),
		chromedp.WindowSize(o.Width, o.Height),
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.Headless {
		opts = append(opts, chromedp.DisableGPU)
	}
	return opts
}

// Surface is a Chrome window.
type Surface struct {
	surface.Signals

	opts   Options
	log    logger.Logger
	getenv func(string) string

	mu          sync.Mutex
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	started     bool

	events    chan interface{}
	done      chan struct{}
	doneOnce  sync.Once
	closed    chan struct{}
	closeOnce sync.Once
	loopDone  chan struct{}
}

// New returns an unstarted Chrome surface.
func New(opts Options) *Surface {
	opts.setDefaults()
	return &Surface{
		opts:     opts,
		log:      opts.Logger,
		getenv:   os.Getenv,
		events:   make(chan interface{}, eventBuffer),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Start launches the browser and opens a blank tab.
func (s *Surface) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return autherr.New(autherr.KindSurfaceInit, "cdp.start", "surface already started")
	}
	select {
	case <-s.closed:
		return autherr.Wrap(autherr.KindSurfaceInit, "cdp.start", surface.ErrClosed)
	default:
	}
	if err := s.checkDisplay(); err != nil {
		return autherr.Wrap(autherr.KindSurfaceInit, "cdp.start", err)
	}
	if s.opts.ExecPath != "" {
		if _, err := os.Stat(s.opts.ExecPath); err != nil {
			return autherr.Wrap(autherr.KindSurfaceInit, "cdp.start",
				fmt.Errorf("browser not found: %w", err))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), s.opts.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		s.log.Debug("chromedp: "+format, args...)
	}))
	chromedp.ListenTarget(tabCtx, s.listen)

	launched := make(chan error, 1)
	go func() { launched <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(s.opts.StartTimeout)
	defer timer.Stop()
	var err error
	select {
	case err = <-launched:
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = fmt.Errorf("browser did not start within %s", s.opts.StartTimeout)
	}
	if err != nil {
		tabCancel()
		allocCancel()
		return autherr.Wrap(autherr.KindSurfaceInit, "cdp.start", err)
	}

	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		id := c.Target.TargetID
		chromedp.ListenBrowser(tabCtx, func(ev interface{}) {
			if e, ok := ev.(*target.EventTargetDestroyed); ok && e.TargetID == id {
				s.enqueue(ev)
			}
		})
	}

	if s.opts.Title != "" {
		err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(titleScript(s.opts.Title)).Do(ctx)
			return err
		}))
		if err != nil {
			s.log.Warning("cdp: set window title: %v", err)
		}
	}

	s.tabCtx, s.tabCancel, s.allocCancel = tabCtx, tabCancel, allocCancel
	s.started = true
	s.log.Info("cdp: browser started")
	go s.loop(tabCtx, &chromeBrowser{ctx: tabCtx})
	return nil
}

// titleScript returns the page script that pins document.title to title,
// including after the page's own scripts change it.
func titleScript(title string) string {
	quoted, _ := json.Marshal(title)
	return fmt.Sprintf(`(() => {
  const title = %s;
  const pin = () => { if (document.title !== title) document.title = title; };
  document.addEventListener("DOMContentLoaded", () => {
    pin();
    new MutationObserver(pin).observe(document.head || document.documentElement,
      { subtree: true, childList: true, characterData: true });
  });
})();`, quoted)
}

// listen runs on chromedp's event goroutine. It must not block or issue
// commands, so events are handed to the loop goroutine.
func (s *Surface) listen(ev interface{}) {
	switch ev.(type) {
	case *page.EventFrameNavigated, *page.EventNavigatedWithinDocument,
		*page.EventLoadEventFired, *inspector.EventDetached:
		s.enqueue(ev)
	}
}

// enqueue never blocks. A dropped event is recovered by the next poll.
func (s *Surface) enqueue(ev interface{}) {
	select {
	case s.events <- ev:
	default:
		s.log.Debug("cdp: event queue full, dropping %T", ev)
	}
}

func (s *Surface) checkDisplay() error {
	if s.opts.Headless {
		return nil
	}
	switch runtime.GOOS {
	case "windows", "darwin":
		return nil
	}
	if s.getenv("DISPLAY") == "" && s.getenv("WAYLAND_DISPLAY") == "" {
		return ErrNoDisplay
	}
	return nil
}

func (s *Surface) tab() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
		return nil
	default:
	}
	return s.tabCtx
}

// Navigate loads url and waits for the first load to finish or ctx to end.
func (s *Surface) Navigate(ctx context.Context, url string) error {
	tab := s.tab()
	if tab == nil {
		return surface.ErrClosed
	}
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(tab, chromedp.Navigate(url)) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the user closes the browser window.
func (s *Surface) Done() <-chan struct{} {
	return s.done
}

func (s *Surface) markDone(reason string) {
	s.doneOnce.Do(func() {
		s.log.Info("cdp: surface gone: %s", reason)
		close(s.done)
	})
}

// Close shuts the browser down and waits for the event loop to exit.
func (s *Surface) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		close(s.closed)
		tabCtx, tabCancel, allocCancel, started := s.tabCtx, s.tabCancel, s.allocCancel, s.started
		s.mu.Unlock()
		if !started {
			return
		}
		if cerr := chromedp.Cancel(tabCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = cerr
		}
		tabCancel()
		allocCancel()
		<-s.loopDone
		s.log.Info("cdp: browser closed")
	})
	return err
}

var _ surface.Surface = (*Surface)(nil)
