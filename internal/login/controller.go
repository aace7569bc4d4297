// Package login runs one interactive login attempt: it drives a browsing
// surface to the portal's entry page, records the cookie store while the
// user authenticates, and stops as soon as the portal's secure domain is
// reached.
package login

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/internal/cookies"
	"github.com/palette/canvaslogin/internal/surface"
	"github.com/palette/canvaslogin/pkg/logger"
)

// State is the lifecycle position of a Controller.
type State int

const (
	StateInit State = iota
	StateRunning
	StateCompleting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateCompleting:
		return "completing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrAlreadyRun is returned when Run is called on a controller that has
// already left StateInit.
var ErrAlreadyRun = errors.New("login: controller already run")

// Options configure a Controller.
type Options struct {
	// EntryURL is loaded into the surface once it is shown.
	EntryURL string
	// SecurePrefix marks successful authentication. See Detector.
	SecurePrefix string
	// Timeout bounds the whole attempt. Zero waits for the user forever.
	Timeout time.Duration
	// Logger receives lifecycle messages. Nil discards them.
	Logger logger.Logger
}

// Controller owns one login attempt.
type Controller struct {
	surface  surface.Surface
	detector Detector
	entryURL string
	timeout  time.Duration
	log      logger.Logger
	observer *cookies.Observer

	mu          sync.Mutex
	state       State
	progressSub surface.Subscription
	finalURL    string

	finishOnce sync.Once
	jar        cookies.Jar
	completed  chan struct{}
}

// NewController returns a controller that will drive s.
func NewController(s surface.Surface, opts Options) *Controller {
	l := opts.Logger
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Controller{
		surface:   s,
		detector:  NewDetector(opts.SecurePrefix),
		entryURL:  opts.EntryURL,
		timeout:   opts.Timeout,
		log:       l,
		observer:  cookies.NewObserver(),
		completed: make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// FinalURL returns the URL that completed authentication, or "" if the
// attempt has not completed.
func (c *Controller) FinalURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalURL
}

// Run shows the surface, navigates to the entry URL and blocks until the
// user reaches the secure domain, closes the surface, or ctx ends. On
// success it returns the frozen cookie jar. The surface is always closed
// before Run returns.
func (c *Controller) Run(ctx context.Context) (cookies.Jar, error) {
	c.mu.Lock()
	if c.state != StateInit {
		c.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	c.state = StateRunning
	c.mu.Unlock()
	defer c.setState(StateDone)

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.surface.Start(runCtx); err != nil {
		c.closeSurface()
		switch {
		case c.timedOut(ctx, runCtx):
			c.log.Warning("login: timed out after %s while starting the surface", c.timeout)
			return nil, c.timeoutErr()
		case autherr.KindOf(err) == autherr.KindUnknown:
			err = autherr.Wrap(autherr.KindSurfaceInit, "surface.start", err)
		}
		c.log.Error("login: surface start failed: %v", err)
		return nil, err
	}
	c.log.Info("login: surface started")

	c.subscribe()

	c.log.Info("login: navigating to %s", c.entryURL)
	if err := c.surface.Navigate(runCtx, c.entryURL); err != nil {
		if runCtx.Err() == nil {
			// The surface shows its own error page; the user may still
			// recover by navigating manually.
			c.log.Warning("login: navigate %s: %v", c.entryURL, err)
		}
	}

	select {
	case <-c.completed:
	case <-c.surface.Done():
		c.finish("")
	case <-runCtx.Done():
		c.finish("")
	}

	c.closeSurface()

	select {
	case <-c.completed:
		c.log.Info("login: authenticated at %s, captured %d cookies", c.FinalURL(), len(c.jar))
		return c.jar.Clone(), nil
	default:
	}

	switch {
	case c.timedOut(ctx, runCtx):
		c.log.Warning("login: timed out after %s", c.timeout)
		return nil, c.timeoutErr()
	case ctx.Err() != nil:
		c.log.Warning("login: cancelled: %v", ctx.Err())
		return nil, autherr.Wrap(autherr.KindAuthenticationIncomplete, "controller.run",
			fmt.Errorf("login cancelled: %w", ctx.Err()))
	default:
		c.log.Warning("login: surface closed before authentication completed")
		return nil, autherr.New(autherr.KindAuthenticationIncomplete, "controller.run",
			"login window closed before authentication completed")
	}
}

// timedOut reports whether runCtx ended because of the controller's own
// deadline rather than the caller's context.
func (c *Controller) timedOut(ctx, runCtx context.Context) bool {
	return c.timeout > 0 && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded)
}

func (c *Controller) timeoutErr() error {
	return autherr.New(autherr.KindTimeout, "controller.run",
		fmt.Sprintf("login did not complete within %s", c.timeout))
}

func (c *Controller) subscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer.Subscribe(c.surface)
	c.progressSub = c.surface.OnProgress(c.onProgress)
}

func (c *Controller) onProgress(url string) {
	c.log.Debug("login: progress %s", url)
	if !c.detector.IsComplete(url) {
		return
	}
	c.finish(url)
}

// finish tears down every subscription and freezes the jar, exactly once.
// A non-empty url marks the attempt as authenticated.
func (c *Controller) finish(url string) {
	c.finishOnce.Do(func() {
		if url != "" {
			c.mu.Lock()
			c.state = StateCompleting
			c.finalURL = url
			c.mu.Unlock()
		}
		c.teardown()
		c.jar = c.observer.Freeze()
		if url != "" {
			close(c.completed)
		}
	})
}

func (c *Controller) teardown() {
	if err := c.observer.Unsubscribe(); err != nil {
		c.log.Warning("login: cookie unsubscribe: %v", err)
	}
	c.mu.Lock()
	sub := c.progressSub
	c.progressSub = nil
	c.mu.Unlock()
	if sub == nil {
		return
	}
	if err := sub.Unsubscribe(); err != nil {
		c.log.Warning("login: progress unsubscribe: %v", err)
	}
}

func (c *Controller) closeSurface() {
	if err := c.surface.Close(); err != nil && !errors.Is(err, surface.ErrClosed) {
		c.log.Warning("login: close surface: %v", err)
	}
}
