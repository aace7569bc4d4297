// Package bridge implements surface.Surface for a login window owned by a
// companion browser extension.
//
// The extension connects to ws://<addr>/bridge and speaks JSON-RPC 2.0. It
// reports the tab's cookie store and navigation with the notifications
// cookie.added, cookie.removed and page.progress; the host pushes
// surface.navigate and surface.close back to it. Only one extension session
// is accepted per surface.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/internal/cookies"
	"github.com/palette/canvaslogin/internal/surface"
	"github.com/palette/canvaslogin/pkg/logger"
)

// Path is the HTTP path the extension connects to.
const Path = "/bridge"

const (
	DefaultConnectTimeout = 60 * time.Second
	shutdownTimeout       = 2 * time.Second
)

// Method names of the bridge protocol.
const (
	MethodCookieAdded   = "cookie.added"
	MethodCookieRemoved = "cookie.removed"
	MethodPageProgress  = "page.progress"
	MethodNavigate      = "surface.navigate"
	MethodClose         = "surface.close"
)

var codeInvalidParams = jrpc2.Code(-32602)

// ErrNotConnected is returned by Navigate before an extension attached.
var ErrNotConnected = errors.New("browser extension not connected")

// ProgressParams are the params of page.progress.
type ProgressParams struct {
	URL string `json:"url"`
}

// NavigateParams are the params of surface.navigate.
type NavigateParams struct {
	URL string `json:"url"`
}

// Options configure a bridge surface.
type Options struct {
	// Addr is the TCP listen address. Ignored when Listener is set.
	Addr     string
	Listener net.Listener
	// Token must be presented by the extension.
	Token          string
	ConnectTimeout time.Duration
	Logger         logger.Logger
}

// Surface waits for a browser extension and relays its events.
type Surface struct {
	surface.Signals

	opts Options
	log  logger.Logger

	mu       sync.Mutex
	ln       net.Listener
	httpSrv  *http.Server
	rpc      *jrpc2.Server
	attached bool

	connected chan struct{}
	done      chan struct{}
	doneOnce  sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

// New returns an unstarted bridge surface.
func New(opts Options) *Surface {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Surface{
		opts:      opts,
		log:       opts.Logger,
		connected: make(chan struct{}),
		done:      make(chan struct{}),
		closed:    make(chan struct{}),
	}
}

// Start listens for the extension and blocks until it connects.
func (s *Surface) Start(ctx context.Context) error {
	if s.opts.Token == "" {
		return autherr.New(autherr.KindSurfaceInit, "bridge.start", "bridge token is empty")
	}
	ln := s.opts.Listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.opts.Addr); err != nil {
			return autherr.Wrap(autherr.KindSurfaceInit, "bridge.start", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle(Path, requireToken(s.opts.Token, http.HandlerFunc(s.serveWS)))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	s.mu.Lock()
	s.ln, s.httpSrv = ln, srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("bridge: serve: %v", err)
		}
	}()
	s.log.Info("bridge: waiting for extension on ws://%s%s", ln.Addr(), Path)

	timer := time.NewTimer(s.opts.ConnectTimeout)
	defer timer.Stop()
	select {
	case <-s.connected:
		s.log.Info("bridge: extension connected")
		return nil
	case <-ctx.Done():
		s.shutdown()
		return autherr.Wrap(autherr.KindSurfaceInit, "bridge.start", ctx.Err())
	case <-timer.C:
		s.shutdown()
		return autherr.New(autherr.KindSurfaceInit, "bridge.start",
			fmt.Sprintf("browser extension did not connect within %s", s.opts.ConnectTimeout))
	case <-s.closed:
		return autherr.Wrap(autherr.KindSurfaceInit, "bridge.start", surface.ErrClosed)
	}
}

// URL returns the WebSocket URL the extension should dial, or "" before
// Start.
func (s *Surface) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return "ws://" + s.ln.Addr().String() + Path
}

func (s *Surface) serveWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	busy := s.attached
	if !busy {
		s.attached = true
	}
	s.mu.Unlock()
	if busy {
		http.Error(w, "a login session is already attached", http.StatusConflict)
		return
	}

	// Extension pages have chrome-extension:// origins; the bearer token is
	// what authenticates them.
	conn, err := cws.Accept(w, r, &cws.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.Warning("bridge: websocket accept: %v", err)
		s.mu.Lock()
		s.attached = false
		s.mu.Unlock()
		return
	}

	srv := jrpc2.NewServer(s.methods(), &jrpc2.ServerOptions{
		AllowPush:   true,
		Concurrency: 1,
	})
	srv.Start(&wsChannel{conn: conn, ctx: r.Context()})

	s.mu.Lock()
	s.rpc = srv
	s.mu.Unlock()
	close(s.connected)

	err = srv.Wait()
	if s.isClosed() {
		return
	}
	s.markDone(fmt.Sprintf("extension disconnected: %v", err))
}

func (s *Surface) methods() handler.Map {
	return handler.Map{
		MethodCookieAdded:   handler.New(s.cookieAdded),
		MethodCookieRemoved: handler.New(s.cookieRemoved),
		MethodPageProgress:  handler.New(s.pageProgress),
	}
}

func (s *Surface) cookieAdded(_ context.Context, c *cookies.Cookie) error {
	if c.Name == "" {
		return &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: name"}
	}
	s.EmitCookieAdded(*c)
	return nil
}

func (s *Surface) cookieRemoved(_ context.Context, c *cookies.Cookie) error {
	if c.Name == "" {
		return &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: name"}
	}
	s.EmitCookieRemoved(*c)
	return nil
}

func (s *Surface) pageProgress(_ context.Context, p *ProgressParams) error {
	if p.URL == "" {
		return &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: url"}
	}
	s.EmitProgress(p.URL)
	return nil
}

func (s *Surface) session() *jrpc2.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rpc
}

// Navigate asks the extension to load url in the login tab.
func (s *Surface) Navigate(ctx context.Context, url string) error {
	if s.isClosed() {
		return surface.ErrClosed
	}
	srv := s.session()
	if srv == nil {
		return ErrNotConnected
	}
	return srv.Notify(ctx, MethodNavigate, NavigateParams{URL: url})
}

// Done is closed when the extension disconnects.
func (s *Surface) Done() <-chan struct{} {
	return s.done
}

func (s *Surface) markDone(reason string) {
	s.doneOnce.Do(func() {
		s.log.Info("bridge: surface gone: %s", reason)
		close(s.done)
	})
}

func (s *Surface) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Close tells the extension to close its login tab and stops serving.
func (s *Surface) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		if srv := s.session(); srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := srv.Notify(ctx, MethodClose, struct{}{}); err != nil {
				s.log.Debug("bridge: push %s: %v", MethodClose, err)
			}
			cancel()
			srv.Stop()
		}
		s.shutdown()
	})
	return nil
}

func (s *Surface) shutdown() {
	s.mu.Lock()
	srv, ln := s.httpSrv, s.ln
	s.mu.Unlock()
	if srv == nil {
		if ln != nil {
			_ = ln.Close()
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
	}
}

var _ surface.Surface = (*Surface)(nil)
