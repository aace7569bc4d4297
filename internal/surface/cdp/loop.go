package cdp

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/palette/canvaslogin/internal/cookies"
	"github.com/palette/canvaslogin/internal/surface"
)

// browser is the part of the DevTools session the event loop needs.
type browser interface {
	Cookies(ctx context.Context) ([]cookies.Cookie, error)
	Location(ctx context.Context) (string, error)
}

type chromeBrowser struct {
	ctx context.Context
}

func (b *chromeBrowser) Cookies(ctx context.Context) ([]cookies.Cookie, error) {
	var out []cookies.Cookie
	err := chromedp.Run(b.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		list, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		out = make([]cookies.Cookie, 0, len(list))
		for _, c := range list {
			out = append(out, cookies.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Secure:   c.Secure,
				HttpOnly: c.HTTPOnly,
			})
		}
		return nil
	}))
	return out, err
}

func (b *chromeBrowser) Location(ctx context.Context) (string, error) {
	var u string
	err := chromedp.Run(b.ctx, chromedp.Location(&u))
	return u, err
}

// loopState is owned by the loop goroutine.
type loopState struct {
	store       map[surface.CookieKey]cookies.Cookie
	mainFrame   cdp.FrameID
	lastURL     string
	pollFailure int
}

func (s *Surface) loop(ctx context.Context, b browser) {
	defer close(s.loopDone)
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	st := &loopState{store: map[surface.CookieKey]cookies.Cookie{}}
	for {
		select {
		case <-s.closed:
			return
		case <-ctx.Done():
			s.markDone("devtools session ended")
			return
		case ev := <-s.events:
			if !s.handle(ctx, b, st, ev) {
				return
			}
		case <-ticker.C:
			if !s.tick(ctx, b, st, "", false) {
				return
			}
		}
	}
}

// handle processes one DevTools event. It returns false when the loop
// should stop.
func (s *Surface) handle(ctx context.Context, b browser, st *loopState, ev interface{}) bool {
	switch e := ev.(type) {
	case *page.EventFrameNavigated:
		if e.Frame == nil || e.Frame.ParentID != "" {
			return true
		}
		st.mainFrame = e.Frame.ID
		return s.tick(ctx, b, st, e.Frame.URL+e.Frame.URLFragment, true)
	case *page.EventNavigatedWithinDocument:
		if st.mainFrame != "" && e.FrameID != st.mainFrame {
			return true
		}
		return s.tick(ctx, b, st, e.URL, true)
	case *page.EventLoadEventFired:
		return s.tick(ctx, b, st, "", true)
	case *inspector.EventDetached:
		s.markDone(fmt.Sprintf("detached: %v", e.Reason))
		return false
	case *target.EventTargetDestroyed:
		s.markDone("window closed")
		return false
	}
	return true
}

// tick replays cookie store changes, then reports progress. url is the
// page URL if the triggering event carried one. Navigation events always
// report progress; polls only when the URL changed.
func (s *Surface) tick(ctx context.Context, b browser, st *loopState, url string, nav bool) bool {
	list, err := b.Cookies(ctx)
	if err != nil {
		if s.isClosed() {
			return false
		}
		st.pollFailure++
		s.log.Debug("cdp: cookie snapshot failed (%d): %v", st.pollFailure, err)
		if st.pollFailure >= maxPollFailures {
			s.markDone("browser unreachable")
			return false
		}
		return true
	}
	st.pollFailure = 0
	next := surface.Index(list)
	surface.Replay(&s.Signals, st.store, next)
	st.store = next

	if url == "" {
		if url, err = b.Location(ctx); err != nil {
			return true
		}
	}
	if url == "" || (!nav && url == st.lastURL) {
		return true
	}
	st.lastURL = url
	s.EmitProgress(url)
	return true
}

func (s *Surface) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
