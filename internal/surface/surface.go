// Package surface defines the interactive browsing capability the login
// controller drives. A Surface renders the login page, lets the user type
// credentials, and reports cookie store mutations and navigation progress.
//
// Implementations deliver all events for one surface on a single goroutine,
// in the order they were observed.
package surface

import (
	"context"
	"errors"

	"github.com/palette/canvaslogin/internal/cookies"
)

// Subscription is a handle returned by the On* registration methods.
type Subscription = cookies.Subscription

// ErrClosed is returned by operations on a surface that has been closed.
var ErrClosed = errors.New("surface closed")

// Surface is an interactive browser that the controller observes.
type Surface interface {
	// Start creates and shows the surface. It must fail fast, with an
	// autherr.KindSurfaceInit error, when the rendering capability is missing.
	Start(ctx context.Context) error
	// Navigate loads url in the surface.
	Navigate(ctx context.Context, url string) error

	OnCookieAdded(fn func(cookies.Cookie)) Subscription
	OnCookieRemoved(fn func(cookies.Cookie)) Subscription
	// OnProgress registers fn to be called with the current page URL on every
	// navigation or load-progress signal.
	OnProgress(fn func(url string)) Subscription

	// Done is closed when the surface goes away on its own, e.g. the user
	// closed the window.
	Done() <-chan struct{}
	// Close tears the surface down and stops its event loop. It is safe to
	// call more than once.
	Close() error
}
