// Package session turns a captured cookie jar into an HTTP client that is
// already authenticated against the portal.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"time"

	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/internal/cookies"
	"github.com/palette/canvaslogin/internal/result"
	"github.com/palette/canvaslogin/pkg/logger"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds requests issued through a Session's client.
const DefaultTimeout = 30 * time.Second

// Session is an HTTP client seeded with the cookies captured at login.
type Session struct {
	client *http.Client
	target *url.URL
}

// Materialize seeds a new client's cookie jar with every entry of jar,
// scoped to target's host with the client's default path, and builds the
// success record from the full jar. jar is not modified. An empty jar yields
// a valid session that simply carries no cookies.
//
// A cookie net/http cannot put on the wire is left out of the client and
// reported to l by name only; it still appears in the record. A value
// wrapped in double quotes is sent quoted. l may be nil.
func Materialize(jar cookies.Jar, target *url.URL, l logger.Logger) (*Session, result.Record, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if target == nil || target.Host == "" {
		return nil, result.Record{}, autherr.New(autherr.KindCookieCapture, "session.materialize",
			"target URL has no host")
	}

	names := jar.Names()
	sort.Strings(names)
	list := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		c, err := wireCookie(name, jar[name])
		if err != nil {
			l.Warning("session: cookie %q not sent: %v", name, err)
			continue
		}
		list = append(list, c)
	}

	cj, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, result.Record{}, autherr.Wrap(autherr.KindCookieCapture, "session.materialize", err)
	}
	cj.SetCookies(target, list)

	s := &Session{
		client: &http.Client{Jar: cj, Timeout: DefaultTimeout},
		target: target,
	}
	return s, result.Success(jar), nil
}

var (
	errCookieName  = errors.New("name is not an HTTP token")
	errCookieValue = errors.New("value has bytes HTTP cannot carry")
)

// wireCookie builds the cookie net/http will send for name=value. Errors
// never include the value.
func wireCookie(name, value string) (*http.Cookie, error) {
	if name == "" || !isToken(name) {
		return nil, errCookieName
	}
	quoted := false
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value, quoted = value[1:len(value)-1], true
	}
	for i := 0; i < len(value); i++ {
		if !validCookieValueByte(value[i]) {
			return nil, errCookieValue
		}
	}
	return &http.Cookie{Name: name, Value: value, Quoted: quoted}, nil
}

func isToken(s string) bool {
	for _, r := range s {
		if !httpguts.IsTokenRune(r) {
			return false
		}
	}
	return true
}

// validCookieValueByte mirrors net/http's cookie-octet rule. Values with
// spaces or commas are still sendable; net/http quotes them.
func validCookieValueByte(b byte) bool {
	return 0x20 <= b && b < 0x7f && b != '"' && b != ';' && b != '\\'
}

// Client returns the authenticated client.
func (s *Session) Client() *http.Client {
	return s.client
}

// Target returns the URL the cookies were scoped to.
func (s *Session) Target() *url.URL {
	return s.target
}

// Cookies returns the name/value pairs the client would send to the target.
func (s *Session) Cookies() cookies.Jar {
	out := make(cookies.Jar)
	for _, c := range s.client.Jar.Cookies(s.target) {
		if c.Quoted {
			out[c.Name] = `"` + c.Value + `"`
			continue
		}
		out[c.Name] = c.Value
	}
	return out
}

// Get issues an authenticated GET for rawURL.
func (s *Session) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return s.client.Do(req)
}
