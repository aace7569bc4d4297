// Package autherr defines the error kinds a login run can fail with.
// Every error that reaches the top-level login action is either an *Error
// or gets classified by KindOf before it is published.
package autherr

import (
	"errors"
	"fmt"
)

// Kind classifies a login failure.
type Kind int

const (
	// KindUnknown is any error that was not produced by this module.
	KindUnknown Kind = iota
	// KindSurfaceInit means the interactive browsing surface could not be
	// created or shown (no browser binary, no display, no extension).
	KindSurfaceInit
	// KindAuthenticationIncomplete means the surface went away before the
	// secure-domain prefix was reached.
	KindAuthenticationIncomplete
	// KindTimeout means the optional login deadline elapsed.
	KindTimeout
	// KindCookieCapture means captured cookies could not be transferred into
	// the reusable session.
	KindCookieCapture
	// KindArtifactWrite means the result artifact could not be written.
	KindArtifactWrite
)

var kindNames = map[Kind]string{
	KindUnknown:                  "Unknown",
	KindSurfaceInit:              "SurfaceInitError",
	KindAuthenticationIncomplete: "AuthenticationIncomplete",
	KindTimeout:                  "Timeout",
	KindCookieCapture:            "CookieCaptureError",
	KindArtifactWrite:            "ArtifactWriteError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a classified login failure. Op names the step that failed and is
// kept out of the message so published artifacts carry the plain cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. This lets callers
// match with errors.Is(err, autherr.SurfaceInit).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Op == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is matching.
var (
	SurfaceInit              = &Error{Kind: KindSurfaceInit}
	AuthenticationIncomplete = &Error{Kind: KindAuthenticationIncomplete}
	Timeout                  = &Error{Kind: KindTimeout}
	CookieCapture            = &Error{Kind: KindCookieCapture}
	ArtifactWrite            = &Error{Kind: KindArtifactWrite}
)

// New creates an *Error with a plain message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// OpOf returns the Op of the first *Error in err's chain, or "".
func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
