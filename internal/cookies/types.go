package cookies

import "maps"

// Cookie is a single cookie as reported by a browsing surface.
// IMPORTANT: Value is SENSITIVE and must never be logged or formatted into
// error messages. Only Name and Domain may appear in logs.
type Cookie struct {
	// Name is the cookie name. The jar is keyed by it.
	Name string `json:"name"`
	// Value is the cookie value. SENSITIVE.
	Value string `json:"value"`
	// Domain is the cookie domain, if the surface reports one.
	Domain string `json:"domain,omitempty"`
	// Path is the cookie path scope, if the surface reports one.
	Path string `json:"path,omitempty"`
	// Secure indicates the cookie should only be sent over HTTPS.
	Secure bool `json:"secure,omitempty"`
	// HttpOnly indicates the cookie is not accessible via JavaScript.
	HttpOnly bool `json:"httpOnly,omitempty"`
}

// Jar maps cookie name to cookie value. Names are unique; the last value
// written for a name wins.
type Jar map[string]string

// Clone returns an independent copy of the jar. Cloning a nil jar yields an
// empty, non-nil jar.
func (j Jar) Clone() Jar {
	out := make(Jar, len(j))
	maps.Copy(out, j)
	return out
}

// Names returns the cookie names held by the jar, in no particular order.
func (j Jar) Names() []string {
	names := make([]string, 0, len(j))
	for name := range j {
		names = append(names, name)
	}
	return names
}
