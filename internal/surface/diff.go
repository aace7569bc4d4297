package surface

import (
	"sort"

	"github.com/palette/canvaslogin/internal/cookies"
)

// CookieKey identifies a cookie inside a browser cookie store.
type CookieKey struct {
	Name   string
	Domain string
	Path   string
}

// KeyOf returns the store key of c.
func KeyOf(c cookies.Cookie) CookieKey {
	return CookieKey{Name: c.Name, Domain: c.Domain, Path: c.Path}
}

// Index builds a store snapshot keyed by CookieKey. Later duplicates win.
func Index(list []cookies.Cookie) map[CookieKey]cookies.Cookie {
	out := make(map[CookieKey]cookies.Cookie, len(list))
	for _, c := range list {
		out[KeyOf(c)] = c
	}
	return out
}

// Diff compares two store snapshots and returns the events that turn prev
// into next. A cookie whose value changed is reported as added. Removals are
// ordered before additions so that a name moving between domains survives in
// a name-keyed jar.
func Diff(prev, next map[CookieKey]cookies.Cookie) (added, removed []cookies.Cookie) {
	for k, c := range prev {
		if _, ok := next[k]; !ok {
			removed = append(removed, c)
		}
	}
	for k, c := range next {
		old, ok := prev[k]
		if !ok || old != c {
			added = append(added, c)
		}
	}
	sortCookies(removed)
	sortCookies(added)
	return added, removed
}

// Replay emits the result of Diff(prev, next) on sig, removals first.
func Replay(sig *Signals, prev, next map[CookieKey]cookies.Cookie) {
	added, removed := Diff(prev, next)
	for _, c := range removed {
		sig.EmitCookieRemoved(c)
	}
	for _, c := range added {
		sig.EmitCookieAdded(c)
	}
}

func sortCookies(list []cookies.Cookie) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		return a.Path < b.Path
	})
}
