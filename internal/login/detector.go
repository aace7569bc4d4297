package login

import "strings"

// Detector decides whether a page URL means the user has finished logging
// in. The match is an exact, case-sensitive prefix test: a plain-http URL
// on the right host, or the prefix appearing later in the URL, do not count.
type Detector struct {
	Prefix string
}

// NewDetector returns a Detector that accepts URLs starting with prefix.
func NewDetector(prefix string) Detector {
	return Detector{Prefix: prefix}
}

// IsComplete reports whether url begins with the secure-domain prefix.
func (d Detector) IsComplete(url string) bool {
	return strings.HasPrefix(url, d.Prefix)
}
