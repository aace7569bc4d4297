// Package cookies tracks the cookie store of an interactive login surface.
// An Observer subscribes to cookie add/remove events and keeps a live Jar
// mapping cookie name to value until the login completes, at which point the
// jar is frozen and handed to the session materializer.
//
// Cookie values are session credentials. They are never logged; only cookie
// names may appear in log output.
package cookies
