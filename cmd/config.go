package cmd

const DESCRIPTION = `
canvaslogin opens a browser window on the Canvas login page and waits
while you sign in. Once Canvas shows an authenticated page it captures
the session cookies and writes them as JSON to a file and to stdout,
so other tools can make requests on your behalf.
`

const (
	LoginDescription = `The login command opens the login window and blocks until
you reach the secure Canvas site, close the window, or the
timeout expires. The result is written to output-path
(default: palette_canvas_login.json in the temp directory)
and printed to stdout on success or stderr on failure.

Example:
        canvaslogin
                    OR
        canvaslogin login --timeout 5m /tmp/canvas.json

`
	FetchDescription = `The fetch command loads the cookies of a successful login
artifact and issues one authenticated GET request, printing
the status line and response body.

Example:
        canvaslogin fetch https://canvas.asu.edu/api/v1/courses

`
)
