// Package result defines the record a login run produces and publishes it
// to the artifact file and the process's standard streams.
package result

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/palette/canvaslogin/internal/cookies"
	"github.com/spf13/afero"
)

// Record is the outcome of one login run. Exactly one Record is produced per
// process. Cookies is set only on success and Error only on failure.
type Record struct {
	Success bool
	Cookies cookies.Jar
	Error   string
}

// Success returns a successful record holding a copy of jar. An empty jar is
// a valid result.
func Success(jar cookies.Jar) Record {
	return Record{Success: true, Cookies: jar.Clone()}
}

// Failure returns a failed record carrying err's message.
func Failure(err error) Record {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Record{Error: msg}
}

type successJSON struct {
	Success bool              `json:"success"`
	Cookies map[string]string `json:"cookies"`
}

type failureJSON struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON encodes the record in the artifact format. A successful record
// always carries a cookies object, "{}" when no cookies were captured.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Success {
		c := r.Cookies
		if c == nil {
			c = cookies.Jar{}
		}
		return json.Marshal(successJSON{Success: true, Cookies: c})
	}
	return json.Marshal(failureJSON{Success: false, Error: r.Error})
}

// UnmarshalJSON decodes either artifact form.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success *bool             `json:"success"`
		Cookies map[string]string `json:"cookies"`
		Error   string            `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Success == nil {
		return errors.New(`result: missing "success" field`)
	}
	if *raw.Success {
		*r = Record{Success: true, Cookies: cookies.Jar(raw.Cookies).Clone()}
		return nil
	}
	*r = Record{Error: raw.Error}
	return nil
}

// ErrNotAuthenticated is returned by Load for an artifact recording a
// failed login.
var ErrNotAuthenticated = errors.New("artifact records a failed login")

// Load reads an artifact written by Publish. A failure artifact yields the
// decoded record together with ErrNotAuthenticated.
func Load(fs afero.Fs, path string) (Record, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Record{}, fmt.Errorf("read artifact: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	if !rec.Success {
		return rec, fmt.Errorf("%w: %s", ErrNotAuthenticated, rec.Error)
	}
	return rec, nil
}
