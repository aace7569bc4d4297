// Package config holds the settings of a login run: the portal being logged
// into, where the result goes, and which browsing surface to use.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultEntryURL is the page the surface opens first.
	DefaultEntryURL = "http://canvas.asu.edu"
	// DefaultSecurePrefix marks a completed login.
	DefaultSecurePrefix = "https://canvas.asu.edu"
	// DefaultWindowTitle is the title of the login window.
	DefaultWindowTitle = "Canvas Login - Palette"
	// ArtifactFileName is the artifact name used when no path is given.
	ArtifactFileName = "palette_canvas_login.json"
	// DefaultBridgeAddr is where the extension bridge listens.
	DefaultBridgeAddr = "127.0.0.1:47913"
	// DefaultBridgeConnectTimeout is how long the bridge waits for the
	// extension to connect.
	DefaultBridgeConnectTimeout = 60 * time.Second
)

// SurfaceKind names a browsing surface implementation.
type SurfaceKind string

const (
	SurfaceChrome SurfaceKind = "chrome"
	SurfaceBridge SurfaceKind = "bridge"
)

var (
	// ErrInvalidSite is returned for a site profile that cannot be used.
	ErrInvalidSite = errors.New("invalid site profile")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Site describes the portal being logged into.
type Site struct {
	Name string `yaml:"name"`
	// EntryURL is loaded when the surface opens.
	EntryURL string `yaml:"entry_url"`
	// SecurePrefix is the URL prefix that means the user is authenticated.
	SecurePrefix string `yaml:"secure_prefix"`
	// TargetURL is the URL captured cookies are scoped to. Empty means
	// SecurePrefix.
	TargetURL string `yaml:"target_url,omitempty"`
	// Title is shown as the login window's title.
	Title string `yaml:"title,omitempty"`
}

// DefaultSite returns the built-in Canvas profile.
func DefaultSite() Site {
	return Site{
		Name:         "canvas",
		EntryURL:     DefaultEntryURL,
		SecurePrefix: DefaultSecurePrefix,
		Title:        DefaultWindowTitle,
	}
}

// Validate checks that the site's URLs are absolute.
func (s Site) Validate() error {
	if err := absolute(s.EntryURL); err != nil {
		return fmt.Errorf("%w: entry_url: %v", ErrInvalidSite, err)
	}
	if err := absolute(s.SecurePrefix); err != nil {
		return fmt.Errorf("%w: secure_prefix: %v", ErrInvalidSite, err)
	}
	if s.TargetURL != "" {
		if err := absolute(s.TargetURL); err != nil {
			return fmt.Errorf("%w: target_url: %v", ErrInvalidSite, err)
		}
	}
	return nil
}

// Target returns the URL captured cookies are scoped to.
func (s Site) Target() (*url.URL, error) {
	raw := s.TargetURL
	if raw == "" {
		raw = s.SecurePrefix
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: target: %v", ErrInvalidSite, err)
	}
	return u, nil
}

func absolute(raw string) error {
	if raw == "" {
		return errors.New("empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

// LoadSite reads a YAML site profile from path. Fields the profile leaves
// empty keep their built-in defaults.
func LoadSite(fs afero.Fs, path string) (Site, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Site{}, fmt.Errorf("read site profile: %w", err)
	}
	site := DefaultSite()
	if err := yaml.Unmarshal(data, &site); err != nil {
		return Site{}, fmt.Errorf("%w: %s: %v", ErrInvalidSite, path, err)
	}
	if err := site.Validate(); err != nil {
		return Site{}, err
	}
	return site, nil
}

// Config is the complete settings of one login run.
type Config struct {
	Site       Site
	OutputPath string
	// Timeout bounds the login attempt. Zero waits forever.
	Timeout time.Duration

	Surface  SurfaceKind
	ExecPath string

	BridgeAddr           string
	BridgeToken          string
	BridgeConnectTimeout time.Duration

	LogFile string
	Debug   bool
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	return Config{
		Site:                 DefaultSite(),
		OutputPath:           ResolveOutputPath(""),
		Surface:              SurfaceChrome,
		BridgeAddr:           DefaultBridgeAddr,
		BridgeConnectTimeout: DefaultBridgeConnectTimeout,
	}
}

// Validate reports settings that would make the run fail before the
// surface is even shown.
func (c Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalidConfig, c.Timeout)
	}
	switch c.Surface {
	case SurfaceChrome:
	case SurfaceBridge:
		if c.BridgeAddr == "" {
			return fmt.Errorf("%w: bridge surface needs a listen address", ErrInvalidConfig)
		}
		if c.BridgeToken == "" {
			return fmt.Errorf("%w: bridge surface needs a token", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown surface %q", ErrInvalidConfig, c.Surface)
	}
	return nil
}

// ResolveOutputPath returns arg, or the fixed artifact name inside the
// system temporary directory when arg is empty.
func ResolveOutputPath(arg string) string {
	if arg != "" {
		return arg
	}
	return filepath.Join(os.TempDir(), ArtifactFileName)
}
