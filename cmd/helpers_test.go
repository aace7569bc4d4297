package cmd

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/palette/canvaslogin/cmd/common"
	"github.com/palette/canvaslogin/internal/config"
	"github.com/palette/canvaslogin/internal/cookies"
	"github.com/palette/canvaslogin/internal/surface"
	"github.com/palette/canvaslogin/pkg/logger"
	"github.com/spf13/afero"
)

// scriptedSurface plays a fixed sequence of browser events once the
// controller navigates.
type scriptedSurface struct {
	surface.Signals
	startErr error
	script   func(s *scriptedSurface)

	done     chan struct{}
	doneOnce sync.Once
}

func newScriptedSurface(script func(s *scriptedSurface)) *scriptedSurface {
	return &scriptedSurface{script: script, done: make(chan struct{})}
}

func (s *scriptedSurface) Start(ctx context.Context) error { return s.startErr }

func (s *scriptedSurface) Navigate(ctx context.Context, url string) error {
	if s.script != nil {
		go s.script(s)
	}
	return nil
}

func (s *scriptedSurface) Done() <-chan struct{} { return s.done }

func (s *scriptedSurface) userClose() { s.doneOnce.Do(func() { close(s.done) }) }

func (s *scriptedSurface) Close() error { return nil }

func (s *scriptedSurface) cookie(name, value string) {
	s.EmitCookieAdded(cookies.Cookie{Name: name, Value: value, Domain: "canvas.asu.edu", Path: "/"})
}

type cliEnv struct {
	fs     afero.Fs
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// setupCLI swaps the filesystem, standard streams and surface factory for
// the duration of a test.
func setupCLI(t *testing.T, s surface.Surface) *cliEnv {
	t.Helper()
	env := &cliEnv{fs: afero.NewMemMapFs(), stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}

	oldFs, oldSurface := appFs, newSurface
	oldOut, oldErr := common.Stdout, common.Stderr
	appFs = env.fs
	common.Stdout, common.Stderr = env.stdout, env.stderr
	newSurface = func(config.Config, logger.Logger) (surface.Surface, error) { return s, nil }
	t.Cleanup(func() {
		appFs, newSurface = oldFs, oldSurface
		common.Stdout, common.Stderr = oldOut, oldErr
	})
	return env
}

func (e *cliEnv) run(args ...string) error {
	return Execute(append([]string{"canvaslogin"}, args...), BuildArgs{Version: "1.0.0", BuildType: "test"})
}

func (e *cliEnv) artifact(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		t.Fatalf("artifact %s: %v", path, err)
	}
	return string(data)
}
