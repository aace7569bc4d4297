package login

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/pkg/logger"
)

func testOptions(l logger.Logger) Options {
	return Options{
		EntryURL:     "http://canvas.asu.edu",
		SecurePrefix: "https://canvas.asu.edu",
		Logger:       l,
	}
}

func TestController_CompletesOnSecurePrefix(t *testing.T) {
	s := newFakeSurface(func(f *fakeSurface) {
		f.EmitProgress("https://weblogin.asu.edu/cas/login")
		f.add("a", "1")
		f.add("b", "2")
		f.remove("a")
		f.EmitProgress("https://canvas.asu.edu/")
		// Delivered after completion; must not reach the jar.
		f.add("late", "x")
		f.EmitProgress("https://canvas.asu.edu/courses")
	})
	c := NewController(s, testOptions(nil))

	jar, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(map[string]string(jar), map[string]string{"b": "2"}) {
		t.Errorf("unexpected jar: %v", jar)
	}
	if c.State() != StateDone {
		t.Errorf("expected StateDone, got %v", c.State())
	}
	if c.FinalURL() != "https://canvas.asu.edu/" {
		t.Errorf("unexpected final URL %q", c.FinalURL())
	}
	if s.closeCount() == 0 {
		t.Error("expected surface to be closed")
	}
	if len(s.navigated) != 1 || s.navigated[0] != "http://canvas.asu.edu" {
		t.Errorf("unexpected navigation: %v", s.navigated)
	}

	<-s.scriptEnd
	if n := s.Subscribers(); n != 0 {
		t.Errorf("expected all subscriptions torn down, %d left", n)
	}
}

func TestController_EmptyJarIsSuccess(t *testing.T) {
	s := newFakeSurface(func(f *fakeSurface) {
		f.EmitProgress("https://canvas.asu.edu/dashboard")
	})
	jar, err := NewController(s, testOptions(nil)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jar == nil || len(jar) != 0 {
		t.Errorf("expected empty non-nil jar, got %#v", jar)
	}
}

func TestController_PlainHTTPDoesNotComplete(t *testing.T) {
	s := newFakeSurface(func(f *fakeSurface) {
		f.add("sid", "1")
		f.EmitProgress("http://canvas.asu.edu/login")
		f.userClose()
	})
	_, err := NewController(s, testOptions(nil)).Run(context.Background())
	if !errors.Is(err, autherr.AuthenticationIncomplete) {
		t.Fatalf("expected AuthenticationIncomplete, got %v", err)
	}
}

func TestController_StartFailure(t *testing.T) {
	s := newFakeSurface(nil)
	s.startErr = errors.New("no display")
	log := logger.NewMockLogger()
	c := NewController(s, testOptions(log))

	_, err := c.Run(context.Background())
	if !errors.Is(err, autherr.SurfaceInit) {
		t.Fatalf("expected SurfaceInit, got %v", err)
	}
	if err.Error() != "no display" {
		t.Errorf("expected plain cause as message, got %q", err.Error())
	}
	if len(s.navigated) != 0 {
		t.Error("navigate must not run after start failure")
	}
	if c.State() != StateDone {
		t.Errorf("expected StateDone, got %v", c.State())
	}
	if len(log.Errors()) == 0 {
		t.Error("expected start failure to be logged")
	}
}

func TestController_StartFailureKeepsKind(t *testing.T) {
	s := newFakeSurface(nil)
	s.startErr = autherr.New(autherr.KindTimeout, "surface.start", "extension never connected")
	_, err := NewController(s, testOptions(nil)).Run(context.Background())
	if autherr.KindOf(err) != autherr.KindTimeout {
		t.Errorf("expected classified error to pass through, got %v", autherr.KindOf(err))
	}
}

func TestController_Timeout(t *testing.T) {
	s := newFakeSurface(func(f *fakeSurface) {
		f.EmitProgress("https://weblogin.asu.edu/cas/login")
	})
	opts := testOptions(nil)
	opts.Timeout = 20 * time.Millisecond
	c := NewController(s, opts)

	_, err := c.Run(context.Background())
	if !errors.Is(err, autherr.Timeout) {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if s.closeCount() == 0 {
		t.Error("expected surface to be closed on timeout")
	}
}

func TestController_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newFakeSurface(func(f *fakeSurface) { cancel() })
	_, err := NewController(s, testOptions(nil)).Run(ctx)
	if !errors.Is(err, autherr.AuthenticationIncomplete) {
		t.Fatalf("expected AuthenticationIncomplete, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestController_NavigateErrorKeepsWaiting(t *testing.T) {
	s := newFakeSurface(func(f *fakeSurface) {
		f.add("sid", "abc")
		f.EmitProgress("https://canvas.asu.edu/")
	})
	s.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	log := logger.NewMockLogger()

	jar, err := NewController(s, testOptions(log)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jar["sid"] != "abc" {
		t.Errorf("unexpected jar %v", jar)
	}
	if len(log.Warnings()) == 0 {
		t.Error("expected navigate failure to be logged as a warning")
	}
}

func TestController_RunTwice(t *testing.T) {
	s := newFakeSurface(func(f *fakeSurface) { f.EmitProgress("https://canvas.asu.edu") })
	c := NewController(s, testOptions(nil))
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background()); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("expected ErrAlreadyRun, got %v", err)
	}
}

func TestController_CookieValuesNotLogged(t *testing.T) {
	s := newFakeSurface(func(f *fakeSurface) {
		f.add("canvas_session", "s3cr3t")
		f.EmitProgress("https://canvas.asu.edu/")
	})
	log := logger.NewMockLogger()
	if _, err := NewController(s, testOptions(log)).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-s.scriptEnd
	all := append(append(append([]string{}, log.InfoCalls...), log.DebugCalls...), log.Warnings()...)
	for _, line := range all {
		if strings.Contains(line, "s3cr3t") {
			t.Errorf("cookie value leaked into log: %q", line)
		}
	}
}

func TestController_CompletesWhenUnsubscribeFails(t *testing.T) {
	inner := newFakeSurface(func(f *fakeSurface) {
		f.add("sid", "abc")
		f.EmitProgress("https://canvas.asu.edu/")
	})
	log := logger.NewMockLogger()
	c := NewController(detachedSurface{inner}, testOptions(log))

	jar, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(map[string]string(jar), map[string]string{"sid": "abc"}) {
		t.Errorf("unexpected jar: %v", jar)
	}
	if c.State() != StateDone {
		t.Errorf("expected StateDone, got %v", c.State())
	}

	var cookieWarn, progressWarn bool
	for _, w := range log.Warnings() {
		if strings.Contains(w, "cookie unsubscribe") && strings.Contains(w, "already disconnected") {
			cookieWarn = true
		}
		if strings.Contains(w, "progress unsubscribe") && strings.Contains(w, "already disconnected") {
			progressWarn = true
		}
	}
	if !cookieWarn || !progressWarn {
		t.Errorf("expected both unsubscribe failures logged, got %v", log.Warnings())
	}
}

func TestController_TimeoutDuringStart(t *testing.T) {
	s := newFakeSurface(nil)
	s.startBlocks = true
	opts := testOptions(nil)
	opts.Timeout = 20 * time.Millisecond

	_, err := NewController(s, opts).Run(context.Background())
	if !errors.Is(err, autherr.Timeout) {
		t.Fatalf("expected Timeout, got %v (%s)", err, autherr.KindOf(err))
	}
	if len(s.navigated) != 0 {
		t.Error("navigate must not run when start times out")
	}
}

func TestController_CancelDuringStartIsSurfaceInit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newFakeSurface(nil)
	s.startBlocks = true
	opts := testOptions(nil)
	opts.Timeout = time.Hour

	_, err := NewController(s, opts).Run(ctx)
	if !errors.Is(err, autherr.SurfaceInit) {
		t.Fatalf("expected SurfaceInit, got %v", err)
	}
}
