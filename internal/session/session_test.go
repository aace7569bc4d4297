package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/internal/cookies"
	"github.com/palette/canvaslogin/pkg/logger"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestMaterialize_RoundTrip(t *testing.T) {
	jar := cookies.Jar{"canvas_session": "abc", "_csrf_token": "x%2By", "log_session_id": "42"}
	target := mustParse(t, "https://canvas.asu.edu")

	s, rec, err := Materialize(jar, target, nil)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !reflect.DeepEqual(s.Cookies(), jar) {
		t.Errorf("client cookies = %v, want %v", s.Cookies(), jar)
	}
	if !rec.Success || !reflect.DeepEqual(rec.Cookies, jar) {
		t.Errorf("unexpected record %+v", rec)
	}
	if s.Client().Jar == nil {
		t.Error("client has no cookie jar")
	}
}

func TestMaterialize_DoesNotMutateInput(t *testing.T) {
	jar := cookies.Jar{"a": "1"}
	_, rec, err := Materialize(jar, mustParse(t, "https://canvas.asu.edu"), nil)
	if err != nil {
		t.Fatal(err)
	}
	rec.Cookies["a"] = "changed"
	if jar["a"] != "1" {
		t.Error("record aliases the input jar")
	}
}

func TestMaterialize_EmptyJar(t *testing.T) {
	s, rec, err := Materialize(cookies.Jar{}, mustParse(t, "https://canvas.asu.edu"), nil)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(s.Cookies()) != 0 {
		t.Errorf("expected no cookies, got %v", s.Cookies())
	}
	if !rec.Success || rec.Cookies == nil || len(rec.Cookies) != 0 {
		t.Errorf("expected success with empty cookies, got %+v", rec)
	}
}

func TestMaterialize_HostOnly(t *testing.T) {
	s, _, err := Materialize(cookies.Jar{"sid": "1"}, mustParse(t, "https://canvas.asu.edu"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Client().Jar.Cookies(mustParse(t, "https://other.asu.edu")); len(got) != 0 {
		t.Errorf("cookie leaked to sibling host: %v", got)
	}
}

func TestMaterialize_UnsendableCookiesStayInRecord(t *testing.T) {
	tests := []struct {
		name  string
		jar   cookies.Jar
		bad   string
		value string
	}{
		{"space in name", cookies.Jar{"sid": "ok", "bad name": "1"}, "bad name", "1"},
		{"empty name", cookies.Jar{"sid": "ok", "": "1"}, "", "1"},
		{"semicolon in value", cookies.Jar{"sid": "ok", "x": "a;b"}, "x", "a;b"},
		{"control byte in value", cookies.Jar{"sid": "ok", "x": "a\x01"}, "x", "a\x01"},
		{"non-ascii value", cookies.Jar{"sid": "ok", "lang": "café"}, "lang", "café"},
		{"json value", cookies.Jar{"sid": "ok", "prefs": `{"k":1}`}, "prefs", `{"k":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := logger.NewMockLogger()
			s, rec, err := Materialize(tt.jar, mustParse(t, "https://canvas.asu.edu"), l)
			if err != nil {
				t.Fatalf("Materialize: %v", err)
			}
			if !rec.Success || !reflect.DeepEqual(rec.Cookies, tt.jar) {
				t.Errorf("record lost cookies: %+v", rec)
			}
			if got := s.Cookies(); !reflect.DeepEqual(got, cookies.Jar{"sid": "ok"}) {
				t.Errorf("client cookies = %v, want only sid", got)
			}
			w := l.Warnings()
			if len(w) != 1 || !strings.Contains(w[0], fmt.Sprintf("%q", tt.bad)) {
				t.Errorf("expected one warning naming %q, got %v", tt.bad, w)
			}
			if strings.Contains(w[0], tt.value) {
				t.Errorf("warning leaks the cookie value: %q", w[0])
			}
		})
	}
}

func TestMaterialize_QuotedValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("token")
		if err != nil {
			http.Error(w, "missing", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, c.Value)
	}))
	defer srv.Close()

	jar := cookies.Jar{"token": `"abc"`, "lang": "café"}
	s, rec, err := Materialize(jar, mustParse(t, srv.URL), nil)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !rec.Success || !reflect.DeepEqual(rec.Cookies, jar) {
		t.Errorf("unexpected record %+v", rec)
	}

	resp, err := s.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "abc" {
		t.Errorf("unexpected response %d %q", resp.StatusCode, body)
	}
}

func TestMaterialize_NoHost(t *testing.T) {
	_, _, err := Materialize(cookies.Jar{}, &url.URL{Path: "/x"}, nil)
	if !errors.Is(err, autherr.CookieCapture) {
		t.Errorf("expected CookieCapture, got %v", err)
	}
}

func TestSession_GetSendsCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("canvas_session")
		if err != nil {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "hello "+c.Value)
	}))
	defer srv.Close()

	s, _, err := Materialize(cookies.Jar{"canvas_session": "abc"}, mustParse(t, srv.URL), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := s.Get(context.Background(), srv.URL+"/api/v1/courses")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "hello abc" {
		t.Errorf("unexpected response %d %q", resp.StatusCode, body)
	}
}
