package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRunChecks_ReportsFailures(t *testing.T) {
	failures := RunChecks(context.Background(), time.Second,
		ReadyCheck{Name: "db", Check: func(context.Context) error { return nil }},
		ReadyCheck{Name: "kafka", Check: func(context.Context) error { return errors.New("down") }},
		ReadyCheck{Check: func(context.Context) error { return errors.New("boom") }},
		ReadyCheck{Name: "nil"},
	)
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %v", failures)
	}
	if failures[0] != "kafka: down" || failures[1] != "dependency: boom" {
		t.Fatalf("unexpected failures: %v", failures)
	}
}

func TestReadyz(t *testing.T) {
	mux := NewBaseMuxWithReady(ReadyCheck{Name: "db", Check: func(context.Context) error { return errors.New("no conn") }})

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
	if !strings.Contains(rw.Body.String(), `"db: no conn"`) {
		t.Fatalf("unexpected body: %q", rw.Body.String())
	}

	rw = httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG").String() != "DEBUG" {
		t.Fatal("expected debug level")
	}
	if ParseLevel("").String() != "INFO" {
		t.Fatal("expected info default")
	}
}
