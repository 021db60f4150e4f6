package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerrad567/device-pulse/internal/infrastructure/config"
	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
)

func newTestServer(checks map[string]HealthChecker) *Server {
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test", "test")
	return New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  logger,
		Version: "test",
		Checks:  checks,
	})
}

func TestHealthz(t *testing.T) {
	s := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestReadyz_AllUp(t *testing.T) {
	s := newTestServer(map[string]HealthChecker{
		"redis": func(context.Context) error { return nil },
		"mqtt":  func(context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReadyz_BackendDown(t *testing.T) {
	s := newTestServer(map[string]HealthChecker{
		"redis": func(context.Context) error { return nil },
		"mqtt":  func(context.Context) error { return errors.New("not connected") },
	})

	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Checks map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"checks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != "not ready" {
		t.Errorf("status = %q, want not ready", body.Status)
	}
	if body.Checks["mqtt"].Status != "down" || body.Checks["mqtt"].Error == "" {
		t.Errorf("mqtt check = %+v", body.Checks["mqtt"])
	}
	if body.Checks["redis"].Status != "up" {
		t.Errorf("redis check = %+v", body.Checks["redis"])
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(map[string]HealthChecker{
		"boom": func(context.Context) error { panic("handler exploded") },
	})

	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 from recovery middleware", rec.Code)
	}
}

func TestClose_BeforeStart(t *testing.T) {
	s := newTestServer(nil)
	if err := s.Close(); err != nil {
		t.Errorf("Close() before Start error = %v", err)
	}
}
