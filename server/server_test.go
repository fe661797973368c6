package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/drugbank-mapping/config"
	"github.com/giygas/drugbank-mapping/data"
	"github.com/giygas/drugbank-mapping/mapping"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:      config.ModeServe,
		Env:       config.EnvTest,
		Port:      "0",
		Address:   "127.0.0.1",
		RefreshAt: "06:00;18:00",
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	container := data.NewDataContainer()
	container.UpdateData([]mapping.Row{
		{BrandName: "bayer", GenericName: "aspirin"},
		{BrandName: "advil", GenericName: "ibuprofen"},
		{BrandName: "motrin", GenericName: "ibuprofen"},
	}, mapping.Stats{Records: 2, Rows: 3})

	s := NewServer(testConfig(), container)
	t.Cleanup(s.limiter.Stop)
	return s
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)

	if s.server.Addr != "127.0.0.1:0" {
		t.Errorf("Expected address 127.0.0.1:0, got %s", s.server.Addr)
	}
	if s.server.ReadTimeout != 15*time.Second || s.server.WriteTimeout != 15*time.Second {
		t.Errorf("Unexpected timeouts: read %v write %v", s.server.ReadTimeout, s.server.WriteTimeout)
	}
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"brand lookup", "/brands/advil", http.StatusOK, `"generic_names":["ibuprofen"]`},
		{"generic lookup", "/generics/ibuprofen", http.StatusOK, `"brand_names":["advil","motrin"]`},
		{"mappings page", "/mappings?page=1", http.StatusOK, `"totalItems":3`},
		{"health", "/health", http.StatusOK, `"status":"healthy"`},
		{"metrics", "/metrics", http.StatusOK, "drugmap_"},
		{"unknown brand", "/brands/tylenol", http.StatusNotFound, `"code":404`},
		{"unknown route", "/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d for %s, got %d: %s", tt.wantStatus, tt.path, rr.Code, rr.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("Expected body of %s to contain %s, got %s", tt.path, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/brands/bayer", nil))

	if rr.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Errorf("Expected rate limit headers, got %v", rr.Header())
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "990" {
		t.Errorf("Expected 990 remaining tokens, got %s", rr.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRedirectSlashes(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/", nil))

	if rr.Code != http.StatusMovedPermanently {
		t.Errorf("Expected trailing slash redirect, got %d", rr.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestServer(t)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	// Give ListenAndServe a moment to bind
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			t.Errorf("Expected http.ErrServerClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not stop")
	}

	if s.dataContainer.GetServerStartTime().IsZero() {
		t.Error("Start should record the server start time")
	}
}
