package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"Metrics endpoint", "/metrics", 0},
		{"Health endpoint", "/health", 5},
		{"Mappings page", "/mappings", 50},
		{"Brand lookup", "/brands/advil", 10},
		{"Generic lookup", "/generics/ibuprofen", 10},
		{"Brands without name", "/brands", 20},
		{"Default endpoint", "/unknown", 20},
		{"Root path", "/", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost := getTokenCost(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if cost != tt.expectedCost {
				t.Errorf("Expected cost %d for path %s, got %d", tt.expectedCost, tt.path, cost)
			}
		})
	}
}

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		xff      string
		expected string
	}{
		{"no header keeps remote addr", "", "192.0.2.1:1234"},
		{"single address", "203.0.113.7", "203.0.113.7"},
		{"first of a chain", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if seen != tt.expected {
				t.Errorf("Expected RemoteAddr %s, got %s", tt.expected, seen)
			}
		})
	}
}

func TestRateLimiterHandler(t *testing.T) {
	limiter := NewRateLimiter()
	defer limiter.Stop()

	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/mappings", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	// 1000 tokens at 50 per page: 20 pages, then the bucket is empty
	for i := 0; i < 20; i++ {
		if rr := request("198.51.100.1"); rr.Code != http.StatusOK {
			t.Fatalf("Request %d should pass, got %d", i, rr.Code)
		}
	}

	rr := request("198.51.100.1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 once the bucket is empty, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" || rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("Missing rate limit headers: %v", rr.Header())
	}

	// Other clients have their own bucket
	if rr := request("198.51.100.2"); rr.Code != http.StatusOK {
		t.Errorf("A different client should not be limited, got %d", rr.Code)
	}
}

func TestRateLimiterRemoveIdle(t *testing.T) {
	limiter := NewRateLimiter()
	defer limiter.Stop()

	limiter.getBucket("idle")
	busy := limiter.getBucket("busy")
	busy.TakeAvailable(500)

	if removed := limiter.removeIdle(); removed != 1 {
		t.Errorf("Expected 1 idle client removed, got %d", removed)
	}
	if _, ok := limiter.clients["busy"]; !ok {
		t.Error("Busy client should be kept")
	}

	// Stop twice is harmless
	limiter.Stop()
}
