package server

import (
	"net/http/httptest"
	"testing"

	"github.com/icalado/geo-snap-pro/internal/config"
	"github.com/icalado/geo-snap-pro/internal/stream"
)

func TestHealthRoute(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil, nil, stream.NewHub(nil))

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestMutatingRoutesRequireToken(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil, nil, stream.NewHub(nil))

	for _, path := range []string{"/tracking/start", "/tracking/stop", "/sync/force", "/offline/drain"} {
		req := httptest.NewRequest("POST", path, nil)
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("test request %s: %v", path, err)
		}
		if resp.StatusCode != 401 {
			t.Fatalf("expected 401 for %s without token, got %d", path, resp.StatusCode)
		}
	}
}
