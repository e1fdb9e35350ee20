package cloudsync

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestSyncHandlers(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{log: openLog()}
	engine := NewEngine(store, source, "user-1", time.Hour)

	app := fiber.New()
	RegisterRoutes(app.Group("/sync"), engine, func(c *fiber.Ctx) error { return c.Next() })

	req := httptest.NewRequest(http.MethodGet, "/sync/status", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %v", err)
	}
	var status struct {
		InProgress bool `json:"in_progress"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.InProgress {
		t.Fatalf("no push should be in flight")
	}

	req = httptest.NewRequest(http.MethodPost, "/sync/force", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("force: %v", err)
	}

	store.mu.Lock()
	total := store.creates + store.updates
	store.mu.Unlock()
	if total != 1 {
		t.Fatalf("force must push immediately, got %d pushes", total)
	}
}
