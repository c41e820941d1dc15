package config

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"WorkHoursMonitor/internal/middleware"
)

func TestHealthCheckGoesThroughGlobalMiddleware(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	s := &Server{
		engine:     fiber.New(),
		log:        log,
		middleware: middleware.New(log),
	}
	s.mountRoutes()

	tests := []struct {
		name      string
		requestID string
	}{
		{name: "generated request id"},
		{name: "caller request id", requestID: "health-check-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			if tt.requestID != "" {
				req.Header.Set(middleware.RequestIDKey, tt.requestID)
			}

			resp, err := s.engine.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("status: got %d, want 200", resp.StatusCode)
			}

			got := resp.Header.Get(middleware.RequestIDKey)
			if got == "" {
				t.Fatalf("health response carries no %s header", middleware.RequestIDKey)
			}
			if tt.requestID != "" && got != tt.requestID {
				t.Errorf("request id: got %q, want %q", got, tt.requestID)
			}

			var body struct {
				Message        string          `json:"message"`
				Checks         map[string]bool `json:"checks"`
				ActiveTrackers int             `json:"active_trackers"`
			}
			raw, _ := io.ReadAll(resp.Body)
			if err := jsoniter.Unmarshal(raw, &body); err != nil {
				t.Fatalf("decode body %s: %v", raw, err)
			}
			if body.Message == "" || body.ActiveTrackers != 0 || len(body.Checks) != 0 {
				t.Errorf("unexpected health body: %s", raw)
			}
		})
	}
}
