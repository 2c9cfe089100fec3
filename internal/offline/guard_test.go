package offline

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/core"

	"github.com/gofiber/fiber/v2"
)

// guardApp mounts Guard in front of a trivial handler, with the same
// error-to-status mapping the server uses.
func guardApp(m *Monitor) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, core.ErrOfflineUnavailable) {
				return c.Status(fiber.StatusServiceUnavailable).
					JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Delete("/guarded", Guard(m), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"deleted": true})
	})
	return app
}

func TestGuardBlocksWhileOffline(t *testing.T) {
	m := NewMonitor(&fakeUpstream{}, time.Minute)
	app := guardApp(m)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/guarded", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("offline status = %d, want %d", resp.StatusCode, fiber.StatusServiceUnavailable)
	}
}

func TestGuardPassesWhenOnline(t *testing.T) {
	m := NewMonitor(&fakeUpstream{}, time.Minute)
	m.SetOnline(true)
	app := guardApp(m)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/guarded", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("online status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestGuardExemptsStandalone(t *testing.T) {
	m := NewMonitor(nil, time.Minute)
	app := guardApp(m)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/guarded", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("standalone status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}
