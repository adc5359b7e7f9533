package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/face-teller/face_teller/internal/logging"
)

func newIdempotencyApp(t *testing.T) (*fiber.App, *int, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))

	calls := 0
	app.Post("/debit", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})
	app.Get("/debit", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, &calls, cleanup
}

func TestIdempotencyRequiresKeyOnUnsafeMethods(t *testing.T) {
	app, _, cleanup := newIdempotencyApp(t)
	defer cleanup()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/debit", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without key, got %d", resp.StatusCode)
	}
}

func TestIdempotencySkipsSafeMethods(t *testing.T) {
	app, _, cleanup := newIdempotencyApp(t)
	defer cleanup()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/debit", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for GET without key, got %d", resp.StatusCode)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, calls, cleanup := newIdempotencyApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodPost, "/debit", nil)
	req.Header.Set("Idempotency-Key", "debit-001")
	first, err := app.Test(req)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if first.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", first.StatusCode)
	}
	firstBody, _ := io.ReadAll(first.Body)

	retry := httptest.NewRequest(fiber.MethodPost, "/debit", nil)
	retry.Header.Set("Idempotency-Key", "debit-001")
	second, err := app.Test(retry)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	secondBody, _ := io.ReadAll(second.Body)

	if second.StatusCode != first.StatusCode {
		t.Fatalf("replay status %d, want %d", second.StatusCode, first.StatusCode)
	}
	if string(secondBody) != string(firstBody) {
		t.Fatalf("replay body %q, want %q", secondBody, firstBody)
	}
	if *calls != 1 {
		t.Fatalf("handler ran %d times, want 1", *calls)
	}
}

func TestIdempotencyDistinctKeysExecuteIndependently(t *testing.T) {
	app, calls, cleanup := newIdempotencyApp(t)
	defer cleanup()

	for _, key := range []string{"debit-001", "debit-002"} {
		req := httptest.NewRequest(fiber.MethodPost, "/debit", nil)
		req.Header.Set("Idempotency-Key", key)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request %s: %v", key, err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected 201 for %s, got %d", key, resp.StatusCode)
		}
	}
	if *calls != 2 {
		t.Fatalf("handler ran %d times, want 2", *calls)
	}
}
