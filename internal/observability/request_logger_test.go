package observability

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedCall struct {
	path   string
	status int
	ms     float64
	method string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) Record(path string, status int, responseTimeMs float64, method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{path: path, status: status, ms: responseTimeMs, method: method})
}

func (f *fakeRecorder) last(t *testing.T) recordedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("recorder was not called")
	}
	return f.calls[len(f.calls)-1]
}

func newLoggedApp(t *testing.T) (*fiber.App, *fakeRecorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	metrics, _ := newTestMetrics(t)
	rec := &fakeRecorder{}

	app := fiber.New()
	app.Use(RequestID())
	app.Use(RequestLogger(logger, metrics, rec))
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Post("/fail", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadGateway).SendString("upstream")
	})
	app.Get("/raw-error", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	return app, rec, logs
}

func TestRequestLogger_RecordsCompletedRequest(t *testing.T) {
	app, rec, logs := newLoggedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/items/42", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	call := rec.last(t)
	if call.path != "/items/42" || call.status != 200 || call.method != "GET" {
		t.Errorf("unexpected recorded call %+v", call)
	}
	if call.ms < 0 {
		t.Errorf("expected non-negative latency, got %v", call.ms)
	}

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("expected info level, got %v", entries[0].Level)
	}
	if _, ok := entries[0].ContextMap()["request_id"]; !ok {
		t.Error("log entry should carry the request id")
	}
}

func TestRequestLogger_UsesFinalStatus(t *testing.T) {
	app, rec, logs := newLoggedApp(t)

	if _, err := app.Test(httptest.NewRequest("POST", "/fail", nil)); err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	call := rec.last(t)
	if call.status != fiber.StatusBadGateway || call.method != "POST" {
		t.Errorf("unexpected recorded call %+v", call)
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
		t.Errorf("expected 5xx to log at error level, got %d entries", n)
	}
}

func TestRequestLogger_UnhandledFiberError(t *testing.T) {
	app, rec, _ := newLoggedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/raw-error", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusTeapot {
		t.Fatalf("expected 418 from fiber's default handler, got %d", resp.StatusCode)
	}
	if call := rec.last(t); call.status != fiber.StatusTeapot {
		t.Errorf("expected recorded status 418, got %d", call.status)
	}
}

func TestRequestLogger_UnmatchedRoute(t *testing.T) {
	app, rec, logs := newLoggedApp(t)

	if _, err := app.Test(httptest.NewRequest("GET", "/nope", nil)); err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	call := rec.last(t)
	if call.status != fiber.StatusNotFound || call.path != "/nope" {
		t.Errorf("unexpected recorded call %+v", call)
	}
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 1 {
		t.Errorf("expected 4xx to log at warn level, got %d entries", n)
	}
}

func TestRequestID_EchoesInboundHeader(t *testing.T) {
	app, _, _ := newLoggedApp(t)

	req := httptest.NewRequest("GET", "/items/1", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/items/1", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("expected a generated UUID, got %q", got)
	}
}

func TestRequestLogger_NilRecorder(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), nil, nil))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}
