package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/request-analytics/internal/analytics"
	"github.com/spec-kit/request-analytics/internal/api/http/handlers"
	"github.com/spec-kit/request-analytics/internal/auth"
	"github.com/spec-kit/request-analytics/internal/config"
	"github.com/spec-kit/request-analytics/internal/observability"
	"github.com/spec-kit/request-analytics/internal/repository"
	"github.com/spec-kit/request-analytics/internal/service"
)

const (
	testOperator = "operator"
	testPassword = "Str0ng!pass"
)

type fakePinger struct {
	enabled bool
	err     error
}

func (f fakePinger) Enabled() bool              { return f.enabled }
func (f fakePinger) Ping(context.Context) error { return f.err }

type testServer struct {
	app     *fiber.App
	tracker *analytics.Tracker
}

func newTestServer(t *testing.T, deps map[string]handlers.Pinger) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg, zap.NewNop())
	tracker := analytics.NewTracker(analytics.DefaultWindowMinutes, nil)

	authSvc, err := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
		OperatorUsername:      testOperator,
		OperatorPassword:      testPassword,
	})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, tracker, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("request-analytics", "test", deps),
		Validation:     handlers.NewValidationHandler(),
		Users:          handlers.NewUsersHandler(service.NewUserService(repository.NewMockUserRepository())),
		Auth:           handlers.NewAuthHandler(authSvc),
		Analytics:      handlers.NewAnalyticsHandler(tracker, metrics, analytics.DefaultZThreshold),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager()),
		Gatherer:       reg,
		MetricsPath:    "/metrics",
	})
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	return &testServer{app: app, tracker: tracker}
}

func (s *testServer) do(t *testing.T, method, target, body, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return out
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	env, ok := decode(t, raw)["error"].(map[string]any)
	if !ok {
		t.Fatalf("missing error envelope in %s", raw)
	}
	code, _ := env["code"].(string)
	return code
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	status, raw := s.do(t, "POST", "/auth/operator/login", `{"username":"operator","password":"Str0ng!pass"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", status, raw)
	}
	data := decode(t, raw)["data"].(map[string]any)
	if data["token_type"] != "Bearer" {
		t.Errorf("unexpected token type %v", data["token_type"])
	}
	return data["token"].(string)
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, nil)
	status, raw := s.do(t, "GET", "/", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	body := decode(t, raw)
	if body["status"] != "ok" || body["service"] != "request-analytics" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestValidateEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name   string
		target string
		body   string
		status int
		valid  bool
	}{
		{"valid email", "/validate/email", `{"email":"user@example.com"}`, 200, true},
		{"invalid email", "/validate/email", `{"email":"bad-email"}`, 200, false},
		{"empty email", "/validate/email", `{"email":""}`, 200, false},
		{"strong password", "/validate/password", `{"password":"Str0ng!Pass"}`, 200, true},
		{"weak password", "/validate/password", `{"password":"weak"}`, 200, false},
		{"valid username", "/validate/username", `{"username":"alice_01"}`, 200, true},
		{"username with markup", "/validate/username", `{"username":"<b>alice_01</b>"}`, 200, true},
		{"username leading digit", "/validate/username", `{"username":"1alice"}`, 200, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := s.do(t, "POST", tt.target, tt.body, "")
			if status != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, status, raw)
			}
			body := decode(t, raw)
			if body["valid"] != tt.valid {
				t.Errorf("expected valid=%v, got %v", tt.valid, body["valid"])
			}
			errs, ok := body["errors"].([]any)
			if !ok {
				t.Fatalf("errors must be an array, got %v", body["errors"])
			}
			if tt.valid != (len(errs) == 0) {
				t.Errorf("valid=%v inconsistent with errors %v", tt.valid, errs)
			}
		})
	}
}

func TestValidateMissingField(t *testing.T) {
	s := newTestServer(t, nil)
	for _, target := range []string{"/validate/email", "/validate/password", "/validate/username"} {
		status, raw := s.do(t, "POST", target, `{}`, "")
		if status != fiber.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", target, status)
			continue
		}
		if code := errorCode(t, raw); code != "VALIDATION_FAILED" {
			t.Errorf("%s: expected VALIDATION_FAILED, got %s", target, code)
		}
	}
}

func TestGetUser(t *testing.T) {
	s := newTestServer(t, nil)

	status, raw := s.do(t, "GET", "/users/1", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	user := decode(t, raw)
	if user["id"] != float64(1) || user["username"] != "alice" || user["email"] != "alice@example.com" || user["is_active"] != true {
		t.Errorf("unexpected user %v", user)
	}
	if user["created_at"] != "2025-01-15T10:30:00Z" {
		t.Errorf("unexpected created_at %v", user["created_at"])
	}

	status, raw = s.do(t, "GET", "/users/2", "", "")
	if status != fiber.StatusOK || decode(t, raw)["is_active"] != false {
		t.Errorf("expected inactive bob, got %d %s", status, raw)
	}

	status, raw = s.do(t, "GET", "/users/999", "", "")
	if status != fiber.StatusNotFound || errorCode(t, raw) != "NOT_FOUND" {
		t.Errorf("expected 404 NOT_FOUND, got %d %s", status, raw)
	}

	status, raw = s.do(t, "GET", "/users/abc", "", "")
	if status != fiber.StatusUnprocessableEntity || errorCode(t, raw) != "VALIDATION_FAILED" {
		t.Errorf("expected 422 VALIDATION_FAILED, got %d %s", status, raw)
	}
}

func TestOperatorLogin(t *testing.T) {
	s := newTestServer(t, nil)
	if token := s.login(t); token == "" {
		t.Fatal("expected a token")
	}

	status, raw := s.do(t, "POST", "/auth/operator/login", `{"username":"operator","password":"nope"}`, "")
	if status != fiber.StatusUnauthorized || errorCode(t, raw) != "UNAUTHORIZED" {
		t.Errorf("expected 401, got %d %s", status, raw)
	}
	status, _ = s.do(t, "POST", "/auth/operator/login", `{"username":"operator"}`, "")
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", status)
	}
}

func TestAnalyticsRequiresOperatorToken(t *testing.T) {
	s := newTestServer(t, nil)
	for _, target := range []string{"/analytics/report", "/analytics/anomalies", "/analytics/errors"} {
		status, raw := s.do(t, "GET", target, "", "")
		if status != fiber.StatusUnauthorized || errorCode(t, raw) != "UNAUTHORIZED" {
			t.Errorf("%s: expected 401, got %d %s", target, status, raw)
		}
		status, _ = s.do(t, "GET", target, "", "not-a-jwt")
		if status != fiber.StatusUnauthorized {
			t.Errorf("%s: expected 401 for garbage token, got %d", target, status)
		}
	}
}

func TestAnalyticsReport(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t)

	s.do(t, "GET", "/users/1", "", "")
	s.do(t, "GET", "/users/1", "", "")
	s.do(t, "GET", "/users/404", "", "")

	status, raw := s.do(t, "GET", "/analytics/report?path=/users/1", "", token)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, raw)
	}
	report := decode(t, raw)
	if report["total_requests"] != float64(2) {
		t.Errorf("expected 2 requests for /users/1, got %v", report["total_requests"])
	}
	if !strings.HasPrefix(report["report_id"].(string), "rpt-") {
		t.Errorf("unexpected report id %v", report["report_id"])
	}
	if _, ok := report["p99"]; !ok {
		t.Error("expected percentile fields")
	}
	if report["error_rate"] != float64(0) {
		t.Errorf("expected zero error rate, got %v", report["error_rate"])
	}

	status, raw = s.do(t, "GET", "/analytics/report?path=/never", "", token)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	empty := decode(t, raw)
	if empty["total_requests"] != float64(0) || empty["message"] != "No data available" {
		t.Errorf("unexpected empty report %v", empty)
	}
	if _, ok := empty["p50"]; ok {
		t.Error("empty report must not carry percentile fields")
	}
}

func TestAnalyticsErrorsAndAnomalies(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t)

	s.do(t, "GET", "/users/404", "", "")
	s.do(t, "GET", "/users/404", "", "")

	status, raw := s.do(t, "GET", "/analytics/errors", "", token)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	counts := decode(t, raw)["error_counts"].(map[string]any)
	if counts["404:/users/404"] != float64(2) {
		t.Errorf("expected 2 not-found errors, got %v", counts)
	}

	for _, v := range []float64{50, 51, 52, 50, 51, 52, 50, 51, 52, 50, 500} {
		s.tracker.Record("/synthetic", 200, v, "GET")
	}
	status, raw = s.do(t, "GET", "/analytics/anomalies?path=/synthetic&z=2.5", "", token)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, raw)
	}
	body := decode(t, raw)
	if body["z_threshold"] != 2.5 || body["count"] != float64(1) {
		t.Fatalf("unexpected anomalies body %v", body)
	}
	first := body["anomalies"].([]any)[0].(map[string]any)
	if first["response_time"] != float64(500) {
		t.Errorf("expected the 500ms outlier, got %v", first)
	}

	status, raw = s.do(t, "GET", "/analytics/anomalies?z=-1", "", token)
	if status != fiber.StatusBadRequest || errorCode(t, raw) != "BAD_REQUEST" {
		t.Errorf("expected 400 for negative z, got %d %s", status, raw)
	}
}

func TestTrackerRecordsFinalStatus(t *testing.T) {
	s := newTestServer(t, nil)

	status, raw := s.do(t, "GET", "/boom", "", "")
	if status != fiber.StatusInternalServerError || errorCode(t, raw) != "INTERNAL_ERROR" {
		t.Fatalf("expected 500 INTERNAL_ERROR, got %d %s", status, raw)
	}
	s.do(t, "GET", "/missing", "", "")

	counts := s.tracker.ErrorCounts()
	if counts["500:/boom"] != 1 || counts["404:/missing"] != 1 {
		t.Errorf("unexpected error counts %v", counts)
	}
	records := s.tracker.Records()
	if len(records) != 2 || records[0].Method != "GET" {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, "GET", "/", "", "")

	status, raw := s.do(t, "GET", "/metrics", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(raw), `http_requests_total{method="GET",route="/",status="200"} 1`) {
		t.Errorf("expected request counter in exposition, got:\n%s", raw)
	}
}

func TestReadiness(t *testing.T) {
	s := newTestServer(t, map[string]handlers.Pinger{
		"postgres": fakePinger{enabled: false},
		"redis":    fakePinger{enabled: true},
	})
	status, raw := s.do(t, "GET", "/health/ready", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, raw)
	}
	deps := decode(t, raw)["dependencies"].(map[string]any)
	if deps["postgres"] != "disabled" || deps["redis"] != "ok" {
		t.Errorf("unexpected dependency status %v", deps)
	}

	s = newTestServer(t, map[string]handlers.Pinger{
		"redis": fakePinger{enabled: true, err: errors.New("connection refused")},
	})
	status, raw = s.do(t, "GET", "/health/ready", "", "")
	if status != fiber.StatusServiceUnavailable || errorCode(t, raw) != "DEPENDENCY_UNAVAILABLE" {
		t.Errorf("expected 503, got %d %s", status, raw)
	}
}
