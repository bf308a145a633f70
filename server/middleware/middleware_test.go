package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/draftkit/auth/authctx"
	"github.com/kbukum/draftkit/auth/jwt"
	"github.com/kbukum/draftkit/logger"
	"github.com/kbukum/draftkit/server/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, body)
	}
	return resp.Error.Code
}

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/drafts", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if code := errorCode(t, rr.Body.Bytes()); code != "INTERNAL_ERROR" {
		t.Errorf("unexpected code %q", code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(middleware.HeaderRequestID)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if seen == "" || rr.Header().Get(middleware.HeaderRequestID) != seen {
		t.Errorf("expected generated id to be propagated, got %q / %q", seen, rr.Header().Get(middleware.HeaderRequestID))
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "req-1")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get(middleware.HeaderRequestID) != "req-1" {
		t.Errorf("expected existing id to be preserved")
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "PUT"},
	}
	handler := middleware.CORS(cfg)(okHandler())

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", http.MethodGet, "https://app.example.com", http.StatusOK, "https://app.example.com"},
		{"other origin", http.MethodGet, "https://evil.example.com", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "https://app.example.com", http.StatusNoContent, "https://app.example.com"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/v1/drafts", http.NoBody)
			req.Header.Set("Origin", tc.origin)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllow {
				t.Errorf("expected allow-origin %q, got %q", tc.wantAllow, got)
			}
		})
	}
}

func TestBodySizeLimit(t *testing.T) {
	var readErr error
	handler := middleware.BodySizeLimit("1KB")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(strings.Repeat("a", 2048))))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for declared length, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/", io.NopCloser(bytes.NewReader(bytes.Repeat([]byte("a"), 2048))))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if readErr == nil {
		t.Error("expected read past the limit to fail")
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "draftd", &buf)
	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/drafts/x", http.NoBody))
	if !strings.Contains(buf.String(), `"status":404`) || !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("unexpected log output %s", buf.String())
	}

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if buf.Len() != 0 {
		t.Errorf("health checks should not be logged, got %s", buf.String())
	}
}

func TestAuth(t *testing.T) {
	svc, err := jwt.NewService(&jwt.Config{Secret: "s3cret"}, jwt.NewClaims)
	if err != nil {
		t.Fatal(err)
	}
	valid, _ := svc.GenerateAccess(&jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: "user-7"}})
	expiredClaims := &jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   "user-7",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	expired, _ := svc.GenerateAccess(expiredClaims)

	var subject string
	handler := middleware.Auth(svc, "/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ = authctx.Subject(r.Context())
	}))

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode string
		wantSub  string
	}{
		{"valid token", "/v1/drafts", "Bearer " + valid, "", "user-7"},
		{"skipped path", "/health", "", "", ""},
		{"missing header", "/v1/drafts", "", "UNAUTHORIZED", ""},
		{"wrong scheme", "/v1/drafts", "Basic abc", "UNAUTHORIZED", ""},
		{"bad token", "/v1/drafts", "Bearer nope", "INVALID_TOKEN", ""},
		{"expired token", "/v1/drafts", "Bearer " + expired, "TOKEN_EXPIRED", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject = ""
			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if tc.wantCode == "" {
				if rr.Code != http.StatusOK || subject != tc.wantSub {
					t.Errorf("expected pass-through with subject %q, got %d / %q", tc.wantSub, rr.Code, subject)
				}
				return
			}
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			if code := errorCode(t, rr.Body.Bytes()); code != tc.wantCode {
				t.Errorf("expected %s, got %s", tc.wantCode, code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(middleware.RateLimit(ctx, middleware.RateLimitConfig{RequestsPerMinute: 2}))
	r.GET("/v1/drafts", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/v1/drafts", http.NoBody))
		codes = append(codes, last.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}
	if code := errorCode(t, last.Body.Bytes()); code != "RATE_LIMITED" {
		t.Errorf("expected RATE_LIMITED, got %s", code)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	middleware.Chain(mark("a"), mark("b"))(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if strings.Join(order, ",") != "a,b" {
		t.Errorf("unexpected order %v", order)
	}
}

func TestGinWrapAbortsWhenMiddlewareStops(t *testing.T) {
	svc, _ := jwt.NewService(&jwt.Config{Secret: "s3cret"}, jwt.NewClaims)
	r := gin.New()
	reached := false
	r.GET("/private", middleware.GinWrap(middleware.Auth(svc)), func(c *gin.Context) { reached = true })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/private", http.NoBody))
	if rr.Code != http.StatusUnauthorized || reached {
		t.Errorf("expected 401 without reaching the handler, got %d (reached=%v)", rr.Code, reached)
	}
}
