package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/draftkit/auth/jwt"
	"github.com/kbukum/draftkit/component"
	"github.com/kbukum/draftkit/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.Nop())
	gin.SetMode(gin.TestMode)
	return s
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.MaxBodySize != "10MB" || len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = 70000 }, "server.port"},
		{"negative timeout", func(c *Config) { c.ReadTimeout = -1 }, "server.read_timeout"},
		{"negative rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = -5 }, "requests_per_minute"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Config{}
			c.ApplyDefaults()
			tc.mutate(&c)
			err := c.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestDefaultEndpointsThroughMiddleware(t *testing.T) {
	s := newTestServer(t)
	s.ApplyMiddleware(nil)
	s.RegisterDefaultEndpoints("draftd", nil, nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected request id header from the middleware chain")
	}
}

func TestAuthProtectsAPIButNotProbes(t *testing.T) {
	svc, err := jwt.NewService(&jwt.Config{Secret: "s3cret"}, jwt.NewClaims)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t)
	s.ApplyMiddleware(svc)
	s.RegisterDefaultEndpoints("draftd", nil, nil)
	s.GinEngine().GET("/v1/drafts", func(c *gin.Context) { RespondOK(c, []string{}) })

	probe := httptest.NewRecorder()
	s.Handler().ServeHTTP(probe, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))
	if probe.Code != http.StatusOK {
		t.Errorf("probe should be public, got %d", probe.Code)
	}

	denied := httptest.NewRecorder()
	s.Handler().ServeHTTP(denied, httptest.NewRequest(http.MethodGet, "/v1/drafts", http.NoBody))
	if denied.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", denied.Code)
	}

	token, _ := svc.GenerateAccess(&jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: "u1"}})
	req := httptest.NewRequest(http.MethodGet, "/v1/drafts", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	ok := httptest.NewRecorder()
	s.Handler().ServeHTTP(ok, req)
	if ok.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", ok.Code)
	}
}

func TestStartStopComponent(t *testing.T) {
	s := newTestServer(t)
	s.RegisterDefaultEndpoints("draftd", nil, nil)
	c := NewComponent(s)

	ctx := context.Background()
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop(ctx)

	if strings.HasSuffix(s.Addr(), ":0") {
		t.Fatalf("expected bound port, got %s", s.Addr())
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + s.Addr() + "/alive")
	if err != nil {
		t.Fatalf("GET /alive: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["status"] != "alive" {
		t.Errorf("unexpected body %v (%v)", body, err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy while listening, got %s", h.Status)
	}
	if d := c.Describe(); d.Type != "server" {
		t.Errorf("unexpected description %+v", d)
	}
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	RespondWithError(c, context.DeadlineExceeded)
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("unexpected response %d %s", rr.Code, rr.Body.String())
	}
}
