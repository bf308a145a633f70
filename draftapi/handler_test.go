package draftapi_test

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
	"github.com/kbukum/draftkit/draft"
	"github.com/kbukum/draftkit/draft/drafttest"
	"github.com/kbukum/draftkit/draftapi"
	"github.com/kbukum/draftkit/encryption"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/logger"
	"github.com/kbukum/draftkit/server/middleware"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	engine  *gin.Engine
	backend *kv.MemoryStore
	clock   *drafttest.FakeClock
}

func newHarness(t *testing.T, cfg draft.Config, opts ...draftapi.Option) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{
		t:       t,
		engine:  gin.New(),
		backend: kv.NewMemoryStore(),
		clock:   drafttest.NewFakeClock(epoch),
	}
	opts = append([]draftapi.Option{draftapi.WithClock(h.clock), draftapi.WithLogger(logger.Nop())}, opts...)
	handler, err := draftapi.NewHandler(h.backend, cfg, opts...)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	handler.Register(h.engine)
	return h
}

func (h *harness) do(method, path, body string, headers ...string) (int, map[string]any) {
	h.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.engine.ServeHTTP(rr, req)
	var out map[string]any
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			h.t.Fatalf("invalid JSON %q: %v", rr.Body.String(), err)
		}
	}
	return rr.Code, out
}

func (h *harness) seed(key string, at time.Time, value string) {
	h.t.Helper()
	raw, err := draft.EncodeRecord(draft.Record{LastSaved: at, Value: value}, draft.DefaultLastSavedKey)
	if err != nil {
		h.t.Fatal(err)
	}
	if err := h.backend.Set(context.Background(), key, raw); err != nil {
		h.t.Fatal(err)
	}
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestPutGetRoundTrip(t *testing.T) {
	h := newHarness(t, draft.Config{})

	code, body := h.do(http.MethodPut, "/v1/drafts/wizard", `{"value":"{\"step\":2}"}`)
	if code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d %v", code, body)
	}
	if got := data(body)["lastSaved"]; got != float64(epoch.UnixMilli()) {
		t.Errorf("expected lastSaved %d, got %v", epoch.UnixMilli(), got)
	}

	code, body = h.do(http.MethodGet, "/v1/drafts/wizard", "")
	if code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", code)
	}
	rec := data(body)
	if rec["key"] != "wizard_draft" || rec["value"] != `{"step":2}` {
		t.Errorf("unexpected record %v", rec)
	}

	raw, ok, _ := h.backend.Get(context.Background(), "wizard_draft")
	if !ok || !strings.Contains(raw, `"lastSaved":`) {
		t.Errorf("expected a stored record envelope, got %q", raw)
	}

	code, body = h.do(http.MethodGet, "/v1/drafts", "")
	keys, _ := body["data"].([]any)
	if code != http.StatusOK || len(keys) != 1 || keys[0] != "wizard_draft" {
		t.Errorf("unexpected list %d %v", code, body)
	}
}

func TestGetAbsentOrCorrupt(t *testing.T) {
	h := newHarness(t, draft.Config{})
	_ = h.backend.Set(context.Background(), "broken_draft", "{{{")

	for _, key := range []string{"missing", "broken"} {
		code, body := h.do(http.MethodGet, "/v1/drafts/"+key, "")
		if code != http.StatusNotFound || errCode(body) != "NOT_FOUND" {
			t.Errorf("%s: expected 404 NOT_FOUND, got %d %v", key, code, body)
		}
	}
}

func TestPutRejectsBadInput(t *testing.T) {
	h := newHarness(t, draft.Config{})
	tests := []struct {
		name string
		path string
		body string
		code string
	}{
		{"no value", "/v1/drafts/wizard", `{}`, "INVALID_INPUT"},
		{"value not a string", "/v1/drafts/wizard", `{"value":3}`, "INVALID_INPUT"},
		{"not json", "/v1/drafts/wizard", `nope`, "INVALID_INPUT"},
		{"key with space", "/v1/drafts/bad%20key", `{"value":"x"}`, "INVALID_INPUT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := h.do(http.MethodPut, tc.path, tc.body)
			if code != http.StatusBadRequest || errCode(body) != tc.code {
				t.Errorf("expected 400 %s, got %d %v", tc.code, code, body)
			}
		})
	}
}

func TestPutConflict(t *testing.T) {
	tests := []struct {
		name     string
		policy   draft.ConflictPolicy
		expected int64
		wantCode int
	}{
		{"reject stale writer", draft.ConflictReject, epoch.UnixMilli() - 1000, http.StatusConflict},
		{"reject up-to-date writer", draft.ConflictReject, epoch.UnixMilli(), http.StatusOK},
		{"last writer wins", draft.ConflictLastWriterWins, epoch.UnixMilli() - 1000, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, draft.Config{Conflict: tc.policy})
			h.seed("wizard_draft", epoch, `{"step":1}`)
			h.clock.Advance(time.Second)

			body := `{"value":"{\"step\":9}","expectedLastSaved":` + jsonInt(tc.expected) + `}`
			code, resp := h.do(http.MethodPut, "/v1/drafts/wizard", body)
			if code != tc.wantCode {
				t.Fatalf("expected %d, got %d %v", tc.wantCode, code, resp)
			}
			if code == http.StatusConflict && errCode(resp) != "CONFLICT" {
				t.Errorf("expected CONFLICT code, got %v", resp)
			}
		})
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestPutNeverStampsEarlierThanStored(t *testing.T) {
	h := newHarness(t, draft.Config{})
	future := epoch.Add(time.Hour)
	h.seed("wizard_draft", future, "old")

	code, body := h.do(http.MethodPut, "/v1/drafts/wizard", `{"value":"new"}`)
	if code != http.StatusOK || data(body)["lastSaved"] != float64(future.UnixMilli()) {
		t.Errorf("expected stamp clamped to %d, got %d %v", future.UnixMilli(), code, body)
	}
}

func TestDeleteAndStats(t *testing.T) {
	h := newHarness(t, draft.Config{})
	h.seed("wizard_draft", epoch, "Café")

	code, body := h.do(http.MethodGet, "/v1/drafts/wizard/stats", "")
	st := data(body)
	if code != http.StatusOK || st["exists"] != true || st["bytes"].(float64) <= float64(len("Café")) {
		t.Errorf("unexpected stats %d %v", code, body)
	}

	if code, _ := h.do(http.MethodDelete, "/v1/drafts/wizard", ""); code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", code)
	}
	_, body = h.do(http.MethodGet, "/v1/drafts/wizard/stats", "")
	if data(body)["exists"] != false {
		t.Errorf("expected draft to be gone, got %v", body)
	}
}

func TestCleanup(t *testing.T) {
	h := newHarness(t, draft.Config{})
	h.seed("old_draft", epoch.Add(-48*time.Hour), "a")
	h.seed("fresh_draft", epoch.Add(-time.Minute), "b")
	_ = h.backend.Set(context.Background(), "settings", "not a draft")

	code, body := h.do(http.MethodPost, "/v1/drafts/cleanup", `{"maxAge":"24h"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", code, body)
	}
	removed, _ := data(body)["removed"].([]any)
	if len(removed) != 1 || removed[0] != "old_draft" {
		t.Errorf("unexpected removal %v", body)
	}
	if _, ok, _ := h.backend.Get(context.Background(), "settings"); !ok {
		t.Error("keys without the draft suffix must survive")
	}

	for _, bad := range []string{`{}`, `{"maxAge":"soon"}`, `{"maxAge":"-1h"}`} {
		if code, _ := h.do(http.MethodPost, "/v1/drafts/cleanup", bad); code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", bad, code)
		}
	}
}

func TestSubjectNamespace(t *testing.T) {
	svc, err := jwt.NewService(&jwt.Config{Secret: "s3cret"}, jwt.NewClaims)
	if err != nil {
		t.Fatal(err)
	}
	token := func(sub string) string {
		tok, err := svc.GenerateAccess(&jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: sub}})
		if err != nil {
			t.Fatal(err)
		}
		return "Bearer " + tok
	}

	gin.SetMode(gin.TestMode)
	h := &harness{t: t, engine: gin.New(), backend: kv.NewMemoryStore(), clock: drafttest.NewFakeClock(epoch)}
	h.engine.Use(middleware.GinWrap(middleware.Auth(svc)))
	handler, err := draftapi.NewHandler(h.backend, draft.Config{},
		draftapi.WithClock(h.clock), draftapi.WithSubjectNamespace())
	if err != nil {
		t.Fatal(err)
	}
	handler.Register(h.engine)

	if code, _ := h.do(http.MethodPut, "/v1/drafts/wizard", `{"value":"alice"}`, "Authorization", token("alice")); code != http.StatusOK {
		t.Fatalf("PUT as alice: got %d", code)
	}
	if _, ok, _ := h.backend.Get(context.Background(), "alice/wizard_draft"); !ok {
		t.Error("expected key to be stored under alice's namespace")
	}

	code, body := h.do(http.MethodGet, "/v1/drafts/wizard", "", "Authorization", token("alice"))
	if code != http.StatusOK || data(body)["key"] != "wizard_draft" || data(body)["value"] != "alice" {
		t.Errorf("alice should read her draft, got %d %v", code, body)
	}

	code, _ = h.do(http.MethodGet, "/v1/drafts/wizard", "", "Authorization", token("bob"))
	if code != http.StatusNotFound {
		t.Errorf("bob must not see alice's draft, got %d", code)
	}
	_, body = h.do(http.MethodGet, "/v1/drafts", "", "Authorization", token("bob"))
	if keys, _ := body["data"].([]any); len(keys) != 0 {
		t.Errorf("expected empty list for bob, got %v", keys)
	}

	if code, _ := h.do(http.MethodGet, "/v1/drafts", ""); code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", code)
	}

	// cleanup only reaches the caller's own drafts
	if code, _ := h.do(http.MethodPut, "/v1/drafts/notes", `{"value":"bob"}`, "Authorization", token("bob")); code != http.StatusOK {
		t.Fatalf("PUT as bob: got %d", code)
	}
	h.clock.Advance(time.Hour)
	code, body = h.do(http.MethodPost, "/v1/drafts/cleanup", `{"maxAge":"1ns"}`, "Authorization", token("bob"))
	removed, _ := data(body)["removed"].([]any)
	if code != http.StatusOK || len(removed) != 1 || removed[0] != "notes_draft" {
		t.Errorf("bob's cleanup should remove only notes_draft, got %d %v", code, body)
	}
	if _, ok, _ := h.backend.Get(context.Background(), "alice/wizard_draft"); !ok {
		t.Error("bob's cleanup must not remove alice's draft")
	}
}

func TestNewHandlerValidatesConfig(t *testing.T) {
	if _, err := draftapi.NewHandler(kv.NewMemoryStore(), draft.Config{Strategy: "sometimes"}); err == nil {
		t.Error("expected invalid strategy to be rejected")
	}
}

func TestEncryptedAtRest(t *testing.T) {
	enc, err := encryption.New("a-sufficiently-long-key", encryption.AlgorithmChaCha20)
	if err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, draft.Config{}, draftapi.WithEncryptor(enc))

	if code, _ := h.do(http.MethodPut, "/v1/drafts/payment", `{"value":"card=4242"}`); code != http.StatusOK {
		t.Fatalf("PUT: got %d", code)
	}
	raw, _, _ := h.backend.Get(context.Background(), "payment_draft")
	if strings.Contains(raw, "4242") || !strings.Contains(raw, `"lastSaved":`) {
		t.Errorf("expected an encrypted value inside a readable envelope, got %q", raw)
	}

	_, body := h.do(http.MethodGet, "/v1/drafts/payment", "")
	if data(body)["value"] != "card=4242" {
		t.Errorf("expected decrypted value, got %v", body)
	}

	h.seed("plain_draft", epoch, "not encrypted")
	if code, _ := h.do(http.MethodGet, "/v1/drafts/plain", ""); code != http.StatusNotFound {
		t.Errorf("undecryptable value should read as absent, got %d", code)
	}
}
