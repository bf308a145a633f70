package draftapi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/draftkit/auth/authctx"
	"github.com/kbukum/draftkit/draft"
	"github.com/kbukum/draftkit/encryption"
	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/logger"
	"github.com/kbukum/draftkit/server"
	"github.com/kbukum/draftkit/validation"
)

// namespaceSep joins a subject and a draft key.
const namespaceSep = "/"

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the clock used to stamp records.
func WithClock(c draft.Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// WithMetrics records writes and failures.
func WithMetrics(m draft.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Handler) { h.log = l.WithComponent("draftapi") }
}

// WithSubjectNamespace scopes keys to the token subject. Requests without an
// authenticated subject are rejected.
func WithSubjectNamespace() Option {
	return func(h *Handler) { h.namespaced = true }
}

// WithEncryptor encrypts record values at rest. The envelope and its
// timestamp stay readable so stats and cleanup work without the key.
func WithEncryptor(enc encryption.Encryptor) Option {
	return func(h *Handler) { h.enc = enc }
}

// Handler serves the draft sync routes.
type Handler struct {
	cfg        draft.Config
	maint      *draft.Maintenance
	records    *draft.Records
	clock      draft.Clock
	metrics    draft.Metrics
	log        *logger.Logger
	namespaced bool
	enc        encryption.Encryptor

	// serializes the read-compare-write of PUT within this process
	writeMu sync.Mutex
}

// NewHandler creates a Handler over backend.
func NewHandler(backend kv.Store, cfg draft.Config, opts ...Option) (*Handler, error) {
	eff := cfg
	eff.ApplyDefaults()
	if err := eff.Validate(); err != nil {
		return nil, err
	}
	h := &Handler{
		cfg:     eff,
		clock:   draft.SystemClock{},
		metrics: draft.NopMetrics(),
		log:     logger.WithComponent("draftapi"),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.maint = draft.NewMaintenance(backend, cfg, h.clock, h.metrics)
	h.records = h.maint.Records()
	return h, nil
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/v1/drafts")
	g.GET("", h.list)
	g.POST("/cleanup", h.cleanup)
	g.GET("/:key", h.get)
	g.PUT("/:key", h.put)
	g.DELETE("/:key", h.remove)
	g.GET("/:key/stats", h.stats)
}

// RecordResponse is a stored draft as returned by the API.
type RecordResponse struct {
	Key       string `json:"key"`
	LastSaved int64  `json:"lastSaved"`
	Value     string `json:"value"`
}

// PutRequest is the PUT body. ExpectedLastSaved is the epoch-ms stamp the
// client last read; under the reject policy a newer stored record fails the
// write with 409.
type PutRequest struct {
	Value             *string `json:"value" binding:"required"`
	ExpectedLastSaved *int64  `json:"expectedLastSaved"`
}

// PutResponse acknowledges a write.
type PutResponse struct {
	Key       string `json:"key"`
	LastSaved int64  `json:"lastSaved"`
	Bytes     int    `json:"bytes"`
}

// CleanupRequest is the cleanup body; MaxAge is a Go duration such as "72h".
type CleanupRequest struct {
	MaxAge string `json:"maxAge" binding:"required"`
}

// prefix returns the namespace of the caller, empty when not namespaced.
func (h *Handler) prefix(ctx context.Context) (string, error) {
	if !h.namespaced {
		return "", nil
	}
	sub, ok := authctx.Subject(ctx)
	if !ok {
		return "", errors.Unauthorized("A token with a subject is required")
	}
	return sub + namespaceSep, nil
}

// storageKey maps the :key path parameter to the backend key.
func (h *Handler) storageKey(c *gin.Context) (string, error) {
	raw := c.Param("key")
	if !validation.ValidKey(raw) {
		return "", errors.InvalidInput("key", "must be non-empty without whitespace and at most 256 bytes")
	}
	prefix, err := h.prefix(c.Request.Context())
	if err != nil {
		return "", err
	}
	return draft.NormalizeKey(prefix+raw, h.cfg.Suffix())
}

// publicKey strips the caller's namespace from a backend key.
func (h *Handler) publicKey(ctx context.Context, key string) string {
	prefix, _ := h.prefix(ctx)
	return strings.TrimPrefix(key, prefix)
}

func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	prefix, err := h.prefix(ctx)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	keys, err := h.records.List(ctx, h.cfg.Suffix())
	if err != nil {
		server.RespondWithError(c, errors.Wrap(err))
		return
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, strings.TrimPrefix(k, prefix))
		}
	}
	server.RespondList(c, out)
}

func (h *Handler) get(c *gin.Context) {
	ctx := c.Request.Context()
	key, err := h.storageKey(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	rec, ok, err := h.records.Get(ctx, key)
	if ok && h.enc != nil {
		if rec.Value, err = h.enc.Decrypt(rec.Value); err != nil {
			ok, err = false, errors.CorruptDraft(key, err)
		}
	}
	switch {
	case errors.HasCode(err, errors.ErrCodeCorruptDraft):
		// a record nothing can hydrate from reads as absent
		h.log.WithContext(ctx).Warn("Corrupt draft served as absent", logger.Fields(logger.FieldDraftKey, key))
		server.RespondWithError(c, errors.NotFound("draft", h.publicKey(ctx, key)))
		return
	case err != nil:
		server.RespondWithError(c, errors.Wrap(err))
		return
	case !ok:
		server.RespondWithError(c, errors.NotFound("draft", h.publicKey(ctx, key)))
		return
	}
	server.RespondOK(c, RecordResponse{
		Key:       h.publicKey(ctx, key),
		LastSaved: rec.LastSaved.UnixMilli(),
		Value:     rec.Value,
	})
}

func (h *Handler) put(c *gin.Context) {
	ctx := c.Request.Context()
	key, err := h.storageKey(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var req PutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.Validation("Body must be JSON with a string value").WithCause(err))
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	stored, ok, err := h.records.Get(ctx, key)
	if err != nil && !errors.HasCode(err, errors.ErrCodeCorruptDraft) {
		server.RespondWithError(c, errors.Wrap(err))
		return
	}
	if ok && req.ExpectedLastSaved != nil && h.cfg.Conflict == draft.ConflictReject &&
		stored.LastSaved.UnixMilli() > *req.ExpectedLastSaved {
		h.metrics.RecordError(ctx, "sync")
		server.RespondWithError(c, errors.Conflict("draft was saved by another writer").
			WithDetails(map[string]any{"key": h.publicKey(ctx, key), "stored_last_saved": stored.LastSaved.UnixMilli()}))
		return
	}

	at := time.UnixMilli(h.clock.Now().UnixMilli())
	if ok && at.Before(stored.LastSaved) {
		at = stored.LastSaved
	}
	value := *req.Value
	if h.enc != nil {
		if value, err = h.enc.Encrypt(value); err != nil {
			server.RespondWithError(c, errors.Wrap(err))
			return
		}
	}
	n, err := h.records.Put(ctx, key, draft.Record{LastSaved: at, Value: value})
	if err != nil {
		h.metrics.RecordError(ctx, "sync")
		h.log.WithContext(ctx).Error("Draft write failed", logger.Fields(logger.FieldDraftKey, key, logger.FieldError, err.Error()))
		server.RespondWithError(c, err)
		return
	}
	h.metrics.RecordFlush(ctx, h.cfg.Strategy, draft.TriggerRemote, n)
	server.RespondOK(c, PutResponse{Key: h.publicKey(ctx, key), LastSaved: at.UnixMilli(), Bytes: n})
}

func (h *Handler) remove(c *gin.Context) {
	key, err := h.storageKey(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := h.records.Delete(c.Request.Context(), key); err != nil {
		server.RespondWithError(c, errors.Wrap(err))
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) stats(c *gin.Context) {
	ctx := c.Request.Context()
	key, err := h.storageKey(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	st, err := h.maint.Stats(ctx, key)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	st.Key = h.publicKey(ctx, st.Key)
	server.RespondOK(c, st)
}

// cleanup removes the caller's stale drafts. Without namespacing that is
// every draft in the backend.
func (h *Handler) cleanup(c *gin.Context) {
	ctx := c.Request.Context()
	prefix, err := h.prefix(ctx)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.MissingField("maxAge").WithCause(err))
		return
	}
	maxAge, err := time.ParseDuration(req.MaxAge)
	if err != nil {
		server.RespondWithError(c, errors.InvalidInput("maxAge", "must be a duration such as 72h").WithCause(err))
		return
	}
	res, err := h.maint.CleanupPrefix(ctx, prefix, maxAge)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	for i, key := range res.Removed {
		res.Removed[i] = strings.TrimPrefix(key, prefix)
	}
	server.RespondOK(c, res)
}
