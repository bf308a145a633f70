package draft

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
)

const tracerName = "github.com/kbukum/draftkit/draft"

// Records reads and writes draft records on a kv.Store. It is shared by
// Store, the maintenance helpers and the draftd API.
type Records struct {
	backend      kv.Store
	lastSavedKey string
	tracer       trace.Tracer
}

// NewRecords creates a Records over backend using lastSavedKey as the
// timestamp field name.
func NewRecords(backend kv.Store, lastSavedKey string) *Records {
	if lastSavedKey == "" {
		lastSavedKey = DefaultLastSavedKey
	}
	return &Records{
		backend:      backend,
		lastSavedKey: lastSavedKey,
		tracer:       otel.Tracer(tracerName),
	}
}

// Raw returns the stored string for key.
func (r *Records) Raw(ctx context.Context, key string) (string, bool, error) {
	ctx, span := r.tracer.Start(ctx, "draft.get", trace.WithAttributes(attribute.String("draft.key", key)))
	defer span.End()

	raw, ok, err := r.backend.Get(ctx, key)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", false, fmt.Errorf("read draft %s: %w", key, err)
	}
	span.SetAttributes(attribute.Bool("draft.found", ok), attribute.Int("draft.bytes", len(raw)))
	return raw, ok, nil
}

// Get returns the decoded record for key. A record that cannot be decoded
// yields a CORRUPT_DRAFT error with ok=false.
func (r *Records) Get(ctx context.Context, key string) (Record, bool, error) {
	raw, ok, err := r.Raw(ctx, key)
	if err != nil || !ok {
		return Record{}, false, err
	}
	rec, err := DecodeRecord(key, raw, r.lastSavedKey)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Put encodes and writes rec, returning the stored size in bytes. Backend
// failures that are not already AppErrors become STORAGE_WRITE_FAILED.
func (r *Records) Put(ctx context.Context, key string, rec Record) (int, error) {
	ctx, span := r.tracer.Start(ctx, "draft.put", trace.WithAttributes(attribute.String("draft.key", key)))
	defer span.End()

	raw, err := EncodeRecord(rec, r.lastSavedKey)
	if err != nil {
		return 0, errors.Internal(err)
	}
	if err := r.backend.Set(ctx, key, raw); err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.IsAppError(err) {
			return 0, err
		}
		return 0, errors.StorageWrite(key, err)
	}
	span.SetAttributes(attribute.Int("draft.bytes", len(raw)))
	return len(raw), nil
}

// Delete removes key.
func (r *Records) Delete(ctx context.Context, key string) error {
	ctx, span := r.tracer.Start(ctx, "draft.delete", trace.WithAttributes(attribute.String("draft.key", key)))
	defer span.End()

	if err := r.backend.Delete(ctx, key); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("delete draft %s: %w", key, err)
	}
	return nil
}

// List returns the sorted keys ending in suffix (every key when suffix is empty).
func (r *Records) List(ctx context.Context, suffix string) ([]string, error) {
	keys, err := r.backend.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, suffix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// LastSavedKey returns the timestamp field name records are written with.
func (r *Records) LastSavedKey() string {
	return r.lastSavedKey
}
