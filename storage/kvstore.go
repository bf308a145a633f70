package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
)

const objectExt = ".json"

// KVStore stores each draft as one object, "<prefix><escaped key>.json".
// Keys are path-escaped so any draft key maps to a single object name.
type KVStore struct {
	objects ByteClient
	prefix  string
}

var _ kv.Store = (*KVStore)(nil)

// NewKVStore creates a KVStore on s under prefix.
func NewKVStore(s Storage, prefix string) *KVStore {
	return &KVStore{objects: NewByteClient(s), prefix: prefix}
}

func (s *KVStore) objectPath(key string) string {
	return s.prefix + url.PathEscape(key) + objectExt
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := s.objects.Download(ctx, s.objectPath(key))
	if stderrors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.ExternalServiceError("storage", err)
	}
	return string(data), true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := s.objects.Upload(ctx, s.objectPath(key), []byte(value)); err != nil {
		return errors.StorageWrite(key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.objects.Delete(ctx, s.objectPath(key)); err != nil {
		return fmt.Errorf("delete draft object %q: %w", key, err)
	}
	return nil
}

// Keys lists the draft objects under the prefix. Objects that do not follow
// the naming scheme are skipped.
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	files, err := s.objects.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list draft objects: %w", err)
	}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		name, ok := strings.CutPrefix(f.Path, s.prefix)
		if !ok || strings.Contains(name, "/") {
			continue
		}
		name, ok = strings.CutSuffix(name, objectExt)
		if !ok {
			continue
		}
		key, err := url.PathUnescape(name)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}
