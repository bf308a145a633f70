package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/resilience"
)

// KVStore persists drafts as plain Redis strings under "<prefix>:<key>".
// Every operation is retried according to the configured policy.
type KVStore struct {
	client *Client
	prefix string
	count  int64
	retry  resilience.RetryConfig
}

var _ kv.Store = (*KVStore)(nil)

// NewKVStore creates a KVStore using the client's key prefix and retry policy.
func NewKVStore(client *Client) *KVStore {
	return &KVStore{
		client: client,
		prefix: client.cfg.KeyPrefix,
		count:  client.cfg.ScanCount,
		retry:  client.cfg.Retry,
	}
}

func (s *KVStore) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

type getResult struct {
	value string
	ok    bool
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := resilience.Retry(ctx, s.retry, func() (getResult, error) {
		v, ok, err := s.client.Get(ctx, s.fullKey(key))
		return getResult{v, ok}, err
	})
	if err != nil {
		return "", false, errors.ExternalServiceError("redis", err)
	}
	return res.value, res.ok, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	err := resilience.RetryFunc(ctx, s.retry, func() error {
		return s.client.Set(ctx, s.fullKey(key), value, 0)
	})
	if err != nil {
		return errors.StorageWrite(key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	err := resilience.RetryFunc(ctx, s.retry, func() error {
		return s.client.Del(ctx, s.fullKey(key))
	})
	if err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}

// Keys lists the keys under the prefix with the prefix stripped.
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	pattern := "*"
	if s.prefix != "" {
		pattern = s.prefix + ":*"
	}
	raw, err := resilience.Retry(ctx, s.retry, func() ([]string, error) {
		return s.client.Scan(ctx, pattern, s.count)
	})
	if err != nil {
		return nil, fmt.Errorf("redis scan %q: %w", pattern, err)
	}
	keys := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, k := range raw {
		if s.prefix != "" {
			k = strings.TrimPrefix(k, s.prefix+":")
		}
		// SCAN may return a key more than once.
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}
