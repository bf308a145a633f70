package kv

import (
	"context"

	"github.com/kbukum/draftkit/errors"
)

// Deferred is a Store resolved on every call, for backends that only exist
// once their component has started. Calls fail with SERVICE_UNAVAILABLE
// while resolve returns nil.
type Deferred struct {
	name    string
	resolve func() Store
}

// NewDeferred creates a Deferred. name identifies the backend in errors.
func NewDeferred(name string, resolve func() Store) *Deferred {
	return &Deferred{name: name, resolve: resolve}
}

func (d *Deferred) store() (Store, error) {
	s := d.resolve()
	if s == nil {
		return nil, errors.ServiceUnavailable(d.name)
	}
	return s, nil
}

func (d *Deferred) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := d.store()
	if err != nil {
		return "", false, err
	}
	return s.Get(ctx, key)
}

func (d *Deferred) Set(ctx context.Context, key, value string) error {
	s, err := d.store()
	if err != nil {
		return err
	}
	return s.Set(ctx, key, value)
}

func (d *Deferred) Delete(ctx context.Context, key string) error {
	s, err := d.store()
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

func (d *Deferred) Keys(ctx context.Context) ([]string, error) {
	s, err := d.store()
	if err != nil {
		return nil, err
	}
	return s.Keys(ctx)
}
