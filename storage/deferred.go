package storage

import (
	"context"
	"io"

	"github.com/kbukum/draftkit/errors"
)

// Deferred is a Storage resolved on every call, for wiring consumers before
// the owning Component has started. Calls fail with SERVICE_UNAVAILABLE
// while resolve returns nil.
type Deferred struct {
	resolve func() Storage
}

// NewDeferred creates a Deferred, usually NewDeferred(component.Storage).
func NewDeferred(resolve func() Storage) *Deferred {
	return &Deferred{resolve: resolve}
}

var _ Storage = (*Deferred)(nil)

func (d *Deferred) get() (Storage, error) {
	if s := d.resolve(); s != nil {
		return s, nil
	}
	return nil, errors.ServiceUnavailable("storage")
}

func (d *Deferred) Upload(ctx context.Context, path string, reader io.Reader) error {
	s, err := d.get()
	if err != nil {
		return err
	}
	return s.Upload(ctx, path, reader)
}

func (d *Deferred) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	s, err := d.get()
	if err != nil {
		return nil, err
	}
	return s.Download(ctx, path)
}

func (d *Deferred) Delete(ctx context.Context, path string) error {
	s, err := d.get()
	if err != nil {
		return err
	}
	return s.Delete(ctx, path)
}

func (d *Deferred) Exists(ctx context.Context, path string) (bool, error) {
	s, err := d.get()
	if err != nil {
		return false, err
	}
	return s.Exists(ctx, path)
}

func (d *Deferred) URL(ctx context.Context, path string) (string, error) {
	s, err := d.get()
	if err != nil {
		return "", err
	}
	return s.URL(ctx, path)
}

func (d *Deferred) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	s, err := d.get()
	if err != nil {
		return nil, err
	}
	return s.List(ctx, prefix)
}
