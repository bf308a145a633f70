package upload

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/logger"
	"github.com/kbukum/draftkit/resilience"
	"github.com/kbukum/draftkit/storage"
)

// Result reports the outcome for one file, in input order.
type Result struct {
	Name string `json:"name"`
	// Path is the object path in storage; empty when the file failed.
	Path string `json:"path,omitempty"`
	MIME string `json:"mime,omitempty"`
	Size int64  `json:"size"`
	Err  error  `json:"-"`
}

// OK reports whether the file was stored.
func (r Result) OK() bool { return r.Err == nil }

// ProgressFunc is called after each file finishes, successfully or not.
// Calls are serialized.
type ProgressFunc func(done, total int, r Result)

// Option configures an Uploader.
type Option func(*Uploader)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(u *Uploader) { u.progress = fn }
}

// WithNameFunc replaces the object name generator (uuid by default). The
// returned name gets the file's extension appended.
func WithNameFunc(fn func() string) Option {
	return func(u *Uploader) { u.newName = fn }
}

// Uploader validates files and writes them to storage.
type Uploader struct {
	storage   storage.Storage
	cfg       Config
	validator *Validator
	log       *logger.Logger
	progress  ProgressFunc
	newName   func() string
}

// NewUploader creates an Uploader writing to s.
func NewUploader(s storage.Storage, cfg Config, log *logger.Logger, opts ...Option) (*Uploader, error) {
	if s == nil {
		return nil, fmt.Errorf("upload: storage is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	u := &Uploader{
		storage:   s,
		cfg:       cfg,
		validator: NewValidator(cfg),
		log:       log.WithComponent("upload"),
		newName:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Upload validates and stores files. A batch over MaxFiles is rejected as a
// whole; otherwise every file gets a Result and individual failures do not
// stop the others. The returned error is non-nil only for batch-level
// failures or context cancellation.
func (u *Uploader) Upload(ctx context.Context, files []File) ([]Result, error) {
	if len(files) > u.cfg.MaxFiles {
		return nil, errors.TooManyFiles(len(files), u.cfg.MaxFiles)
	}

	results := make([]Result, len(files))
	var (
		mu   sync.Mutex
		done int
	)
	report := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if u.progress != nil {
			u.progress(done, len(files), results[i])
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			results[i] = u.uploadOne(gctx, f)
			report(i)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (u *Uploader) uploadOne(ctx context.Context, f File) Result {
	res := Result{Name: f.Name, Size: f.Size()}

	detected, err := u.validator.Validate(f)
	if err != nil {
		res.Err = err
		u.log.Debug("File rejected", map[string]interface{}{"file": f.Name, "error": err.Error()})
		return res
	}
	res.MIME = detected

	path := u.cfg.PathPrefix + u.newName() + strings.ToLower(filepath.Ext(f.Name))
	retry := u.cfg.Retry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		u.log.Warn("Retrying upload", map[string]interface{}{
			"file":    f.Name,
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})
	}

	err = resilience.RetryFunc(ctx, retry, func() error {
		if err := u.storage.Upload(ctx, path, bytes.NewReader(f.Data)); err != nil {
			return errors.UploadFailed(f.Name, err)
		}
		return nil
	})
	if err != nil {
		res.Err = err
		u.log.Error("Upload failed", map[string]interface{}{"file": f.Name, "error": err.Error()})
		return res
	}

	res.Path = path
	u.log.Debug("File uploaded", map[string]interface{}{"file": f.Name, "path": path, "bytes": res.Size})
	return res
}
