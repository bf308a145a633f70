package upload_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"image"
	"image/png"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/logger"
	"github.com/kbukum/draftkit/resilience"
	"github.com/kbukum/draftkit/storage"
	"github.com/kbukum/draftkit/storage/local"
	"github.com/kbukum/draftkit/upload"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestValidator(t *testing.T) {
	avatar := pngBytes(t, 64, 64)
	tiny := pngBytes(t, 8, 8)
	webp := append([]byte("RIFF\x1a\x00\x00\x00WEBPVP8 "), bytes.Repeat([]byte{0}, 14)...)
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"></svg>`)

	cfg := upload.Config{
		Accept: []upload.AcceptRule{
			{MIME: "image/*", Extensions: []string{"png", ".jpg", "webp", "svg"}},
			{MIME: "application/pdf"},
		},
		MaxSize:    "4KB",
		MinSize:    "10",
		Dimensions: &upload.Dimensions{MinWidth: 16, MinHeight: 16, MaxWidth: 128, MaxHeight: 128},
	}
	v := upload.NewValidator(cfg)

	tests := []struct {
		name string
		file upload.File
		mime string
		code errors.ErrorCode
	}{
		{"png accepted", upload.File{Name: "avatar.PNG", Data: avatar}, "image/png", ""},
		{"too large", upload.File{Name: "big.png", Data: bytes.Repeat([]byte{1}, 5000)}, "", errors.ErrCodeFileTooLarge},
		{"too small", upload.File{Name: "x.png", Data: []byte("abc")}, "", errors.ErrCodeFileTooSmall},
		{"text rejected", upload.File{Name: "notes.png", Data: []byte("just some notes here")}, "", errors.ErrCodeUnsupportedType},
		{"extension mismatch", upload.File{Name: "avatar.gif", Data: avatar}, "", errors.ErrCodeUnsupportedType},
		{"image too small", upload.File{Name: "tiny.png", Data: tiny}, "", errors.ErrCodeInvalidDimensions},
		{"truncated png", upload.File{Name: "broken.png", Data: append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)}, "", errors.ErrCodeInvalidDimensions},
		{"webp without decoder", upload.File{Name: "photo.webp", Data: webp}, "image/webp", ""},
		{"svg without decoder", upload.File{Name: "logo.svg", Data: svg}, "image/svg+xml", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := v.Validate(tc.file)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tc.mime {
					t.Errorf("expected %q, got %q", tc.mime, got)
				}
				return
			}
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestValidator_AcceptAll(t *testing.T) {
	v := upload.NewValidator(upload.Config{})
	got, err := v.Validate(upload.File{Name: "notes.txt", Data: []byte("plain text")})
	if err != nil || got != "text/plain" {
		t.Errorf("Validate = %q, %v", got, err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     upload.Config
		wantErr bool
	}{
		{"defaults", upload.Config{}, false},
		{"min above max", upload.Config{MaxSize: "1KB", MinSize: "2KB"}, true},
		{"bad mime", upload.Config{Accept: []upload.AcceptRule{{MIME: "image"}}}, true},
		{"empty mime", upload.Config{Accept: []upload.AcceptRule{{}}}, true},
		{"bad width bounds", upload.Config{Dimensions: &upload.Dimensions{MinWidth: 200, MaxWidth: 100}}, true},
		{"negative height", upload.Config{Dimensions: &upload.Dimensions{MinHeight: -1}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}

	cfg := upload.Config{}
	cfg.ApplyDefaults()
	if cfg.MaxBytes() != 10*1024*1024 || cfg.MaxFiles != upload.DefaultMaxFiles || cfg.PathPrefix != "uploads/" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

// flakyStorage fails the first failures uploads of every path.
type flakyStorage struct {
	storage.Storage
	mu       sync.Mutex
	failures int
	attempts map[string]int
}

func (f *flakyStorage) Upload(ctx context.Context, path string, r io.Reader) error {
	f.mu.Lock()
	f.attempts[path]++
	n := f.attempts[path]
	f.mu.Unlock()
	if n <= f.failures {
		return stderrors.New("connection reset")
	}
	return f.Storage.Upload(ctx, path, r)
}

func newLocal(t *testing.T) *local.Storage {
	t.Helper()
	s, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func sequentialNames() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "file-" + strconv.Itoa(n)
	}
}

var fastRetry = resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

func TestUploader_Upload(t *testing.T) {
	store := newLocal(t)
	var calls []int
	up, err := upload.NewUploader(store, upload.Config{
		Accept:      []upload.AcceptRule{{MIME: "image/png"}},
		Concurrency: 2,
		Retry:       fastRetry,
	}, logger.Nop(),
		upload.WithNameFunc(sequentialNames()),
		upload.WithProgress(func(done, total int, _ upload.Result) {
			if total != 3 {
				t.Errorf("unexpected total %d", total)
			}
			calls = append(calls, done)
		}),
	)
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}

	files := []upload.File{
		{Name: "a.png", Data: pngBytes(t, 4, 4)},
		{Name: "b.txt", Data: []byte("not an image")},
		{Name: "c.PNG", Data: pngBytes(t, 2, 2)},
	}
	results, err := up.Upload(context.Background(), files)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if len(results) != 3 || results[0].Name != "a.png" || results[1].Name != "b.txt" || results[2].Name != "c.PNG" {
		t.Fatalf("results not in input order: %+v", results)
	}
	if !results[0].OK() || !results[2].OK() {
		t.Fatalf("expected png files to upload: %+v", results)
	}
	if !errors.HasCode(results[1].Err, errors.ErrCodeUnsupportedType) {
		t.Errorf("expected UNSUPPORTED_FILE_TYPE, got %v", results[1].Err)
	}
	for _, r := range []upload.Result{results[0], results[2]} {
		if !strings.HasPrefix(r.Path, "uploads/file-") || !strings.HasSuffix(r.Path, ".png") {
			t.Errorf("unexpected path %q", r.Path)
		}
		if ok, _ := store.Exists(context.Background(), r.Path); !ok {
			t.Errorf("object %q not stored", r.Path)
		}
	}
	if len(calls) != 3 || calls[2] != 3 {
		t.Errorf("unexpected progress calls %v", calls)
	}
}

func TestUploader_TooManyFiles(t *testing.T) {
	up, err := upload.NewUploader(newLocal(t), upload.Config{MaxFiles: 1}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	_, err = up.Upload(context.Background(), []upload.File{{Name: "a"}, {Name: "b"}})
	if !errors.HasCode(err, errors.ErrCodeTooManyFiles) {
		t.Errorf("expected TOO_MANY_FILES, got %v", err)
	}
}

func TestUploader_RetriesTransientFailures(t *testing.T) {
	flaky := &flakyStorage{Storage: newLocal(t), failures: 2, attempts: map[string]int{}}
	up, err := upload.NewUploader(flaky, upload.Config{Retry: fastRetry}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}

	results, err := up.Upload(context.Background(), []upload.File{{Name: "notes.txt", Data: []byte("draft notes")}})
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].OK() {
		t.Fatalf("expected success after retries, got %v", results[0].Err)
	}
	if n := flaky.attempts[results[0].Path]; n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestUploader_GivesUpAfterMaxAttempts(t *testing.T) {
	flaky := &flakyStorage{Storage: newLocal(t), failures: 10, attempts: map[string]int{}}
	up, err := upload.NewUploader(flaky, upload.Config{Retry: fastRetry}, logger.Nop(), upload.WithNameFunc(func() string { return "fixed" }))
	if err != nil {
		t.Fatal(err)
	}

	results, _ := up.Upload(context.Background(), []upload.File{{Name: "notes.txt", Data: []byte("draft notes")}})
	if !errors.HasCode(results[0].Err, errors.ErrCodeUploadFailed) || !errors.IsRetryable(results[0].Err) {
		t.Errorf("expected retryable UPLOAD_FAILED, got %v", results[0].Err)
	}
	if results[0].Path != "" {
		t.Errorf("failed result should have no path, got %q", results[0].Path)
	}
	if n := flaky.attempts["uploads/fixed.txt"]; n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestNewUploader_RequiresStorage(t *testing.T) {
	if _, err := upload.NewUploader(nil, upload.Config{}, logger.Nop()); err == nil {
		t.Error("expected error for nil storage")
	}
}
