package errors

import (
	"fmt"
	"net/http"
)

// QuotaExceeded is returned when a backend refuses a write because it is full.
func QuotaExceeded(key string, size, limit int) *AppError {
	return New(ErrCodeQuotaExceeded, "Storage quota exceeded.", http.StatusInsufficientStorage).
		WithDetails(map[string]any{"key": key, "size": size, "limit": limit})
}

// StorageWrite wraps a failed backend write.
func StorageWrite(key string, cause error) *AppError {
	return New(ErrCodeStorageWrite, "Failed to persist draft.", http.StatusServiceUnavailable).
		WithDetail("key", key).WithCause(cause)
}

// CorruptDraft reports a stored record that cannot be decoded.
func CorruptDraft(key string, cause error) *AppError {
	return New(ErrCodeCorruptDraft, "Stored draft is malformed.", http.StatusUnprocessableEntity).
		WithDetail("key", key).WithCause(cause)
}

// StoreClosed is returned by operations on a draft store after Close.
func StoreClosed(key string) *AppError {
	return New(ErrCodeStoreClosed, "Draft store is closed.", http.StatusConflict).WithDetail("key", key)
}

// NotLoaded is returned when a draft store is written before it was hydrated.
func NotLoaded(key string) *AppError {
	return New(ErrCodeNotLoaded, "Draft store has not been loaded.", http.StatusConflict).WithDetail("key", key)
}

// FileTooLarge rejects a file above the configured maximum size.
func FileTooLarge(name string, size, limit int64) *AppError {
	return New(ErrCodeFileTooLarge, fmt.Sprintf("File %q exceeds the maximum size.", name), http.StatusRequestEntityTooLarge).
		WithDetails(map[string]any{"file": name, "size": size, "limit": limit})
}

// FileTooSmall rejects a file below the configured minimum size.
func FileTooSmall(name string, size, limit int64) *AppError {
	return New(ErrCodeFileTooSmall, fmt.Sprintf("File %q is smaller than the minimum size.", name), http.StatusBadRequest).
		WithDetails(map[string]any{"file": name, "size": size, "limit": limit})
}

// UnsupportedType rejects a file whose type is not accepted.
func UnsupportedType(name, mime string) *AppError {
	return New(ErrCodeUnsupportedType, fmt.Sprintf("File %q has an unsupported type.", name), http.StatusUnsupportedMediaType).
		WithDetails(map[string]any{"file": name, "mime": mime})
}

// InvalidDimensions rejects an image outside the configured bounds.
func InvalidDimensions(name string, width, height int) *AppError {
	return New(ErrCodeInvalidDimensions, fmt.Sprintf("Image %q has invalid dimensions.", name), http.StatusBadRequest).
		WithDetails(map[string]any{"file": name, "width": width, "height": height})
}

// TooManyFiles rejects a batch larger than the configured limit.
func TooManyFiles(count, limit int) *AppError {
	return New(ErrCodeTooManyFiles, fmt.Sprintf("At most %d files may be uploaded.", limit), http.StatusBadRequest).
		WithDetails(map[string]any{"count": count, "limit": limit})
}

// UploadFailed wraps a failed object upload.
func UploadFailed(name string, cause error) *AppError {
	return New(ErrCodeUploadFailed, fmt.Sprintf("Upload of %q failed.", name), http.StatusBadGateway).
		WithDetail("file", name).WithCause(cause)
}
