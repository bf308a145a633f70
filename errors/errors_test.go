package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	if New(ErrCodeNotFound, "not found", http.StatusNotFound).Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
	if !New(ErrCodeStorageWrite, "write failed", http.StatusServiceUnavailable).Retryable {
		t.Error("STORAGE_WRITE_FAILED should be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("draft", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	if err.Details["resource"] != "draft" {
		t.Errorf("expected resource=draft, got %v", err.Details["resource"])
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := StorageWrite("wizard_draft", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NotFound("draft", "a").WithDetails(map[string]any{"extra": "info"})
	err.WithDetails(map[string]any{"another": "detail"})
	for k, want := range map[string]any{"resource": "draft", "extra": "info", "another": "detail"} {
		if err.Details[k] != want {
			t.Errorf("details[%s] = %v, want %v", k, err.Details[k], want)
		}
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("redis"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"ConnectionFailed", ConnectionFailed("db"), ErrCodeConnectionFailed, http.StatusServiceUnavailable, true},
		{"RateLimited", RateLimited(60), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"Timeout", Timeout("flush"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"Conflict", Conflict("stale draft"), ErrCodeConflict, http.StatusConflict, false},
		{"MissingField", MissingField("key"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"InvalidToken", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized, false},
		{"TokenExpired", TokenExpired(), ErrCodeTokenExpired, http.StatusUnauthorized, false},
		{"DatabaseError", DatabaseError(nil), ErrCodeDatabaseError, http.StatusInternalServerError, true},
		{"ExternalServiceError", ExternalServiceError("s3", nil), ErrCodeExternalService, http.StatusBadGateway, true},
		{"QuotaExceeded", QuotaExceeded("k", 10, 5), ErrCodeQuotaExceeded, http.StatusInsufficientStorage, false},
		{"StorageWrite", StorageWrite("k", nil), ErrCodeStorageWrite, http.StatusServiceUnavailable, true},
		{"CorruptDraft", CorruptDraft("k", nil), ErrCodeCorruptDraft, http.StatusUnprocessableEntity, false},
		{"StoreClosed", StoreClosed("k"), ErrCodeStoreClosed, http.StatusConflict, false},
		{"FileTooLarge", FileTooLarge("a.png", 10, 5), ErrCodeFileTooLarge, http.StatusRequestEntityTooLarge, false},
		{"UnsupportedType", UnsupportedType("a.exe", "application/x-msdownload"), ErrCodeUnsupportedType, http.StatusUnsupportedMediaType, false},
		{"TooManyFiles", TooManyFiles(4, 3), ErrCodeTooManyFiles, http.StatusBadRequest, false},
		{"UploadFailed", UploadFailed("a.png", nil), ErrCodeUploadFailed, http.StatusBadGateway, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestIsRetryable_And_HasCode(t *testing.T) {
	wrapped := fmt.Errorf("flush: %w", StorageWrite("k", nil))
	if !IsRetryable(wrapped) {
		t.Error("expected wrapped STORAGE_WRITE_FAILED to be retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("plain errors are never retryable")
	}
	if !HasCode(wrapped, ErrCodeStorageWrite) {
		t.Error("expected HasCode to see through wrapping")
	}
	if HasCode(wrapped, ErrCodeQuotaExceeded) {
		t.Error("unexpected code match")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	resp := QuotaExceeded("wizard_draft", 12, 10).ToResponse()
	if resp.Error.Code != ErrCodeQuotaExceeded {
		t.Errorf("expected QUOTA_EXCEEDED, got %s", resp.Error.Code)
	}
	if resp.Error.Details["limit"] != 10 {
		t.Errorf("expected limit=10 in details, got %v", resp.Error.Details["limit"])
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
	orig := NotFound("draft", "1")
	if Wrap(fmt.Errorf("outer: %w", orig)) != orig {
		t.Error("Wrap should unwrap to the original AppError")
	}
	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected INTERNAL_ERROR wrapping the plain error, got %v", got)
	}
}
