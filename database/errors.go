package database

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/draftkit/errors"
)

var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no route to host",
	"network is unreachable",
	"connection closed",
	"driver: bad connection",
	"sql: database is closed",
}

var transientPatterns = []string{
	"deadlock",
	"lock timeout",
	"database is locked",
	"too many connections",
}

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	return matchesAny(err, connectionPatterns)
}

// IsRetryableError determines if a database error should trigger a retry.
func IsRetryableError(err error) bool {
	return IsConnectionError(err) || matchesAny(err, transientPatterns)
}

func matchesAny(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// FromDatabase converts a database error to an AppError.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource, "")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("A " + resource + " with this key already exists.").WithCause(err)
	}
	if IsRetryableError(err) {
		appErr := apperrors.New(apperrors.ErrCodeDatabaseError,
			"Database is temporarily unavailable. Please try again.",
			http.StatusServiceUnavailable).WithCause(err)
		appErr.Retryable = true
		return appErr
	}

	appErr := apperrors.DatabaseError(err)
	appErr.Retryable = false
	return appErr
}
