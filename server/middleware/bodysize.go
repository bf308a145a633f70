package middleware

import (
	"net/http"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/util"
)

const defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// BodySizeLimit restricts the request body to maxSize ("1MB", "512KB").
// Reads past the limit fail, which JSON binding reports as a bad request.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeError(w, errTooLarge(r.ContentLength, size))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

func errTooLarge(size, limit int64) *errors.AppError {
	return errors.New(errors.ErrCodeInvalidInput, "Request body too large.", http.StatusRequestEntityTooLarge).
		WithDetails(map[string]any{"size": size, "limit": limit})
}
