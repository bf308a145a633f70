package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/draftkit/auth"
	"github.com/kbukum/draftkit/auth/authctx"
	"github.com/kbukum/draftkit/errors"
)

// Auth validates Bearer tokens with validator and stores the claims on the
// request context (see authctx). Paths with one of skipPaths as prefix pass
// through unauthenticated.
func Auth(validator auth.TokenValidator, skipPaths ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, errors.Unauthorized("Authorization header required"))
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, errors.Unauthorized("Invalid authorization header format"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				if stderrors.Is(err, gojwt.ErrTokenExpired) {
					writeError(w, errors.TokenExpired().WithCause(err))
					return
				}
				writeError(w, errors.InvalidToken().WithCause(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(authctx.Set(r.Context(), claims)))
		})
	}
}
