package auth

// TokenValidator validates a token string and returns the parsed claims.
// Middleware depends on this interface rather than on a specific token
// format. The returned claims are stored in the request context via
// authctx.Set.
type TokenValidator interface {
	ValidateToken(token string) (any, error)
}

// TokenValidatorFunc adapts an ordinary function to the TokenValidator interface.
type TokenValidatorFunc func(token string) (any, error)

// ValidateToken implements TokenValidator.
func (f TokenValidatorFunc) ValidateToken(token string) (any, error) {
	return f(token)
}

// Subjecter is implemented by claims that identify a principal. draftd
// namespaces draft keys by the subject.
type Subjecter interface {
	GetSubject() (string, error)
}
