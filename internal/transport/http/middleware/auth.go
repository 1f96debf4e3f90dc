package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

type contextKey string

const IdentityKey contextKey = "identity"

// TokenCookie carries the signed credential.
const TokenCookie = "token"

var ErrMissingToken = errors.New("missing token")

// IdentityVerifier turns a signed credential into the identity it names.
type IdentityVerifier interface {
	VerifyToken(token string) (string, error)
}

// IdentityFromRequest verifies the token cookie of r.
func IdentityFromRequest(r *http.Request, verifier IdentityVerifier) (string, error) {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return "", ErrMissingToken
	}
	return verifier.VerifyToken(cookie.Value)
}

// Auth rejects requests without a valid token cookie and stores the verified
// identity in the request context.
func Auth(verifier IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromRequest(r, verifier)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized access")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity extracts the verified identity from request context. It is
// empty outside routes guarded by Auth.
func GetIdentity(ctx context.Context) string {
	identity, _ := ctx.Value(IdentityKey).(string)
	return identity
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
