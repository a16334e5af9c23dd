package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

type authenticator struct {
	tokens []string
}

// NewAuthenticator guards the API with a static bearer token list. An empty
// list means the API is open, which is the default for local use.
func NewAuthenticator(tokens []string) *authenticator {
	slog.Info("API authentication", "mode", lo.Ternary(len(tokens) > 0, "bearer token", "open"))

	return &authenticator{tokens: tokens}
}

func (a *authenticator) IsAuthorized(token string) bool {
	if len(a.tokens) == 0 {
		return true
	}
	for _, t := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return true
		}
	}
	return false
}

// Middleware rejects requests whose Authorization header does not carry an
// accepted bearer token.
func (a *authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !a.IsAuthorized(token) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized."}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
