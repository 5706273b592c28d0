package middleware

import (
	"net/http"
	"strings"

	"github.com/kiranshivaraju/lecturepilot/internal/mockbackend/response"
)

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(token string) (int, error)
}

// Auth provides bearer token authentication.
type Auth struct {
	tokens Verifier
}

func NewAuth(v Verifier) *Auth {
	return &Auth{tokens: v}
}

// Authenticate validates the Bearer token and sets user_id in the request
// context. Failures answer 401 {"detail": ...}.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearerToken(r)
		if raw == "" {
			response.Detail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		userID, err := a.tokens.Verify(raw)
		if err != nil {
			response.Detail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUserID(r.Context(), userID)))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
