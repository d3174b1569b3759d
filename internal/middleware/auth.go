package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dhruvm/splitchat/internal/auth"
)

// RequireSession validates the Bearer token on mutating session routes and
// checks that it is scoped to the session named in the URL. Responds 401 for
// missing/invalid tokens and 403 for tokens scoped to a different session.
func RequireSession(tokens *auth.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		if sessionID := mux.Vars(r)["id"]; sessionID != claims.SessionID {
			http.Error(w, "token is not valid for this session", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}
