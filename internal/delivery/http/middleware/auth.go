package middleware

import (
	"net/http"

	"github.com/Pesokrava/park_reviewer/internal/delivery/http/request"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/response"
	"github.com/Pesokrava/park_reviewer/internal/pkg/ctxutil"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// SessionVerifier turns a bearer token into a session
type SessionVerifier interface {
	CurrentSession(token string) (ctxutil.Session, error)
}

// Authenticate attaches the session of a valid bearer token to the request context.
// Requests without a token pass through anonymously; a present but invalid token is rejected.
func Authenticate(verifier SessionVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := request.BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := verifier.CurrentSession(token)
			if err != nil {
				log.FromContext(r.Context()).Debugf("Rejected bearer token: %v", err)
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxutil.WithSession(r.Context(), session)))
		})
	}
}

// RequireSession rejects requests that carry no authenticated session
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ctxutil.SessionFromCtx(r.Context()); !ok {
			response.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
