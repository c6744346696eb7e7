package middleware

import (
	"context"
	"net/http"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
)

// SessionFetcher resolves a session cookie value to its owner.
type SessionFetcher interface {
	Resolve(ctx context.Context, sessionID string) (*models.User, error)
}

// AdminChecker decides whether a user may reach admin-only routes.
type AdminChecker interface {
	IsAdmin(ctx context.Context, user *models.User) (bool, error)
}

func SessionMiddleware(fetcher SessionFetcher, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				utils.WriteError(w, r, apperr.Unauthenticated("Not authenticated."))
				return
			}

			user, err := fetcher.Resolve(r.Context(), cookie.Value)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}

			ctx := utils.WithSession(r.Context(), user, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware must run after SessionMiddleware.
func AdminMiddleware(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := utils.GetUserFromContext(r.Context())
			if !ok {
				utils.WriteError(w, r, apperr.Unauthenticated("Not authenticated."))
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), user)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}
			if !isAdmin {
				utils.WriteError(w, r, apperr.Forbidden("Admin access required."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware echoes the origin back only if it is on the allow-list.
// Credentials are allowed so the session cookie travels with fetch requests.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
