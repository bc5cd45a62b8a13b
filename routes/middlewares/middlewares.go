package middlewares

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
)

// Admin guards a route tree behind a valid bearer token carrying the
// 'admin' role.
func Admin(secret string) func(http.Handler) http.Handler {
	return role(secret, "admin")
}

// Staff admits both staff and admin tokens.
func Staff(secret string) func(http.Handler) http.Handler {
	return role(secret, "staff", "admin")
}

func role(secret string, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), requireRole(allowed)).Handler(next)
	}
}

func requireRole(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

			ok := false
			if rolesClaim, found := claims["roles"]; found {
				roles := strings.Split(rolesClaim, ",")
			outer:
				for _, role := range roles {
					for _, want := range allowed {
						if role == want {
							ok = true
							break outer
						}
					}
				}
			}

			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
