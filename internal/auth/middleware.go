package auth

import (
	"context"
	"net/http"
	"strings"

	"ProductsAPI/pkg/kit"
)

type ctxKey string

const userKey ctxKey = "user"

func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey).(string)
	return u, ok
}

// RequireAuth rejects requests without a valid bearer token and records the
// authenticated username in the request context.
func RequireAuth(jwt *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := jwt.Parse(strings.TrimPrefix(authz, "Bearer "))
			if err != nil || claims.Username == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
