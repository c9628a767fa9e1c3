package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/batikthread/batikthread/internal/platform/httpx"
)

type contextKey struct{}

// ContextWithAdmin stores the authenticated admin name on the context.
func ContextWithAdmin(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// AdminFromContext returns the authenticated admin name, if any.
func AdminFromContext(ctx context.Context) string {
	user, _ := ctx.Value(contextKey{}).(string)
	return user
}

// Middleware guards admin routes with bearer-token authentication.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAdmin rejects requests without a valid admin token.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		user, err := m.Service.Verify(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("admin auth rejected", slog.String("path", r.URL.Path))
			}
			httpx.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
