package middleware

import (
	"net/http"

	"github.com/souqly/souqly-backend/api/responses"
	"github.com/souqly/souqly-backend/internal/access"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
)

// RequirePermission gates a route on the static role permission table.
func RequirePermission(perm access.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.UserRole(RoleFromContext(r.Context()))
			if !access.Allowed(role, perm) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route on an exact role match.
func RequireRole(role enums.UserRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != string(role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
