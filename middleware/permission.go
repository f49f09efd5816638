package middleware

import (
	"net/http"

	"github.com/sandwichproject/platform/handlers"
	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
)

// RequirePermission gates a route on one capability. Runs after
// AuthMiddleware.Require, so the user is already in the context. Admins
// pass every gate.
//
// Usage:
//
//	middleware.RequirePermission(models.PermDirectMessages, handler)
func RequirePermission(perm string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		if user.Role != models.RoleAdmin && !user.HasPermission(perm) {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "missing required capability: "+perm)
			return
		}

		next.ServeHTTP(w, r)
	})
}
