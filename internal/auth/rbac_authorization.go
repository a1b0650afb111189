package auth

import (
	"log/slog"
	"net/http"

	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
)

type RoleAuthorization struct {
	logger *slog.Logger
}

func NewRoleAuthorization(logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{logger: logger}
}

func (ra *RoleAuthorization) Check(next http.HandlerFunc, roles ...coreUser.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || user == nil {
			ra.logger.Warn("authorization check failed: user not found in context")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if !user.HasRole(roles...) {
			ra.logger.WarnContext(r.Context(), "access denied: role not allowed",
				"user_id", user.ID,
				"role", user.Role,
				"required_roles", roles)
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequireRole lets the request through only when the user holds one of roles.
func (ra *RoleAuthorization) RequireRole(roles ...coreUser.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, roles...)
	}
}

func (ra *RoleAuthorization) RequireHRAdmin() func(http.Handler) http.Handler {
	return ra.RequireRole(coreUser.RoleHRAdmin)
}
