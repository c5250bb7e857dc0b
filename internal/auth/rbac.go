package auth

import (
	"net/http"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

type Permission string

const (
	PermProjectsRead     Permission = "projects:read"
	PermProjectsWrite    Permission = "projects:write"
	PermAutomationsRead  Permission = "automations:read"
	PermAutomationsWrite Permission = "automations:write"
	PermUsersRead        Permission = "users:read"
	PermUsersManage      Permission = "users:manage"
)

var rolePermissions = map[models.UserRole][]Permission{
	models.RoleAdmin: {PermProjectsRead, PermProjectsWrite, PermAutomationsRead, PermAutomationsWrite,
		PermUsersRead, PermUsersManage},
	models.RoleEditor: {PermProjectsRead, PermProjectsWrite, PermAutomationsRead, PermUsersRead},
	models.RoleViewer: {PermProjectsRead, PermAutomationsRead, PermUsersRead},
}

func RoleHas(role models.UserRole, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// RequirePermission rejects requests whose authenticated user lacks perm.
// Requests without a user pass through, so the check is a no-op when
// authentication is disabled.
func RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := tenant.UserFromContext(r.Context())
			if ok && !RoleHas(models.UserRole(user.Role), perm) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
