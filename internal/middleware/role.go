package middleware

import (
	"net/http"

	"clinic/internal/admission"
	"clinic/internal/domain"
	"clinic/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireOrgRole ensures the caller holds one of roles in the organization the
// request was admitted for. It must run after the admission gate.
func RequireOrgRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		rc, ok := admission.FromGin(c)
		if !ok || !rc.Authenticated() || !rc.HasTenant() {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required or session is no longer valid")
			return
		}

		if !allowed[rc.Role()] {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// OrgAdmin allows owners and admins.
func OrgAdmin() gin.HandlerFunc {
	return RequireOrgRole(domain.RoleOwner, domain.RoleAdmin)
}
