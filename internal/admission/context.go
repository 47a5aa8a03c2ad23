package admission

import (
	"context"

	"clinic/internal/domain"
	"clinic/internal/tenant"

	"github.com/gin-gonic/gin"
)

type contextKey struct{ name string }

var requestContextKey = contextKey{"admission"}

// RequestContext is the identity and tenant a request was admitted with. Fields
// are set once by the validator and only exposed through getters.
type RequestContext struct {
	principalID  string
	tokenID      string
	orgID        tenant.OrgID
	tenantSource string
	role         domain.Role
}

// PrincipalID is the authenticated user id, "" for anonymous requests.
func (rc RequestContext) PrincipalID() string { return rc.principalID }

func (rc RequestContext) Authenticated() bool { return rc.principalID != "" }

// TokenID is the ledger id of the session the request presented.
func (rc RequestContext) TokenID() string { return rc.tokenID }

func (rc RequestContext) OrgID() tenant.OrgID { return rc.orgID }

func (rc RequestContext) HasTenant() bool { return !rc.orgID.IsZero() }

// TenantSource names the resolver source that supplied OrgID.
func (rc RequestContext) TenantSource() string { return rc.tenantSource }

// Role is the principal's membership role in OrgID, "" when unknown.
func (rc RequestContext) Role() domain.Role { return rc.role }

func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(RequestContext)
	return rc, ok
}

func FromGin(c *gin.Context) (RequestContext, bool) {
	return FromContext(c.Request.Context())
}

// MustFromGin is for handlers mounted behind the gate; it panics when the gate
// was not wired in front of them.
func MustFromGin(c *gin.Context) RequestContext {
	rc, ok := FromGin(c)
	if !ok {
		panic("admission: handler reached without request context")
	}
	return rc
}
