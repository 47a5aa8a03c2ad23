package admission

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"clinic/internal/domain"
	"clinic/internal/ledger"
	"clinic/internal/pkg/jwt"
	"clinic/internal/tenant"
)

const bearerPrefix = "bearer "

type TokenVerifier interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type TokenLedger interface {
	IsActive(ctx context.Context, tokenID string) (bool, error)
}

// MembershipSource returns nil, nil when userID has no membership in orgID.
type MembershipSource interface {
	GetByUserAndOrg(ctx context.Context, userID string, orgID tenant.OrgID) (*domain.Membership, error)
}

// Policy is what a route declares about its callers.
type Policy struct {
	// AllowAnonymous admits requests without a bearer token.
	AllowAnonymous bool
	// SkipTenant admits without resolving an organization, for routes that do
	// not touch tenant data (logout, creating an organization).
	SkipTenant bool
}

var (
	PolicyRequire       = Policy{}
	PolicyAnonymous     = Policy{AllowAnonymous: true}
	PolicyAuthenticated = Policy{SkipTenant: true}
)

// Validator decides request admission. Authentication is settled before the
// tenant is looked at, so an unauthenticated caller learns nothing about the
// tenant id it sent.
type Validator struct {
	verifier TokenVerifier
	ledger   TokenLedger
	resolver *tenant.Resolver
	members  MembershipSource
}

// NewValidator wires the checks. members may be nil, in which case the
// membership step is skipped.
func NewValidator(verifier TokenVerifier, l TokenLedger, resolver *tenant.Resolver, members MembershipSource) *Validator {
	return &Validator{
		verifier: verifier,
		ledger:   l,
		resolver: resolver,
		members:  members,
	}
}

func (v *Validator) Admit(r *http.Request, p Policy) (RequestContext, error) {
	ctx := r.Context()
	var rc RequestContext
	var orgClaim string

	token, present, err := bearerToken(r.Header.Get("Authorization"))
	switch {
	case err != nil:
		return RequestContext{}, reject(KindInvalidToken, err)
	case !present && !p.AllowAnonymous:
		return RequestContext{}, reject(KindInvalidToken, ErrNoCredentials)
	case present:
		claims, err := v.verifier.ValidateToken(token)
		if err != nil {
			return RequestContext{}, reject(KindInvalidToken, err)
		}

		active, err := v.ledger.IsActive(ctx, claims.TokenID())
		if err != nil {
			return RequestContext{}, reject(KindStorage, err)
		}
		if !active {
			return RequestContext{}, reject(KindTokenRevoked, errors.New("token is not active"))
		}

		rc.principalID = claims.UserID()
		rc.tokenID = claims.TokenID()
		orgClaim = claims.OrgID
	}

	if p.SkipTenant {
		return rc, nil
	}

	res, err := v.resolver.Resolve(r, orgClaim)
	if err != nil {
		if errors.Is(err, tenant.ErrMissingTenant) {
			return RequestContext{}, reject(KindMissingTenant, err)
		}
		return RequestContext{}, reject(KindInvalidTenant, err)
	}
	rc.orgID = res.OrgID
	rc.tenantSource = res.Source

	if rc.Authenticated() && v.members != nil {
		m, err := v.members.GetByUserAndOrg(ctx, rc.principalID, rc.orgID)
		if err != nil {
			return RequestContext{}, reject(KindStorage, errors.Join(ledger.ErrStorage, err))
		}
		if m == nil {
			return RequestContext{}, reject(KindTenantMismatch, errors.New("principal is not a member of the organization"))
		}
		rc.role = m.Role
	}

	return rc, nil
}

// bearerToken returns present=false when the header is empty and an error when it
// is set but is not a usable bearer credential.
func bearerToken(header string) (token string, present bool, err error) {
	h := strings.TrimSpace(header)
	if h == "" {
		return "", false, nil
	}
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return "", true, ErrMalformedAuthorization
	}
	token = strings.TrimSpace(h[len(bearerPrefix):])
	if token == "" {
		return "", true, ErrMalformedAuthorization
	}
	return token, true, nil
}
