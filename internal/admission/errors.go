package admission

import (
	"errors"
	"net/http"
)

// Kind classifies why a request was not admitted.
type Kind int

const (
	KindMissingTenant Kind = iota + 1
	KindInvalidTenant
	KindInvalidToken
	KindTokenRevoked
	KindTenantMismatch
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindMissingTenant:
		return "missing_tenant"
	case KindInvalidTenant:
		return "invalid_tenant"
	case KindInvalidToken:
		return "invalid_token"
	case KindTokenRevoked:
		return "token_revoked"
	case KindTenantMismatch:
		return "tenant_mismatch"
	case KindStorage:
		return "storage_error"
	default:
		return "unknown"
	}
}

// Status is the HTTP status the kind is rendered with.
func (k Kind) Status() int {
	switch k {
	case KindMissingTenant, KindInvalidTenant:
		return http.StatusBadRequest
	case KindInvalidToken, KindTokenRevoked:
		return http.StatusUnauthorized
	case KindTenantMismatch:
		return http.StatusForbidden
	default:
		return http.StatusServiceUnavailable
	}
}

// Public returns the code and message shown to clients. InvalidToken and
// TokenRevoked share one rendering so a client cannot tell them apart.
func (k Kind) Public() (code, message string) {
	switch k {
	case KindInvalidToken, KindTokenRevoked:
		return "UNAUTHORIZED", "Authentication required or session is no longer valid"
	case KindMissingTenant:
		return "TENANT_MISSING", "Organization not selected: send the x-org-id header, orgId cookie or orgId query parameter"
	case KindInvalidTenant:
		return "TENANT_INVALID", "Organization id is malformed"
	case KindTenantMismatch:
		return "TENANT_FORBIDDEN", "You are not a member of this organization"
	default:
		return "SERVICE_UNAVAILABLE", "Service temporarily unavailable"
	}
}

// Infrastructure reports whether the kind is a server-side fault worth alerting on.
func (k Kind) Infrastructure() bool { return k == KindStorage }

var (
	ErrNoCredentials          = errors.New("no bearer token")
	ErrMalformedAuthorization = errors.New("authorization header is not a bearer token")
)

// Error is the rejection produced by the validator.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "admission: " + e.Kind.String()
	}
	return "admission: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func reject(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the rejection kind from err.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}
