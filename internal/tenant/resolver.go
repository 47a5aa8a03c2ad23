package tenant

import (
	"errors"
	"net/http"
	"strings"
)

const (
	HeaderName = "x-org-id"
	CookieName = "orgId"
	QueryParam = "orgId"
)

var (
	ErrMissingTenant = errors.New("organization not selected")
	ErrInvalidTenant = errors.New("organization id is malformed")
)

// Source yields a candidate organization id for a request, or "" when it has none.
// sessionClaim is the org claim of the verified session, "" for anonymous requests.
type Source struct {
	Name    string
	Extract func(r *http.Request, sessionClaim string) string
}

func SessionClaimSource() Source {
	return Source{Name: "session", Extract: func(_ *http.Request, claim string) string {
		return claim
	}}
}

func HeaderSource(name string) Source {
	return Source{Name: "header", Extract: func(r *http.Request, _ string) string {
		return r.Header.Get(name)
	}}
}

func CookieSource(name string) Source {
	return Source{Name: "cookie", Extract: func(r *http.Request, _ string) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}}
}

func QuerySource(name string) Source {
	return Source{Name: "query", Extract: func(r *http.Request, _ string) string {
		return r.URL.Query().Get(name)
	}}
}

// DefaultSources is the precedence order used by the API: session claim, then
// header, cookie and query parameter.
func DefaultSources() []Source {
	return []Source{
		SessionClaimSource(),
		HeaderSource(HeaderName),
		CookieSource(CookieName),
		QuerySource(QueryParam),
	}
}

type Resolver struct {
	sources []Source
}

func NewResolver(sources ...Source) *Resolver {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Resolver{sources: sources}
}

// Resolution reports which source supplied the organization id.
type Resolution struct {
	OrgID  OrgID
	Source string
}

// Resolve walks the sources in order and stops at the first non-empty value.
// A malformed value is a hard failure; lower-priority sources are never consulted
// once a higher one produced something.
func (r *Resolver) Resolve(req *http.Request, sessionClaim string) (Resolution, error) {
	for _, src := range r.sources {
		raw := strings.TrimSpace(src.Extract(req, sessionClaim))
		if raw == "" {
			continue
		}
		id, err := ParseOrgID(raw)
		if err != nil {
			return Resolution{Source: src.Name}, ErrInvalidTenant
		}
		return Resolution{OrgID: id, Source: src.Name}, nil
	}
	return Resolution{}, ErrMissingTenant
}
