package admission

import (
	"time"

	"clinic/internal/metrics"
	"clinic/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin keys mirrored from the RequestContext for request logging.
const (
	ginKeyUserID = "user_id"
	ginKeyOrgID  = "org_id"
)

// Gate runs the validator in front of handlers. It holds no per-request state.
type Gate struct {
	validator *Validator
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewGate(v *Validator, log *zap.Logger, m *metrics.Metrics) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{validator: v, log: log, metrics: m}
}

// Require admits authenticated requests bound to an organization.
func (g *Gate) Require() gin.HandlerFunc { return g.Handler(PolicyRequire) }

// AllowAnonymous admits requests bound to an organization with or without a session.
func (g *Gate) AllowAnonymous() gin.HandlerFunc { return g.Handler(PolicyAnonymous) }

// Authenticated admits authenticated requests without resolving an organization.
func (g *Gate) Authenticated() gin.HandlerFunc { return g.Handler(PolicyAuthenticated) }

func (g *Gate) Handler(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc, ok := FromGin(c); ok && satisfies(rc, p) {
			c.Next()
			return
		}

		started := time.Now()
		rc, err := g.validator.Admit(c.Request, p)
		if err != nil {
			g.rejectRequest(c, err, started)
			return
		}
		g.metrics.RecordAdmission("admitted", started)

		c.Request = c.Request.WithContext(WithRequestContext(c.Request.Context(), rc))
		if rc.Authenticated() {
			c.Set(ginKeyUserID, rc.PrincipalID())
		}
		if rc.HasTenant() {
			c.Set(ginKeyOrgID, rc.OrgID().String())
		}
		c.Next()
	}
}

func (g *Gate) rejectRequest(c *gin.Context, err error, started time.Time) {
	kind, ok := KindOf(err)
	if !ok {
		kind = KindStorage
	}
	g.metrics.RecordAdmission(kind.String(), started)

	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	}
	if kind.Infrastructure() {
		g.log.Error("admission failed", fields...)
	} else {
		g.log.Debug("request rejected", fields...)
	}

	code, message := kind.Public()
	response.Abort(c, kind.Status(), code, message)
}

// satisfies reports whether an already admitted request meets p, so chaining the
// gate more than once does not repeat the ledger read.
func satisfies(rc RequestContext, p Policy) bool {
	if !p.AllowAnonymous && !rc.Authenticated() {
		return false
	}
	if !p.SkipTenant && !rc.HasTenant() {
		return false
	}
	return true
}
