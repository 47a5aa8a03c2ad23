package server

import (
	"context"
	"net/http"
	"time"

	"clinic/internal/admission"
	"clinic/internal/ledger"
	"clinic/internal/metrics"
	"clinic/internal/middleware"
	"clinic/internal/modules/auth"
	"clinic/internal/modules/org"
	jwtsvc "clinic/internal/pkg/jwt"
	"clinic/internal/pkg/response"
	"clinic/internal/repository"
	"clinic/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators the router is assembled from.
type Deps struct {
	DB          *gorm.DB
	Ledger      *ledger.Ledger
	JWT         *jwtsvc.Service
	Log         *zap.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	userRepo := repository.NewUserRepository(d.DB)
	orgRepo := repository.NewOrganizationRepository(d.DB)
	memberRepo := repository.NewMembershipRepository(d.DB)

	validator := admission.NewValidator(d.JWT, d.Ledger, tenant.NewResolver(), memberRepo)
	gate := admission.NewGate(validator, log, d.Metrics)

	authHandler := auth.NewHandler(auth.NewService(userRepo, memberRepo, d.Ledger, d.JWT, log))
	orgHandler := org.NewHandler(org.NewService(orgRepo, memberRepo, userRepo))

	r := gin.New()
	r.Use(middleware.ErrorLogger(log), middleware.RequestLogger(log), middleware.CORS(d.CORSOrigins))

	r.GET("/healthz", healthz(d.DB))
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		// session only, no tenant
		session := v1.Group("/", gate.Authenticated())
		{
			authHandler.RegisterSessionRoutes(session)
			orgHandler.RegisterSessionRoutes(session)
		}

		// tenant-scoped
		scoped := v1.Group("/", gate.Require())
		{
			orgHandler.RegisterTenantRoutes(scoped)
		}
	}

	return r
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
