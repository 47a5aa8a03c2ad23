package auth

import (
	"errors"
	"net/http"

	"clinic/internal/admission"
	"clinic/internal/pkg/response"
	"clinic/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts routes that run without the admission gate.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	v1.POST("/auth/login", h.Login)
}

// RegisterSessionRoutes mounts routes that need a live session but no tenant.
// group must already be behind the gate's Authenticated policy.
func (h *Handler) RegisterSessionRoutes(group *gin.RouterGroup) {
	group.POST("/auth/logout", h.Logout)
	group.POST("/auth/logout-all", h.LogoutAll)
	group.GET("/session", h.Session)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", fields)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
		case errors.Is(err, ErrNotMember):
			response.Error(c, http.StatusForbidden, "TENANT_FORBIDDEN", "You are not a member of this organization")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		}
		return
	}

	data := gin.H{
		"user": UserPublic{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
		},
		"token": result.AccessToken,
	}
	if !result.OrgID.IsZero() {
		data["org_id"] = result.OrgID.String()
	}
	response.Success(c, http.StatusOK, data)
}

func (h *Handler) Logout(c *gin.Context) {
	rc := admission.MustFromGin(c)

	if err := h.service.Logout(c.Request.Context(), rc.TokenID()); err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) LogoutAll(c *gin.Context) {
	rc := admission.MustFromGin(c)

	n, err := h.service.LogoutAll(c.Request.Context(), rc.PrincipalID())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": n})
}

func (h *Handler) Session(c *gin.Context) {
	rc := admission.MustFromGin(c)

	session, err := h.service.GetSession(c.Request.Context(), rc.PrincipalID(), rc.TokenID())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "SESSION_FAILED", "Failed to load session")
		return
	}

	response.Success(c, http.StatusOK, session)
}
