package org

import (
	"errors"
	"net/http"

	"clinic/internal/admission"
	"clinic/internal/middleware"
	"clinic/internal/pkg/response"
	"clinic/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterSessionRoutes mounts routes behind the Authenticated policy.
func (h *Handler) RegisterSessionRoutes(group *gin.RouterGroup) {
	group.POST("/orgs", h.Create)
}

// RegisterTenantRoutes mounts routes behind the Require policy.
func (h *Handler) RegisterTenantRoutes(group *gin.RouterGroup) {
	group.GET("/org", h.GetCurrent)
	group.POST("/org/members", middleware.OrgAdmin(), h.AddMember)
}

func (h *Handler) Create(c *gin.Context) {
	rc := admission.MustFromGin(c)

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", fields)
		return
	}

	org, err := h.service.CreateOrg(c.Request.Context(), rc.PrincipalID(), req)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "ORG_CREATE_FAILED", "Failed to create organization")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"organization": org})
}

func (h *Handler) GetCurrent(c *gin.Context) {
	rc := admission.MustFromGin(c)

	org, err := h.service.GetCurrent(c.Request.Context(), rc.OrgID())
	if err != nil {
		if errors.Is(err, ErrOrgNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Organization not found")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "ORG_FETCH_FAILED", "Failed to load organization")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"organization": org,
		"role":         rc.Role(),
	})
}

func (h *Handler) AddMember(c *gin.Context) {
	rc := admission.MustFromGin(c)

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", fields)
		return
	}

	m, err := h.service.AddMember(c.Request.Context(), rc.OrgID(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "No user with this email")
		case errors.Is(err, ErrAlreadyMember):
			response.Error(c, http.StatusConflict, "ALREADY_MEMBER", "User is already a member of this organization")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "MEMBER_ADD_FAILED", "Failed to add member")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"membership": m})
}
