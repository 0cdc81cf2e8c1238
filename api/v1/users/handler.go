package users

import (
	"github.com/gin-gonic/gin"

	"go_subdns/api/v1/middleware"
	"go_subdns/internal/httpx"
	"go_subdns/internal/users"
)

// ListRequest represents list users request
type ListRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// IDRequest targets a single user
type IDRequest struct {
	ID int `json:"id" binding:"required"`
}

// QuotaRequest represents update quota request
type QuotaRequest struct {
	ID    int  `json:"id" binding:"required"`
	Quota *int `json:"quota" binding:"required"`
}

// Handler handles admin user API
type Handler struct {
	svc *users.Service
}

// NewHandler creates a new users handler
func NewHandler(svc *users.Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/admin/users
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	res, err := h.svc.List(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OKItems(c, res.Items, res.Total, res.Page, res.PageSize)
}

// UpdateQuota handles POST /api/v1/admin/users/quota
func (h *Handler) UpdateQuota(c *gin.Context) {
	var req QuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	user, err := h.svc.UpdateQuota(c.Request.Context(), req.ID, *req.Quota)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, user)
}

// ToggleStatus handles POST /api/v1/admin/users/toggle-status
func (h *Handler) ToggleStatus(c *gin.Context) {
	var req IDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	user, err := h.svc.ToggleStatus(c.Request.Context(), middleware.CurrentUserID(c), req.ID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, user)
}

// Promote handles POST /api/v1/admin/users/promote
func (h *Handler) Promote(c *gin.Context) {
	var req IDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	user, err := h.svc.Promote(c.Request.Context(), req.ID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, user)
}

// Demote handles POST /api/v1/admin/users/demote
func (h *Handler) Demote(c *gin.Context) {
	var req IDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	user, err := h.svc.Demote(c.Request.Context(), req.ID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, user)
}
