package invite_codes

import (
	"time"

	"github.com/gin-gonic/gin"

	"go_subdns/api/v1/middleware"
	"go_subdns/internal/httpx"
	"go_subdns/internal/invitecode"
)

// CreateRequest represents create invite code request
type CreateRequest struct {
	Code        string     `json:"code"`
	Description string     `json:"description"`
	MaxUses     int        `json:"maxUses"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// UpdateRequest represents update invite code request
type UpdateRequest struct {
	ID          int     `json:"id" binding:"required"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// DeleteRequest represents delete invite code request
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// Handler handles invite code API
type Handler struct {
	svc *invitecode.Service
}

// NewHandler creates a new invite codes handler
func NewHandler(svc *invitecode.Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/admin/invite-codes
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// Create handles POST /api/v1/admin/invite-codes/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	row, err := h.svc.Create(c.Request.Context(), invitecode.CreateParams{
		Code:        req.Code,
		Description: req.Description,
		MaxUses:     req.MaxUses,
		ExpiresAt:   req.ExpiresAt,
		CreatedBy:   middleware.CurrentUserID(c),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Update handles POST /api/v1/admin/invite-codes/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.Update(c.Request.Context(), req.ID, invitecode.UpdateParams{
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Delete handles POST /api/v1/admin/invite-codes/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), req.ID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OKMsg(c, "deleted", nil)
}
