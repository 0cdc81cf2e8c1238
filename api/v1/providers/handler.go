package providers

import (
	"github.com/gin-gonic/gin"

	"go_subdns/internal/httpx"
	"go_subdns/internal/providercatalog"
)

// UpdateRequest represents update provider request
type UpdateRequest struct {
	ID          int     `json:"id" binding:"required"`
	DisplayName *string `json:"displayName"`
	IsActive    *bool   `json:"isActive"`
}

// Handler handles DNS provider catalog API
type Handler struct {
	svc *providercatalog.Service
}

// NewHandler creates a new providers handler
func NewHandler(svc *providercatalog.Service) *Handler {
	return &Handler{svc: svc}
}

// ListActive handles GET /api/v1/providers
func (h *Handler) ListActive(c *gin.Context) {
	items, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// List handles GET /api/v1/admin/providers
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// Update handles POST /api/v1/admin/providers/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.Update(c.Request.Context(), req.ID, providercatalog.UpdateParams{
		DisplayName: req.DisplayName,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}
