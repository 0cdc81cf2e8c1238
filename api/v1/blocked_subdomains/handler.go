package blocked_subdomains

import (
	"github.com/gin-gonic/gin"

	"go_subdns/internal/blocklist"
	"go_subdns/internal/httpx"
)

// CreateRequest represents create blocked subdomain request
type CreateRequest struct {
	Subdomain string `json:"subdomain" binding:"required"`
	Reason    string `json:"reason"`
}

// UpdateRequest represents update blocked subdomain request
type UpdateRequest struct {
	ID       int     `json:"id" binding:"required"`
	Reason   *string `json:"reason"`
	IsActive *bool   `json:"isActive"`
}

// DeleteRequest represents delete blocked subdomain request
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// Handler handles blocked subdomain API
type Handler struct {
	svc *blocklist.Service
}

// NewHandler creates a new blocked subdomains handler
func NewHandler(svc *blocklist.Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/admin/blocked-subdomains
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// Create handles POST /api/v1/admin/blocked-subdomains/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.Create(c.Request.Context(), req.Subdomain, req.Reason)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Update handles POST /api/v1/admin/blocked-subdomains/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.Update(c.Request.Context(), req.ID, blocklist.UpdateParams{
		Reason:   req.Reason,
		IsActive: req.IsActive,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Delete handles POST /api/v1/admin/blocked-subdomains/delete
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
