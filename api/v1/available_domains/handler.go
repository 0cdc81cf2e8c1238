package available_domains

import (
	"github.com/gin-gonic/gin"

	"go_subdns/internal/availabledomain"
	"go_subdns/internal/httpx"
)

// CreateRequest represents create available domain request
type CreateRequest struct {
	DNSAccountID int    `json:"dnsAccountId" binding:"required"`
	Domain       string `json:"domain" binding:"required"`
}

// UpdateRequest represents update available domain request
type UpdateRequest struct {
	ID       int   `json:"id" binding:"required"`
	IsActive *bool `json:"isActive" binding:"required"`
}

// DeleteRequest represents delete available domain request
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// Handler handles available domain API
type Handler struct {
	svc *availabledomain.Service
}

// NewHandler creates a new available domains handler
func NewHandler(svc *availabledomain.Service) *Handler {
	return &Handler{svc: svc}
}

// ListActive handles GET /api/v1/available-domains
func (h *Handler) ListActive(c *gin.Context) {
	items, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// List handles GET /api/v1/admin/available-domains
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// Create handles POST /api/v1/admin/available-domains/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.Create(c.Request.Context(), req.DNSAccountID, req.Domain)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Update handles POST /api/v1/admin/available-domains/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.Update(c.Request.Context(), req.ID, *req.IsActive)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Delete handles POST /api/v1/admin/available-domains/delete
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
