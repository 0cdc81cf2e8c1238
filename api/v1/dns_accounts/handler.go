package dns_accounts

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"go_subdns/internal/dnsaccount"
	"go_subdns/internal/httpx"
)

// CreateRequest represents create DNS account request
type CreateRequest struct {
	Name         string            `json:"name" binding:"required"`
	ProviderType string            `json:"providerType" binding:"required"`
	Credentials  map[string]string `json:"credentials" binding:"required"`
	IsDefault    bool              `json:"isDefault"`
}

// UpdateRequest represents update DNS account request
type UpdateRequest struct {
	ID          int               `json:"id" binding:"required"`
	Name        *string           `json:"name"`
	Credentials map[string]string `json:"credentials"`
	IsActive    *bool             `json:"isActive"`
	IsDefault   *bool             `json:"isDefault"`
}

// DeleteRequest represents delete DNS account request
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// Handler handles DNS account API
type Handler struct {
	svc *dnsaccount.Service
}

// NewHandler creates a new DNS accounts handler
func NewHandler(svc *dnsaccount.Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/admin/dns-accounts
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// Create handles POST /api/v1/admin/dns-accounts/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("name, providerType and credentials are required"))
		return
	}

	row, err := h.svc.Create(c.Request.Context(), dnsaccount.CreateParams{
		Name:         req.Name,
		ProviderType: req.ProviderType,
		Credentials:  req.Credentials,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Update handles POST /api/v1/admin/dns-accounts/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("id is required"))
		return
	}

	row, err := h.svc.Update(c.Request.Context(), req.ID, dnsaccount.UpdateParams{
		Name:        req.Name,
		Credentials: req.Credentials,
		IsActive:    req.IsActive,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Delete handles POST /api/v1/admin/dns-accounts/delete
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

// Domains handles GET /api/v1/admin/dns-accounts/:id/domains
func (h *Handler) Domains(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid id"))
		return
	}

	domains, err := h.svc.ListProviderDomains(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": domains})
}
