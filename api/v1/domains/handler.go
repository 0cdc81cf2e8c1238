package domains

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"go_subdns/api/v1/middleware"
	"go_subdns/internal/domain"
	"go_subdns/internal/httpx"
)

// Handler handles subdomain API
type Handler struct {
	svc *domain.Service
}

// NewHandler creates a new domains handler
func NewHandler(svc *domain.Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/domains
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.ListByUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// Get handles GET /api/v1/domains/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid id"))
		return
	}

	row, err := h.svc.Get(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Create handles POST /api/v1/domains/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), domain.CreateParams{
		AvailableDomainID: req.AvailableDomainID,
		Subdomain:         req.Subdomain,
		RecordType:        req.RecordType,
		Value:             req.Value,
		TTL:               req.TTL,
		Proxied:           req.Proxied,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Update handles POST /api/v1/domains/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.Update(c.Request.Context(), middleware.CurrentUserID(c), req.ID, domain.UpdateParams{
		Value:   req.Value,
		Proxied: req.Proxied,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Delete handles POST /api/v1/domains/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUserID(c), req.ID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OKMsg(c, "deleted", nil)
}
