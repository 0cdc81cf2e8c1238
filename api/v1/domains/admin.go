package domains

import (
	"github.com/gin-gonic/gin"

	"go_subdns/internal/domain"
	"go_subdns/internal/httpx"
)

// AdminList handles GET /api/v1/admin/domains
func (h *Handler) AdminList(c *gin.Context) {
	var req AdminListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	res, err := h.svc.AdminList(c.Request.Context(), domain.ListDomainsParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		Status:   req.Status,
		UserID:   req.UserID,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OKItems(c, res.Items, res.Total, res.Page, res.PageSize)
}

// SetStatus handles POST /api/v1/admin/domains/status
func (h *Handler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	row, err := h.svc.AdminSetStatus(c.Request.Context(), req.ID, status)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// SetValue handles POST /api/v1/admin/domains/value
func (h *Handler) SetValue(c *gin.Context) {
	var req SetValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.svc.AdminSetValue(c.Request.Context(), req.ID, req.Value)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}
