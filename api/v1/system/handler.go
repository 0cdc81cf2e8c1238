package system

import (
	"github.com/gin-gonic/gin"

	"go_subdns/internal/apilog"
	"go_subdns/internal/httpx"
	"go_subdns/internal/settings"
	"go_subdns/internal/stats"
)

// UpdateSettingRequest represents update setting request
type UpdateSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// LogsRequest represents list logs request
type LogsRequest struct {
	Page     int  `form:"page"`
	PageSize int  `form:"pageSize"`
	UserID   *int `form:"userId"`
}

// Handler handles admin settings, stats and logs
type Handler struct {
	settings *settings.Service
	stats    *stats.Service
	logs     *apilog.Service
}

// NewHandler creates a new system handler
func NewHandler(settingsSvc *settings.Service, statsSvc *stats.Service, logs *apilog.Service) *Handler {
	return &Handler{settings: settingsSvc, stats: statsSvc, logs: logs}
}

// Stats handles GET /api/v1/admin/stats
func (h *Handler) Stats(c *gin.Context) {
	sum, err := h.stats.Summary(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, sum)
}

// Settings handles GET /api/v1/admin/settings
func (h *Handler) Settings(c *gin.Context) {
	items, err := h.settings.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// UpdateSetting handles POST /api/v1/admin/settings/update
func (h *Handler) UpdateSetting(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	row, err := h.settings.Update(c.Request.Context(), req.Key, req.Value)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, row)
}

// Logs handles GET /api/v1/admin/logs
func (h *Handler) Logs(c *gin.Context) {
	var req LogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	res, err := h.logs.List(c.Request.Context(), apilog.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		UserID:   req.UserID,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OKItems(c, res.Items, res.Total, res.Page, res.PageSize)
}
