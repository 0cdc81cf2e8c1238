package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/api/v1/auth"
	"go_subdns/api/v1/available_domains"
	"go_subdns/api/v1/blocked_subdomains"
	"go_subdns/api/v1/dns_accounts"
	"go_subdns/api/v1/domains"
	"go_subdns/api/v1/invite_codes"
	"go_subdns/api/v1/middleware"
	"go_subdns/api/v1/providers"
	"go_subdns/api/v1/system"
	usershandler "go_subdns/api/v1/users"
	"go_subdns/internal/apilog"
	"go_subdns/internal/availabledomain"
	"go_subdns/internal/blocklist"
	"go_subdns/internal/config"
	"go_subdns/internal/dnsaccount"
	"go_subdns/internal/domain"
	"go_subdns/internal/httpx"
	"go_subdns/internal/invitecode"
	"go_subdns/internal/providercatalog"
	"go_subdns/internal/ratelimit"
	"go_subdns/internal/settings"
	"go_subdns/internal/stats"
	"go_subdns/internal/users"
)

// rateWindow is the window login and register limits are counted over
const rateWindow = time.Hour

// Deps carries every service the HTTP layer calls into
type Deps struct {
	DB               *gorm.DB
	JWT              config.JWTConfig
	Logger           *logrus.Entry
	Limiter          ratelimit.Limiter
	RedisPing        func(ctx context.Context) error
	Users            *users.Service
	Settings         *settings.Service
	Invites          *invitecode.Service
	Blocklist        *blocklist.Service
	Providers        *providercatalog.Service
	DNSAccounts      *dnsaccount.Service
	AvailableDomains *availabledomain.Service
	Domains          *domain.Service
	Stats            *stats.Service
	APILogs          *apilog.Service
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, d *Deps) {
	r.Use(middleware.RequestID(), middleware.AccessLog(d.Logger))

	r.GET("/health", healthHandler(d))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := auth.NewHandler(d.Users, d.JWT)
	domainsHandler := domains.NewHandler(d.Domains)
	providersHandler := providers.NewHandler(d.Providers)
	availableHandler := available_domains.NewHandler(d.AvailableDomains)
	accountsHandler := dns_accounts.NewHandler(d.DNSAccounts)
	usersHandler := usershandler.NewHandler(d.Users)
	invitesHandler := invite_codes.NewHandler(d.Invites)
	blockedHandler := blocked_subdomains.NewHandler(d.Blocklist)
	systemHandler := system.NewHandler(d.Settings, d.Stats, d.APILogs)

	loginLimit := func(ctx context.Context) (int, error) {
		return d.Settings.Int(ctx, settings.KeyLoginRateLimit)
	}
	registerLimit := func(ctx context.Context) (int, error) {
		return d.Settings.Int(ctx, settings.KeyRegisterRateLimit)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.APILog(d.APILogs))
	{
		v1.GET("/ping", pingHandler)

		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimit(d.Limiter, "register", registerLimit, rateWindow, d.Logger), authHandler.Register)
			authGroup.POST("/login", middleware.RateLimit(d.Limiter, "login", loginLimit, rateWindow, d.Logger), authHandler.Login)
			authGroup.POST("/create-admin", middleware.RateLimit(d.Limiter, "register", registerLimit, rateWindow, d.Logger), authHandler.CreateAdmin)
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(d.Users))
		{
			protected.GET("/auth/me", authHandler.Me)
			protected.GET("/providers", providersHandler.ListActive)
			protected.GET("/available-domains", availableHandler.ListActive)

			domainsGroup := protected.Group("/domains")
			{
				domainsGroup.GET("", domainsHandler.List)
				domainsGroup.GET("/:id", domainsHandler.Get)
				domainsGroup.POST("/create", domainsHandler.Create)
				domainsGroup.POST("/update", domainsHandler.Update)
				domainsGroup.POST("/delete", domainsHandler.Delete)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminRequired())
			{
				admin.GET("/stats", systemHandler.Stats)
				admin.GET("/settings", systemHandler.Settings)
				admin.POST("/settings/update", systemHandler.UpdateSetting)
				admin.GET("/logs", systemHandler.Logs)

				usersGroup := admin.Group("/users")
				{
					usersGroup.GET("", usersHandler.List)
					usersGroup.POST("/quota", usersHandler.UpdateQuota)
					usersGroup.POST("/toggle-status", usersHandler.ToggleStatus)
					usersGroup.POST("/promote", usersHandler.Promote)
					usersGroup.POST("/demote", usersHandler.Demote)
				}

				providersGroup := admin.Group("/providers")
				{
					providersGroup.GET("", providersHandler.List)
					providersGroup.POST("/update", providersHandler.Update)
				}

				accountsGroup := admin.Group("/dns-accounts")
				{
					accountsGroup.GET("", accountsHandler.List)
					accountsGroup.GET("/:id/domains", accountsHandler.Domains)
					accountsGroup.POST("/create", accountsHandler.Create)
					accountsGroup.POST("/update", accountsHandler.Update)
					accountsGroup.POST("/delete", accountsHandler.Delete)
				}

				availableGroup := admin.Group("/available-domains")
				{
					availableGroup.GET("", availableHandler.List)
					availableGroup.POST("/create", availableHandler.Create)
					availableGroup.POST("/update", availableHandler.Update)
					availableGroup.POST("/delete", availableHandler.Delete)
				}

				adminDomains := admin.Group("/domains")
				{
					adminDomains.GET("", domainsHandler.AdminList)
					adminDomains.POST("/status", domainsHandler.SetStatus)
					adminDomains.POST("/value", domainsHandler.SetValue)
				}

				blockedGroup := admin.Group("/blocked-subdomains")
				{
					blockedGroup.GET("", blockedHandler.List)
					blockedGroup.POST("/create", blockedHandler.Create)
					blockedGroup.POST("/update", blockedHandler.Update)
					blockedGroup.POST("/delete", blockedHandler.Delete)
				}

				invitesGroup := admin.Group("/invite-codes")
				{
					invitesGroup.GET("", invitesHandler.List)
					invitesGroup.POST("/create", invitesHandler.Create)
					invitesGroup.POST("/update", invitesHandler.Update)
					invitesGroup.POST("/delete", invitesHandler.Delete)
				}
			}
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// healthHandler reports database and redis reachability
func healthHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := gin.H{"database": "ok", "redis": "ok"}
		healthy := true

		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["database"] = "down"
			healthy = false
		}
		if d.RedisPing != nil {
			if err := d.RedisPing(ctx); err != nil {
				status["redis"] = "down"
				healthy = false
			}
		}

		if !healthy {
			httpx.FailErr(c, httpx.NewAppError(http.StatusServiceUnavailable, httpx.CodeExternalError, "unhealthy", nil).WithData(status))
			return
		}
		httpx.OK(c, status)
	}
}
