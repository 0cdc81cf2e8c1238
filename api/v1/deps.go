package v1

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apilog"
	"go_subdns/internal/availabledomain"
	"go_subdns/internal/blocklist"
	"go_subdns/internal/config"
	"go_subdns/internal/crypto"
	"go_subdns/internal/dns/providers"
	"go_subdns/internal/dnsaccount"
	"go_subdns/internal/domain"
	"go_subdns/internal/invitecode"
	"go_subdns/internal/logger"
	"go_subdns/internal/providercatalog"
	"go_subdns/internal/ratelimit"
	"go_subdns/internal/settings"
	"go_subdns/internal/stats"
	"go_subdns/internal/users"
)

// NewDeps wires every service on top of db. factory builds provider clients
// and timeout bounds each provider call.
func NewDeps(db *gorm.DB, codec *crypto.Codec, factory providers.Factory, jwt config.JWTConfig, timeout time.Duration, limiter ratelimit.Limiter, log *logrus.Logger) *Deps {
	base := logrus.NewEntry(log)
	settingsSvc := settings.NewService(db, base)
	invites := invitecode.NewService(db, base)
	block := blocklist.NewService(db, base)
	catalog := providercatalog.NewService(db, base)
	accounts := dnsaccount.NewService(db, codec, factory, catalog, timeout, base)

	return &Deps{
		DB:               db,
		JWT:              jwt,
		Logger:           logger.Component(log, "http"),
		Limiter:          limiter,
		Users:            users.NewService(db, settingsSvc, invites, base),
		Settings:         settingsSvc,
		Invites:          invites,
		Blocklist:        block,
		Providers:        catalog,
		DNSAccounts:      accounts,
		AvailableDomains: availabledomain.NewService(db, base),
		Domains:          domain.NewService(db, accounts, block, settingsSvc, timeout, base),
		Stats:            stats.NewService(db),
		APILogs:          apilog.NewService(db, base),
	}
}
