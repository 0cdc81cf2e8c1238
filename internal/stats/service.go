package stats

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/model"
)

// recentWindow bounds the "recent" counters
const recentWindow = 7 * 24 * time.Hour

// Summary is the admin dashboard overview
type Summary struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveUsers       int64 `json:"active_users"`
	RecentUsers       int64 `json:"recent_users"`
	TotalDomains      int64 `json:"total_domains"`
	ActiveDomains     int64 `json:"active_domains"`
	PendingDomains    int64 `json:"pending_domains"`
	RejectedDomains   int64 `json:"rejected_domains"`
	RecentDomains     int64 `json:"recent_domains"`
	ActiveDNSAccounts int64 `json:"active_dns_accounts"`
	AvailableDomains  int64 `json:"available_domains"`
}

// Service computes dashboard counters
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a stats service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Summary counts users, subdomains and accounts
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	since := s.now().Add(-recentWindow)
	db := s.db.WithContext(ctx)
	out := &Summary{}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&out.TotalUsers, db.Model(&model.User{})},
		{&out.ActiveUsers, db.Model(&model.User{}).Where("is_active = ?", true)},
		{&out.RecentUsers, db.Model(&model.User{}).Where("created_at >= ?", since)},
		{&out.TotalDomains, db.Model(&model.Domain{})},
		{&out.ActiveDomains, db.Model(&model.Domain{}).Where("status = ?", model.DomainStatusActive)},
		{&out.PendingDomains, db.Model(&model.Domain{}).Where("status = ?", model.DomainStatusPending)},
		{&out.RejectedDomains, db.Model(&model.Domain{}).Where("status = ?", model.DomainStatusRejected)},
		{&out.RecentDomains, db.Model(&model.Domain{}).Where("created_at >= ?", since)},
		{&out.ActiveDNSAccounts, db.Model(&model.DNSAccount{}).Where("is_active = ?", true)},
		{&out.AvailableDomains, db.Model(&model.AvailableDomain{}).Where("is_active = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, apperr.Internal("failed to compute stats", err)
		}
	}
	return out, nil
}
