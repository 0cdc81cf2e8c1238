package blocklist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/model"
)

// Defaults returns the reserved labels seeded on first start
func Defaults() []model.BlockedSubdomain {
	reserved := []struct{ sub, reason string }{
		{"admin", "系统管理保留域名"},
		{"api", "API接口保留域名"},
		{"www", "主站保留域名"},
		{"mail", "邮件服务保留域名"},
		{"ftp", "FTP服务保留域名"},
		{"root", "系统保留域名"},
		{"test", "测试保留域名"},
		{"support", "客服支持保留域名"},
		{"help", "帮助页面保留域名"},
		{"blog", "博客保留域名"},
	}
	out := make([]model.BlockedSubdomain, 0, len(reserved))
	for _, r := range reserved {
		out = append(out, model.BlockedSubdomain{Subdomain: r.sub, Reason: r.reason, IsActive: true})
	}
	return out
}

// UpdateParams carries optional changes to an entry
type UpdateParams struct {
	Reason   *string
	IsActive *bool
}

// Service manages reserved subdomain labels
type Service struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewService creates a blocklist service
func NewService(db *gorm.DB, logger *logrus.Entry) *Service {
	return &Service{db: db, logger: logger.WithField("component", "blocklist")}
}

// BlockedMessage is the user-facing rejection for a reserved label
func BlockedMessage(subdomain, reason string) string {
	msg := fmt.Sprintf("子域名 \"%s\" 已被管理员禁用", subdomain)
	if reason != "" {
		msg += ": " + reason
	}
	return msg
}

// Check rejects subdomain when an active entry matches it, ignoring case
func (s *Service) Check(ctx context.Context, subdomain string) error {
	var entry model.BlockedSubdomain
	err := s.db.WithContext(ctx).
		Where("LOWER(subdomain) = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(subdomain)), true).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Internal("failed to check blocked subdomains", err)
	}
	return apperr.Validation(BlockedMessage(subdomain, entry.Reason))
}

// List returns every entry, active or not
func (s *Service) List(ctx context.Context) ([]model.BlockedSubdomain, error) {
	var entries []model.BlockedSubdomain
	if err := s.db.WithContext(ctx).Order("subdomain ASC").Find(&entries).Error; err != nil {
		return nil, apperr.Internal("failed to list blocked subdomains", err)
	}
	return entries, nil
}

// Create adds an active entry; labels are stored lowercased
func (s *Service) Create(ctx context.Context, subdomain, reason string) (*model.BlockedSubdomain, error) {
	sub := strings.ToLower(strings.TrimSpace(subdomain))
	if sub == "" {
		return nil, apperr.Validation("subdomain is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.BlockedSubdomain{}).Where("subdomain = ?", sub).Count(&count).Error; err != nil {
		return nil, apperr.Internal("failed to check blocked subdomain", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("Blocked subdomain already exists")
	}

	entry := &model.BlockedSubdomain{Subdomain: sub, Reason: strings.TrimSpace(reason), IsActive: true}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Blocked subdomain already exists")
		}
		return nil, apperr.Internal("failed to create blocked subdomain", err)
	}

	s.logger.WithField("subdomain", sub).Info("subdomain blocked")
	return entry, nil
}

// Update changes the reason or active flag of an entry
func (s *Service) Update(ctx context.Context, id int, params UpdateParams) (*model.BlockedSubdomain, error) {
	var entry model.BlockedSubdomain
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Blocked subdomain not found")
		}
		return nil, apperr.Internal("failed to load blocked subdomain", err)
	}

	updates := map[string]interface{}{}
	if params.Reason != nil {
		updates["reason"] = strings.TrimSpace(*params.Reason)
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}
	if len(updates) == 0 {
		return &entry, nil
	}

	if err := s.db.WithContext(ctx).Model(&entry).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("failed to update blocked subdomain", err)
	}
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, apperr.Internal("failed to reload blocked subdomain", err)
	}
	return &entry, nil
}

// Delete removes an entry
func (s *Service) Delete(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&model.BlockedSubdomain{}, id)
	if res.Error != nil {
		return apperr.Internal("failed to delete blocked subdomain", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Blocked subdomain not found")
	}
	return nil
}
