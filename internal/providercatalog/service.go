package providercatalog

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/dns"
	"go_subdns/internal/model"
)

// Entry is a catalog row enriched with static provider traits
type Entry struct {
	model.DNSProvider
	SupportsProxy bool  `json:"supports_proxy"`
	DefaultTTL    int   `json:"default_ttl"`
	AccountCount  int64 `json:"account_count"`
}

// UpdateParams carries optional changes to a catalog row
type UpdateParams struct {
	DisplayName *string
	IsActive    *bool
}

// Service exposes the DNS provider catalog
type Service struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewService creates a provider catalog service
func NewService(db *gorm.DB, logger *logrus.Entry) *Service {
	return &Service{db: db, logger: logger.WithField("component", "providercatalog")}
}

func enrich(row model.DNSProvider) Entry {
	e := Entry{DNSProvider: row}
	if t, err := dns.ParseProviderType(row.Name); err == nil {
		if d, ok := dns.Describe(t); ok {
			e.SupportsProxy = d.SupportsProxy
			e.DefaultTTL = d.DefaultTTL
		}
	}
	return e
}

// List returns every provider with the number of accounts using it
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	var rows []model.DNSProvider
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list providers", err)
	}

	type countRow struct {
		ProviderType string
		Total        int64
	}
	var counts []countRow
	if err := s.db.WithContext(ctx).Model(&model.DNSAccount{}).
		Select("provider_type, COUNT(*) AS total").
		Group("provider_type").
		Scan(&counts).Error; err != nil {
		return nil, apperr.Internal("failed to count DNS accounts", err)
	}
	byType := make(map[string]int64, len(counts))
	for _, c := range counts {
		byType[c.ProviderType] = c.Total
	}

	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e := enrich(row)
		e.AccountCount = byType[row.Name]
		out = append(out, e)
	}
	return out, nil
}

// ListActive returns the providers users may see
func (s *Service) ListActive(ctx context.Context) ([]Entry, error) {
	var rows []model.DNSProvider
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list providers", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, enrich(row))
	}
	return out, nil
}

// Update changes the display name or enabled flag of a provider
func (s *Service) Update(ctx context.Context, id int, params UpdateParams) (*model.DNSProvider, error) {
	var row model.DNSProvider
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("DNS provider not found")
		}
		return nil, apperr.Internal("failed to load provider", err)
	}

	updates := map[string]interface{}{}
	if params.DisplayName != nil {
		name := strings.TrimSpace(*params.DisplayName)
		if name == "" {
			return nil, apperr.Validation("display name must not be empty")
		}
		updates["display_name"] = name
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}
	if len(updates) == 0 {
		return &row, nil
	}

	if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("failed to update provider", err)
	}
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, apperr.Internal("failed to reload provider", err)
	}

	s.logger.WithFields(logrus.Fields{"provider": row.Name, "is_active": row.IsActive}).Info("provider updated")
	return &row, nil
}

// IsEnabled reports whether new accounts may be created for t.
// A provider missing from the catalog counts as disabled.
func (s *Service) IsEnabled(ctx context.Context, t dns.ProviderType) (bool, error) {
	var row model.DNSProvider
	err := s.db.WithContext(ctx).Where("name = ?", string(t)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Internal("failed to load provider", err)
	}
	return row.IsActive, nil
}
