package availabledomain

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/dns"
	"go_subdns/internal/domainutil"
	"go_subdns/internal/model"
)

// AdminItem is an available domain with its account and usage
type AdminItem struct {
	model.AvailableDomain
	SubdomainCount int64 `json:"subdomain_count"`
}

// UserItem is what a regular user sees when picking a root domain
type UserItem struct {
	ID            int    `json:"id"`
	Domain        string `json:"domain"`
	ProviderType  string `json:"provider_type"`
	SupportsProxy bool   `json:"supports_proxy"`
	DefaultTTL    int    `json:"default_ttl"`
}

// Service manages the root domains offered for subdomain registration
type Service struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewService creates an available domain service
func NewService(db *gorm.DB, logger *logrus.Entry) *Service {
	return &Service{db: db, logger: logger.WithField("component", "availabledomain")}
}

// Create registers a root domain served by a DNS account
func (s *Service) Create(ctx context.Context, accountID int, domain string) (*model.AvailableDomain, error) {
	var account model.DNSAccount
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("DNS account not found")
		}
		return nil, apperr.Internal("failed to load DNS account", err)
	}

	normalized, err := domainutil.Normalize(domain)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	apex, err := domainutil.EffectiveApex(normalized)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if apex != normalized {
		return nil, apperr.Validation("domain must be a registrable root domain, e.g. " + apex)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.AvailableDomain{}).Where("domain = ?", normalized).Count(&count).Error; err != nil {
		return nil, apperr.Internal("failed to check available domain", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("Available domain already exists")
	}

	row := &model.AvailableDomain{Domain: normalized, DNSAccountID: accountID, IsActive: true}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Available domain already exists")
		}
		return nil, apperr.Internal("failed to create available domain", err)
	}
	row.DNSAccount = &account

	s.logger.WithFields(logrus.Fields{"domain": normalized, "account_id": accountID}).Info("available domain created")
	return row, nil
}

func (s *Service) load(ctx context.Context, id int) (*model.AvailableDomain, error) {
	var row model.AvailableDomain
	if err := s.db.WithContext(ctx).Preload("DNSAccount").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Available domain not found")
		}
		return nil, apperr.Internal("failed to load available domain", err)
	}
	return &row, nil
}

// Update enables or disables a root domain for new registrations
func (s *Service) Update(ctx context.Context, id int, isActive bool) (*model.AvailableDomain, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.AvailableDomain{}).Where("id = ?", id).Update("is_active", isActive).Error; err != nil {
		return nil, apperr.Internal("failed to update available domain", err)
	}
	row.IsActive = isActive
	return row, nil
}

// Delete removes a root domain that no subdomain references
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.AvailableDomain
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Available domain not found")
			}
			return apperr.Internal("failed to load available domain", err)
		}

		var refs int64
		if err := tx.Model(&model.Domain{}).Where("available_domain_id = ?", id).Count(&refs).Error; err != nil {
			return apperr.Internal("failed to count subdomains", err)
		}
		if refs > 0 {
			return apperr.Conflict("Available domain has subdomains")
		}

		if err := tx.Delete(&row).Error; err != nil {
			return apperr.Internal("failed to delete available domain", err)
		}
		s.logger.WithField("domain", row.Domain).Info("available domain deleted")
		return nil
	})
}

// ListAll returns every root domain with its account and subdomain count
func (s *Service) ListAll(ctx context.Context) ([]AdminItem, error) {
	var rows []model.AvailableDomain
	if err := s.db.WithContext(ctx).Preload("DNSAccount").Order("domain ASC").Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list available domains", err)
	}

	type countRow struct {
		AvailableDomainID int
		Total             int64
	}
	var counts []countRow
	if err := s.db.WithContext(ctx).Model(&model.Domain{}).
		Select("available_domain_id, COUNT(*) AS total").
		Group("available_domain_id").
		Scan(&counts).Error; err != nil {
		return nil, apperr.Internal("failed to count subdomains", err)
	}
	byID := make(map[int]int64, len(counts))
	for _, c := range counts {
		byID[c.AvailableDomainID] = c.Total
	}

	out := make([]AdminItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, AdminItem{AvailableDomain: r, SubdomainCount: byID[r.ID]})
	}
	return out, nil
}

// ListActive returns root domains open for registration whose account is active
func (s *Service) ListActive(ctx context.Context) ([]UserItem, error) {
	var rows []model.AvailableDomain
	err := s.db.WithContext(ctx).
		Joins("DNSAccount").
		Where("available_domains.is_active = ? AND DNSAccount.is_active = ?", true, true).
		Order("available_domains.domain ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal("failed to list available domains", err)
	}

	out := make([]UserItem, 0, len(rows))
	for _, r := range rows {
		item := UserItem{ID: r.ID, Domain: r.Domain}
		if r.DNSAccount != nil {
			item.ProviderType = r.DNSAccount.ProviderType
			if t, err := dns.ParseProviderType(r.DNSAccount.ProviderType); err == nil {
				if d, ok := dns.Describe(t); ok {
					item.SupportsProxy = d.SupportsProxy
					item.DefaultTTL = d.DefaultTTL
				}
			}
		}
		out = append(out, item)
	}
	return out, nil
}
