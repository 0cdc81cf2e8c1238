package domain

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/model"
)

// DomainListItem represents a subdomain record in list responses
type DomainListItem struct {
	ID               int    `json:"id"`
	Subdomain        string `json:"subdomain"`
	FullName         string `json:"full_name"`
	RootDomain       string `json:"root_domain"`
	RecordType       string `json:"record_type"`
	Value            string `json:"value"`
	TTL              int    `json:"ttl"`
	Proxied          bool   `json:"proxied"`
	Status           string `json:"status"`
	ProviderType     string `json:"provider_type"`
	ProviderRecordID string `json:"provider_record_id,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	UserID           int    `json:"user_id"`
	UserEmail        string `json:"user_email,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// DomainListResult represents one page of records
type DomainListResult struct {
	Items    []DomainListItem `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// ListDomainsParams represents the filters of the admin list
type ListDomainsParams struct {
	Page     int
	PageSize int
	Keyword  string
	Status   string
	UserID   *int
}

type queryRow struct {
	ID               int       `gorm:"column:id"`
	Subdomain        string    `gorm:"column:subdomain"`
	FullName         string    `gorm:"column:full_name"`
	RootDomain       string    `gorm:"column:root_domain"`
	RecordType       string    `gorm:"column:record_type"`
	Value            string    `gorm:"column:value"`
	TTL              int       `gorm:"column:ttl"`
	Proxied          bool      `gorm:"column:proxied"`
	Status           string    `gorm:"column:status"`
	ProviderType     *string   `gorm:"column:provider_type"`
	ProviderRecordID *string   `gorm:"column:provider_record_id"`
	LastError        *string   `gorm:"column:last_error"`
	UserID           int       `gorm:"column:user_id"`
	UserEmail        *string   `gorm:"column:user_email"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (r queryRow) item() DomainListItem {
	item := DomainListItem{
		ID:         r.ID,
		Subdomain:  r.Subdomain,
		FullName:   r.FullName,
		RootDomain: r.RootDomain,
		RecordType: r.RecordType,
		Value:      r.Value,
		TTL:        r.TTL,
		Proxied:    r.Proxied,
		Status:     r.Status,
		UserID:     r.UserID,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ProviderType != nil {
		item.ProviderType = *r.ProviderType
	}
	if r.ProviderRecordID != nil {
		item.ProviderRecordID = *r.ProviderRecordID
	}
	if r.LastError != nil {
		item.LastError = *r.LastError
	}
	if r.UserEmail != nil {
		item.UserEmail = *r.UserEmail
	}
	return item
}

const listColumns = `
	d.id,
	d.subdomain,
	d.full_name,
	ad.domain AS root_domain,
	d.record_type,
	d.value,
	d.ttl,
	d.proxied,
	d.status,
	a.provider_type,
	d.provider_record_id,
	d.last_error,
	d.user_id,
	u.email AS user_email,
	d.created_at,
	d.updated_at`

func (s *Service) listQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("domains d").
		Joins("LEFT JOIN available_domains ad ON ad.id = d.available_domain_id").
		Joins("LEFT JOIN dns_accounts a ON a.id = d.dns_account_id").
		Joins("LEFT JOIN users u ON u.id = d.user_id")
}

// ListByUser returns every record owned by userID, newest first
func (s *Service) ListByUser(ctx context.Context, userID int) ([]DomainListItem, error) {
	var rows []queryRow
	err := s.listQuery(ctx).
		Select(listColumns).
		Where("d.user_id = ?", userID).
		Order("d.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("failed to list domains", err)
	}

	items := make([]DomainListItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.item())
	}
	return items, nil
}

// AdminList returns one page of records across all users
func (s *Service) AdminList(ctx context.Context, params ListDomainsParams) (*DomainListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	q := s.listQuery(ctx)
	if params.Keyword != "" {
		q = q.Where("d.full_name LIKE ?", "%"+params.Keyword+"%")
	}
	if params.Status != "" {
		status, err := ParseStatus(params.Status)
		if err != nil {
			return nil, err
		}
		q = q.Where("d.status = ?", string(status))
	}
	if params.UserID != nil {
		q = q.Where("d.user_id = ?", *params.UserID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperr.Internal("failed to count domains", err)
	}

	var rows []queryRow
	offset := (params.Page - 1) * params.PageSize
	if err := q.Session(&gorm.Session{}).Select(listColumns).Order("d.id DESC").Limit(params.PageSize).Offset(offset).Scan(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to query domains", err)
	}

	items := make([]DomainListItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.item())
	}
	return &DomainListResult{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

// Get returns one record owned by userID
func (s *Service) Get(ctx context.Context, userID, id int) (*model.Domain, error) {
	return s.loadOwned(ctx, userID, id)
}
