package apilog

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/model"
)

// ListParams filters the admin log view
type ListParams struct {
	Page     int
	PageSize int
	UserID   *int
}

// ListResult is a page of request logs
type ListResult struct {
	Items    []model.APILog
	Total    int64
	Page     int
	PageSize int
}

// Service records and lists authenticated API requests
type Service struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewService creates an api log service
func NewService(db *gorm.DB, logger *logrus.Entry) *Service {
	return &Service{db: db, logger: logger.WithField("component", "apilog")}
}

// Record stores one request. Failures are logged and swallowed so request
// handling never depends on the audit table.
func (s *Service) Record(ctx context.Context, entry *model.APILog) {
	if len(entry.Path) > 255 {
		entry.Path = entry.Path[:255]
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.logger.WithError(err).WithField("path", entry.Path).Warn("failed to record api log")
	}
}

// List returns a page of logs, newest first
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page, pageSize := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	q := s.db.WithContext(ctx).Model(&model.APILog{})
	if params.UserID != nil {
		q = q.Where("user_id = ?", *params.UserID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, apperr.Internal("failed to count api logs", err)
	}
	var rows []model.APILog
	if err := q.Session(&gorm.Session{}).Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list api logs", err)
	}
	return &ListResult{Items: rows, Total: total, Page: page, PageSize: pageSize}, nil
}
