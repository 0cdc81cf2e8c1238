package invitecode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/model"
)

const codeLength = 12

// CreateParams represents parameters for creating an invite code
type CreateParams struct {
	Code        string
	Description string
	MaxUses     int
	ExpiresAt   *time.Time
	CreatedBy   int
}

// UpdateParams represents optional changes to an invite code
type UpdateParams struct {
	Description *string
	IsActive    *bool
}

// Service manages registration invite codes
type Service struct {
	db     *gorm.DB
	logger *logrus.Entry
	now    func() time.Time
}

// NewService creates an invite code service
func NewService(db *gorm.DB, logger *logrus.Entry) *Service {
	return &Service{db: db, logger: logger.WithField("component", "invitecode"), now: time.Now}
}

// generateCode returns an upper-case random code
func generateCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:codeLength])
}

// Create stores a new code; a random one is generated when none is supplied
func (s *Service) Create(ctx context.Context, params CreateParams) (*model.InviteCode, error) {
	code := strings.ToUpper(strings.TrimSpace(params.Code))
	if code == "" {
		code = generateCode()
	}
	if len(code) > 64 {
		return nil, apperr.Validation("invite code must be at most 64 characters")
	}

	maxUses := params.MaxUses
	if maxUses == 0 {
		maxUses = 1
	}
	if maxUses < 1 || maxUses > 10000 {
		return nil, apperr.Validation("max uses must be between 1 and 10000")
	}
	if params.ExpiresAt != nil && !params.ExpiresAt.After(s.now()) {
		return nil, apperr.Validation("expiry must be in the future")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.InviteCode{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return nil, apperr.Internal("failed to check invite code", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("Invite code already exists")
	}

	row := &model.InviteCode{
		Code:        code,
		Description: strings.TrimSpace(params.Description),
		MaxUses:     maxUses,
		UsedCount:   0,
		IsActive:    true,
		ExpiresAt:   params.ExpiresAt,
		CreatedBy:   params.CreatedBy,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Invite code already exists")
		}
		return nil, apperr.Internal("failed to create invite code", err)
	}

	s.logger.WithFields(logrus.Fields{"invite_id": row.ID, "max_uses": maxUses}).Info("invite code created")
	return row, nil
}

// List returns every invite code, newest first
func (s *Service) List(ctx context.Context) ([]model.InviteCode, error) {
	var rows []model.InviteCode
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list invite codes", err)
	}
	return rows, nil
}

// Update changes the description or active flag
func (s *Service) Update(ctx context.Context, id int, params UpdateParams) (*model.InviteCode, error) {
	var row model.InviteCode
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Invite code not found")
		}
		return nil, apperr.Internal("failed to load invite code", err)
	}

	updates := map[string]interface{}{}
	if params.Description != nil {
		updates["description"] = strings.TrimSpace(*params.Description)
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}
	if len(updates) == 0 {
		return &row, nil
	}
	if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("failed to update invite code", err)
	}
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, apperr.Internal("failed to reload invite code", err)
	}
	return &row, nil
}

// Delete removes an invite code
func (s *Service) Delete(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&model.InviteCode{}, id)
	if res.Error != nil {
		return apperr.Internal("failed to delete invite code", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Invite code not found")
	}
	return nil
}

// Consume uses one slot of code inside tx. The increment is a single
// conditional UPDATE so concurrent registrations cannot overrun max_uses.
func (s *Service) Consume(ctx context.Context, tx *gorm.DB, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return apperr.Validation("Invite code is required")
	}
	now := s.now()

	res := tx.WithContext(ctx).Model(&model.InviteCode{}).
		Where("code = ? AND is_active = ? AND used_count < max_uses AND (expires_at IS NULL OR expires_at > ?)", code, true, now).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return apperr.Internal("failed to consume invite code", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var row model.InviteCode
	if err := tx.WithContext(ctx).Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("Invalid invite code")
		}
		return apperr.Internal("failed to load invite code", err)
	}
	switch {
	case !row.IsActive:
		return apperr.Validation("Invite code is disabled")
	case row.ExpiresAt != nil && !row.ExpiresAt.After(now):
		return apperr.Validation("Invite code has expired")
	default:
		return apperr.Validation("Invite code has been used up")
	}
}
