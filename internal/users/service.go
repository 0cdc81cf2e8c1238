package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/auth"
	"go_subdns/internal/model"
	"go_subdns/internal/settings"
)

// MaxQuota is the largest per-user subdomain quota an admin may assign
const MaxQuota = 1000

// Settings is the policy subset registration depends on
type Settings interface {
	Bool(ctx context.Context, key string) (bool, error)
	DefaultUserQuota(ctx context.Context) (int, error)
}

// InviteConsumer consumes an invite code inside the registration transaction
type InviteConsumer interface {
	Consume(ctx context.Context, tx *gorm.DB, code string) error
}

// RegisterParams represents a self-service registration
type RegisterParams struct {
	Email      string
	Password   string
	Name       string
	InviteCode string
}

// AdminParams represents the initial administrator account
type AdminParams struct {
	Email    string
	Password string
	Name     string
}

// UserItem is a user row with its subdomain count
type UserItem struct {
	model.User
	DomainCount int64 `json:"domain_count"`
}

// ListResult is a page of users
type ListResult struct {
	Items    []UserItem
	Total    int64
	Page     int
	PageSize int
}

// Service manages user accounts
type Service struct {
	db       *gorm.DB
	settings Settings
	invites  InviteConsumer
	logger   *logrus.Entry
}

// NewService creates a user service
func NewService(db *gorm.DB, settings Settings, invites InviteConsumer, logger *logrus.Entry) *Service {
	return &Service{db: db, settings: settings, invites: invites, logger: logger.WithField("component", "users")}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > 255 {
		return "", apperr.Validation("invalid email address")
	}
	return email, nil
}

func (s *Service) emailTaken(tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func insertUser(tx *gorm.DB, user *model.User) error {
	if err := tx.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("Email already registered")
		}
		return apperr.Internal("failed to create user", err)
	}
	return nil
}

// Register creates a self-service account. The very first account becomes
// an administrator and skips the invite requirement.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	allowed, err := s.settings.Bool(ctx, settings.KeyAllowRegistration)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.Forbidden("Registration is disabled")
	}

	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(params.Password); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	needInvite, err := s.settings.Bool(ctx, settings.KeyRequireInviteCode)
	if err != nil {
		return nil, err
	}
	quota, err := s.settings.DefaultUserQuota(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(params.Name),
		Role:         model.RoleUser,
		Quota:        quota,
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.emailTaken(tx, email)
		if err != nil {
			return apperr.Internal("failed to check email", err)
		}
		if taken {
			return apperr.Conflict("Email already registered")
		}

		var total int64
		if err := tx.Model(&model.User{}).Count(&total).Error; err != nil {
			return apperr.Internal("failed to count users", err)
		}
		if total == 0 {
			user.Role = model.RoleAdmin
		} else if needInvite {
			if err := s.invites.Consume(ctx, tx, params.InviteCode); err != nil {
				return err
			}
		}
		return insertUser(tx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return user, nil
}

// Login verifies an email and password pair
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Credential("invalid credentials", nil)
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperr.Credential("invalid credentials", nil)
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("Account is disabled")
	}
	return &user, nil
}

// CreateInitialAdmin creates an administrator while none exists
func (s *Service) CreateInitialAdmin(ctx context.Context, params AdminParams) (*model.User, error) {
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(params.Password); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	quota, err := s.settings.DefaultUserQuota(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(params.Name),
		Role:         model.RoleAdmin,
		Quota:        quota,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admins int64
		if err := tx.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error; err != nil {
			return apperr.Internal("failed to count admins", err)
		}
		if admins > 0 {
			return apperr.Forbidden("Administrator already exists")
		}
		taken, err := s.emailTaken(tx, email)
		if err != nil {
			return apperr.Internal("failed to check email", err)
		}
		if taken {
			return apperr.Conflict("Email already registered")
		}
		return insertUser(tx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("initial admin created")
	return user, nil
}

// Get loads a user by id
func (s *Service) Get(ctx context.Context, id int) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return &user, nil
}

// List returns a page of users with their subdomain counts
func (s *Service) List(ctx context.Context, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, apperr.Internal("failed to count users", err)
	}

	var rows []model.User
	if err := s.db.WithContext(ctx).Order("id ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}

	counts := make(map[int]int64, len(rows))
	if len(rows) > 0 {
		ids := make([]int, 0, len(rows))
		for _, u := range rows {
			ids = append(ids, u.ID)
		}
		var grouped []struct {
			UserID int
			Count  int64
		}
		if err := s.db.WithContext(ctx).Model(&model.Domain{}).
			Select("user_id, COUNT(*) AS count").
			Where("user_id IN ?", ids).
			Group("user_id").
			Scan(&grouped).Error; err != nil {
			return nil, apperr.Internal("failed to count domains", err)
		}
		for _, g := range grouped {
			counts[g.UserID] = g.Count
		}
	}

	items := make([]UserItem, 0, len(rows))
	for _, u := range rows {
		items = append(items, UserItem{User: u, DomainCount: counts[u.ID]})
	}
	return &ListResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *Service) update(ctx context.Context, id int, fields map[string]interface{}) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(fields).Error; err != nil {
		return nil, apperr.Internal("failed to update user", err)
	}
	return s.Get(ctx, id)
}

// UpdateQuota sets a user's subdomain quota
func (s *Service) UpdateQuota(ctx context.Context, id, quota int) (*model.User, error) {
	if quota < 0 || quota > MaxQuota {
		return nil, apperr.Validation("quota must be between 0 and 1000")
	}
	user, err := s.update(ctx, id, map[string]interface{}{"quota": quota})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "quota": quota}).Info("quota updated")
	return user, nil
}

// ToggleStatus flips a user between active and disabled. An admin cannot
// disable their own account.
func (s *Service) ToggleStatus(ctx context.Context, actorID, id int) (*model.User, error) {
	if actorID == id {
		return nil, apperr.Validation("Cannot change your own status")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, map[string]interface{}{"is_active": !user.IsActive})
}

// Promote grants the admin role
func (s *Service) Promote(ctx context.Context, id int) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	return s.update(ctx, id, map[string]interface{}{"role": model.RoleAdmin})
}

// Demote revokes the admin role; the last administrator is kept
func (s *Service) Demote(ctx context.Context, id int) (*model.User, error) {
	var result *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("User not found")
			}
			return apperr.Internal("failed to load user", err)
		}
		if !user.IsAdmin() {
			result = &user
			return nil
		}

		var admins int64
		if err := tx.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error; err != nil {
			return apperr.Internal("failed to count admins", err)
		}
		if admins <= 1 {
			return apperr.Conflict("Cannot demote the last administrator")
		}
		if err := tx.Model(&user).Update("role", model.RoleUser).Error; err != nil {
			return apperr.Internal("failed to update user", err)
		}
		result = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
