package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/model"
)

// Setting keys
const (
	KeyDefaultDomainStatus = "default_domain_status"
	KeyDefaultUserQuota    = "default_user_quota"
	KeyAllowRegistration   = "allow_registration"
	KeyRequireInviteCode   = "require_invite_code"
	KeyLoginRateLimit      = "login_rate_limit"
	KeyRegisterRateLimit   = "register_rate_limit"
)

type definition struct {
	defaultValue string
	description  string
	validate     func(string) error
}

var definitions = map[string]definition{
	KeyDefaultDomainStatus: {
		defaultValue: string(model.DomainStatusActive),
		description:  "新创建域名的默认状态：active(正常，直接添加DNS记录), pending(待处理，仅保存到数据库)",
		validate:     oneOf(string(model.DomainStatusActive), string(model.DomainStatusPending)),
	},
	KeyDefaultUserQuota: {
		defaultValue: "10",
		description:  "新用户默认域名配额",
		validate:     intRange(0, 1000),
	},
	KeyAllowRegistration: {
		defaultValue: "true",
		description:  "是否允许用户注册：true(允许), false(禁止)",
		validate:     oneOf("true", "false"),
	},
	KeyRequireInviteCode: {
		defaultValue: "false",
		description:  "是否需要邀请码注册：true(需要), false(不需要)",
		validate:     oneOf("true", "false"),
	},
	KeyLoginRateLimit: {
		defaultValue: "10",
		description:  "登录限流：每小时最大尝试次数",
		validate:     intRange(1, 10000),
	},
	KeyRegisterRateLimit: {
		defaultValue: "5",
		description:  "注册限流：每小时最大尝试次数",
		validate:     intRange(1, 10000),
	},
}

// Defaults returns the seed rows for every known setting
func Defaults() []model.SystemSetting {
	keys := []string{
		KeyDefaultDomainStatus, KeyDefaultUserQuota, KeyAllowRegistration,
		KeyRequireInviteCode, KeyLoginRateLimit, KeyRegisterRateLimit,
	}
	out := make([]model.SystemSetting, 0, len(keys))
	for _, k := range keys {
		def := definitions[k]
		out = append(out, model.SystemSetting{Key: k, Value: def.defaultValue, Description: def.description})
	}
	return out
}

func oneOf(allowed ...string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

func intRange(min, max int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < min || n > max {
			return fmt.Errorf("must be an integer between %d and %d", min, max)
		}
		return nil
	}
}

// Service reads and updates system settings
type Service struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewService creates a settings service
func NewService(db *gorm.DB, logger *logrus.Entry) *Service {
	return &Service{db: db, logger: logger.WithField("component", "settings")}
}

// Get returns the stored value, or the built-in default when the row is missing
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	var row model.SystemSetting
	err := s.db.WithContext(ctx).Where("setting_key = ?", key).First(&row).Error
	if err == nil {
		return row.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if def, ok := definitions[key]; ok {
			return def.defaultValue, nil
		}
		return "", apperr.NotFound("setting not found")
	}
	return "", apperr.Internal("failed to read setting", err)
}

// List returns every stored setting
func (s *Service) List(ctx context.Context) ([]model.SystemSetting, error) {
	var rows []model.SystemSetting
	if err := s.db.WithContext(ctx).Order("setting_key ASC").Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list settings", err)
	}
	return rows, nil
}

// Update validates and stores a setting value
func (s *Service) Update(ctx context.Context, key, value string) (*model.SystemSetting, error) {
	def, ok := definitions[key]
	if !ok {
		return nil, apperr.Validation("unknown setting: " + key)
	}
	value = strings.TrimSpace(value)
	if err := def.validate(value); err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid value for %s: %v", key, err))
	}

	row := model.SystemSetting{Key: key}
	err := s.db.WithContext(ctx).
		Where("setting_key = ?", key).
		Attrs(model.SystemSetting{Description: def.description}).
		Assign(model.SystemSetting{Value: value}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, apperr.Internal("failed to update setting", err)
	}

	s.logger.WithFields(logrus.Fields{"key": key, "value": value}).Info("setting updated")
	return &row, nil
}

// String reads a setting, falling back to its default on invalid stored values
func (s *Service) String(ctx context.Context, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if def, ok := definitions[key]; ok && def.validate(v) != nil {
		s.logger.WithFields(logrus.Fields{"key": key, "value": v}).Warn("invalid stored setting, using default")
		return def.defaultValue, nil
	}
	return v, nil
}

// Bool reads a true/false setting
func (s *Service) Bool(ctx context.Context, key string) (bool, error) {
	v, err := s.String(ctx, key)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// Int reads an integer setting
func (s *Service) Int(ctx context.Context, key string) (int, error) {
	v, err := s.String(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Internal("setting is not an integer", err)
	}
	return n, nil
}

// DefaultDomainStatus is the status a new subdomain starts in
func (s *Service) DefaultDomainStatus(ctx context.Context) (model.DomainStatus, error) {
	v, err := s.String(ctx, KeyDefaultDomainStatus)
	if err != nil {
		return "", err
	}
	return model.DomainStatus(v), nil
}

// DefaultUserQuota is the quota assigned at registration
func (s *Service) DefaultUserQuota(ctx context.Context) (int, error) {
	return s.Int(ctx, KeyDefaultUserQuota)
}
