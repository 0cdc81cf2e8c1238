package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go_subdns/internal/blocklist"
	"go_subdns/internal/dns"
	"go_subdns/internal/model"
	"go_subdns/internal/settings"
)

// Seed writes the provider catalog, default settings and reserved labels.
// Safe to run on every start: existing rows are left alone, except that
// provider credential schemas are refreshed from code.
func Seed(ctx context.Context, db *gorm.DB, logger *logrus.Entry) error {
	if err := seedProviders(ctx, db); err != nil {
		return err
	}
	if err := seedSettings(ctx, db); err != nil {
		return err
	}
	seeded, err := seedBlocklist(ctx, db)
	if err != nil {
		return err
	}

	logger.WithField("blocked_subdomains", seeded).Info("seed data ensured")
	return nil
}

func seedProviders(ctx context.Context, db *gorm.DB) error {
	for _, d := range dns.Descriptors() {
		// 条件需用结构体，字符串条件不会写入新建的行
		row := model.DNSProvider{}
		err := db.WithContext(ctx).
			Where(model.DNSProvider{Name: string(d.Type)}).
			Attrs(model.DNSProvider{DisplayName: d.DisplayName, IsActive: true}).
			Assign(model.DNSProvider{ConfigSchema: datatypes.JSON(d.Schema())}).
			FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("failed to seed provider %s: %w", d.Type, err)
		}
	}
	return nil
}

func seedSettings(ctx context.Context, db *gorm.DB) error {
	for _, def := range settings.Defaults() {
		row := model.SystemSetting{}
		err := db.WithContext(ctx).
			Where(model.SystemSetting{Key: def.Key}).
			Attrs(model.SystemSetting{Value: def.Value, Description: def.Description}).
			FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", def.Key, err)
		}
	}
	return nil
}

// 仅在表为空时写入，管理员删除的条目不会被重新加回
func seedBlocklist(ctx context.Context, db *gorm.DB) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.BlockedSubdomain{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count blocked subdomains: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	entries := blocklist.Defaults()
	if err := db.WithContext(ctx).Create(&entries).Error; err != nil {
		return 0, fmt.Errorf("failed to seed blocked subdomains: %w", err)
	}
	return len(entries), nil
}
