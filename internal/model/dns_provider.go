package model

import "gorm.io/datatypes"

// DNSProvider is the catalog entry for a supported provider type.
// ConfigSchema describes the credential fields the provider expects.
type DNSProvider struct {
	BaseModel
	Name         string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"name"`
	DisplayName  string         `gorm:"type:varchar(64);not null" json:"display_name"`
	ConfigSchema datatypes.JSON `gorm:"type:json" json:"config_schema"`
	IsActive     bool           `gorm:"not null" json:"is_active"`
}

// TableName specifies the table name for DNSProvider model
func (DNSProvider) TableName() string {
	return "dns_providers"
}
