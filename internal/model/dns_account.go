package model

// DNSAccount is a set of provider credentials, stored encrypted
type DNSAccount struct {
	BaseModel
	Name                 string `gorm:"type:varchar(128);not null" json:"name"`
	ProviderType         string `gorm:"type:varchar(32);not null;index" json:"provider_type"`
	EncryptedCredentials string `gorm:"type:text;not null" json:"-"`
	IsActive             bool   `gorm:"not null" json:"is_active"`
	IsDefault            bool   `gorm:"not null;index" json:"is_default"`
}

// TableName specifies the table name for DNSAccount model
func (DNSAccount) TableName() string {
	return "dns_accounts"
}
