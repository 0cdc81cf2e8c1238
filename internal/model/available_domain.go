package model

// AvailableDomain is a root domain offered to users for subdomain registration
type AvailableDomain struct {
	BaseModel
	Domain       string      `gorm:"type:varchar(253);uniqueIndex;not null" json:"domain"`
	DNSAccountID int         `gorm:"not null;index" json:"dns_account_id"`
	IsActive     bool        `gorm:"not null" json:"is_active"`
	DNSAccount   *DNSAccount `gorm:"foreignKey:DNSAccountID" json:"dns_account,omitempty"`
}

// TableName specifies the table name for AvailableDomain model
func (AvailableDomain) TableName() string {
	return "available_domains"
}
