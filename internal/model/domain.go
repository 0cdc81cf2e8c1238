package model

// DomainStatus represents the lifecycle status of a subdomain record
type DomainStatus string

const (
	DomainStatusPending  DomainStatus = "pending"
	DomainStatusActive   DomainStatus = "active"
	DomainStatusRejected DomainStatus = "rejected"
)

// Record types accepted for subdomains
const (
	RecordTypeA     = "A"
	RecordTypeAAAA  = "AAAA"
	RecordTypeCNAME = "CNAME"
)

// DefaultRecordTTL is used when the caller does not supply a TTL
const DefaultRecordTTL = 300

// Domain is a user-owned subdomain record under an available domain
type Domain struct {
	BaseModel
	UserID            int              `gorm:"not null;index" json:"user_id"`
	AvailableDomainID int              `gorm:"not null;uniqueIndex:uk_domains_sub_avail,priority:2" json:"available_domain_id"`
	DNSAccountID      int              `gorm:"not null;index" json:"dns_account_id"`
	Subdomain         string           `gorm:"type:varchar(191);not null;uniqueIndex:uk_domains_sub_avail,priority:1" json:"subdomain"`
	FullName          string           `gorm:"type:varchar(255);not null" json:"full_name"`
	RecordType        string           `gorm:"type:varchar(8);not null" json:"record_type"`
	Value             string           `gorm:"type:varchar(255);not null" json:"value"`
	TTL               int              `gorm:"not null" json:"ttl"`
	Proxied           bool             `gorm:"not null" json:"proxied"`
	Status            DomainStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	ProviderRecordID  *string          `gorm:"type:varchar(128)" json:"provider_record_id"`
	LastError         string           `gorm:"type:varchar(512)" json:"last_error,omitempty"`
	Version           int              `gorm:"not null" json:"-"`
	AvailableDomain   *AvailableDomain `gorm:"foreignKey:AvailableDomainID" json:"available_domain,omitempty"`
	User              *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for Domain model
func (Domain) TableName() string {
	return "domains"
}

// HasRemoteRecord reports whether the record exists at the provider
func (d *Domain) HasRemoteRecord() bool {
	return d.ProviderRecordID != nil && *d.ProviderRecordID != ""
}
