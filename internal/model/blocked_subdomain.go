package model

// BlockedSubdomain is an administrator-managed reserved label
type BlockedSubdomain struct {
	BaseModel
	Subdomain string `gorm:"type:varchar(63);uniqueIndex;not null" json:"subdomain"`
	Reason    string `gorm:"type:varchar(255)" json:"reason"`
	IsActive  bool   `gorm:"not null" json:"is_active"`
}

// TableName specifies the table name for BlockedSubdomain model
func (BlockedSubdomain) TableName() string {
	return "blocked_subdomains"
}
