package model

import "time"

// InviteCode gates registration when invite codes are required
type InviteCode struct {
	BaseModel
	Code        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Description string     `gorm:"type:varchar(255)" json:"description"`
	MaxUses     int        `gorm:"not null" json:"max_uses"`
	UsedCount   int        `gorm:"not null" json:"used_count"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedBy   int        `gorm:"not null" json:"created_by"`
}

// TableName specifies the table name for InviteCode model
func (InviteCode) TableName() string {
	return "invite_codes"
}
