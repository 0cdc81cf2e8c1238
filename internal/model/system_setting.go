package model

// SystemSetting is a key-value policy switch editable by admins
type SystemSetting struct {
	BaseModel
	Key         string `gorm:"column:setting_key;type:varchar(64);uniqueIndex;not null" json:"key"`
	Value       string `gorm:"type:varchar(255);not null" json:"value"`
	Description string `gorm:"type:varchar(255)" json:"description"`
}

// TableName specifies the table name for SystemSetting model
func (SystemSetting) TableName() string {
	return "system_settings"
}
