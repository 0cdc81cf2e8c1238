package model

import "time"

// APILog records one authenticated API request
type APILog struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *int      `gorm:"index" json:"user_id"`
	Method     string    `gorm:"type:varchar(8);not null" json:"method"`
	Path       string    `gorm:"type:varchar(255);not null" json:"path"`
	Status     int       `gorm:"not null" json:"status"`
	IP         string    `gorm:"type:varchar(64)" json:"ip"`
	DurationMs int64     `json:"duration_ms"`
	RequestID  string    `gorm:"type:varchar(64);index" json:"request_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for APILog model
func (APILog) TableName() string {
	return "api_logs"
}
