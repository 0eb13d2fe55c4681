package model

import "time"

// DefaultDirectoryGroup is used when no notification config has been saved yet.
const DefaultDirectoryGroup = "IT_Governance"

// NotificationConfig is a single-row table holding who receives low-stock mail.
type NotificationConfig struct {
	ID                   int     `gorm:"primaryKey"`
	DirectoryGroup       string  `gorm:"not null"`
	AdditionalRecipients *string // comma-separated
	UpdatedAt            time.Time
}

func (NotificationConfig) TableName() string { return "notification_configs" }
