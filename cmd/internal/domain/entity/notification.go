package entity

import "time"

type Notification struct {
	ID          int    `gorm:"primaryKey"`
	RecipientID int    `gorm:"not null;index"` // References: users(id)
	Content     string `gorm:"not null"`
	Read        bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
