package models

import "time"

type Link struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Label       string    `gorm:"uniqueIndex;not null" json:"label"`
	URL         string    `gorm:"not null" json:"url"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      string    `gorm:"not null;index" json:"author_id"`
}
