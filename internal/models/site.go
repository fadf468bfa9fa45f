package models

import (
	"time"

	"gorm.io/gorm"
)

type Site struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name    string `gorm:"size:255;not null" json:"name"`
	License string `gorm:"size:255" json:"license"`
	Domain  string `gorm:"uniqueIndex;size:255;not null" json:"domain"` // hostname для сопоставления Origin
	URL     string `gorm:"size:512" json:"url"`
	Active  bool   `gorm:"default:true" json:"active"`
}
