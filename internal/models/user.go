package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email        string   `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username     string   `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	Active       bool     `gorm:"default:true" json:"active"`
	Roles        RoleList `gorm:"size:255" json:"roles"`

	// Постоянный секрет для входа по ссылке; expires нигде не ставится —
	// секрет живёт до явного отзыва.
	SecretToken        *string    `gorm:"index;size:64" json:"-"`
	SecretTokenExpires *time.Time `json:"-"`

	Memberships []UserSite `gorm:"foreignKey:UserID" json:"-"`
}
