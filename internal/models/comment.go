package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SiteID uint `gorm:"index;not null" json:"site_id"`
	UserID uint `gorm:"index;not null" json:"user_id"`

	URL        string  `gorm:"size:512;not null" json:"url"` // страница, на которой оставлен комментарий
	Text       string  `gorm:"type:text;not null" json:"text"`
	X          float64 `json:"x"` // относительные координаты на странице
	Y          float64 `json:"y"`
	Resolved   bool    `gorm:"default:false" json:"resolved"`
	Screenshot *string `gorm:"size:512" json:"screenshot,omitempty"`

	User    User          `gorm:"foreignKey:UserID" json:"-"`
	Replies []Reply       `gorm:"foreignKey:CommentID" json:"replies"`
	Views   []CommentView `gorm:"foreignKey:CommentID" json:"-"`
}

type Reply struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CommentID uint   `gorm:"index;not null" json:"comment_id"`
	UserID    uint   `gorm:"index;not null" json:"user_id"`
	Text      string `gorm:"type:text;not null" json:"text"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// CommentView — отметка «просмотрено» для пары (комментарий, пользователь).
type CommentView struct {
	CommentID uint      `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
