package models

import "time"

// UserSite — членство пользователя на сайте. Одна строка на пару (user, site).
// Непустой InviteCode означает неподтверждённое приглашение.
type UserSite struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	SiteID    uint      `gorm:"primaryKey;autoIncrement:false" json:"site_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Roles      RoleList `gorm:"size:255" json:"roles"`
	InviteCode *string  `gorm:"size:32" json:"-"`

	Site Site `gorm:"foreignKey:SiteID" json:"site"`
}

// Pending — приглашение выдано, но ещё не принято.
func (m *UserSite) Pending() bool { return m.InviteCode != nil }

// CanCollaborate — право работать с комментариями сайта.
// Сайтовый админ включает возможности коллаборатора.
func (m *UserSite) CanCollaborate() bool {
	return m.Roles.Contains(SiteRoleCollaborator) || m.Roles.Contains(SiteRoleAdmin)
}
