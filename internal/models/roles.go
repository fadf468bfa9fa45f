package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Глобальные роли аккаунта (независимы от сайтов).
type Role string

const (
	RoleRoot      Role = "root"
	RoleAdmin     Role = "admin"
	RoleSiteOwner Role = "site_owner"
	RoleCommenter Role = "commenter"
)

// Роли в рамках членства на сайте.
const (
	SiteRoleCollaborator Role = "collaborator"
	SiteRoleAdmin        Role = "admin"
)

// RoleList хранится в БД одной строкой через запятую.
// Порядок сохраняется, дубликаты не схлопываются.
type RoleList []Role

func (l RoleList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "", nil
	}
	parts := make([]string, len(l))
	for i, r := range l {
		parts[i] = string(r)
	}
	return strings.Join(parts, ","), nil
}

func (l *RoleList) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into RoleList", src)
	}
	if s == "" {
		*l = nil
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(RoleList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, Role(p))
		}
	}
	*l = out
	return nil
}

// Contains — точное вхождение роли в список.
func (l RoleList) Contains(r Role) bool {
	for _, have := range l {
		if have == r {
			return true
		}
	}
	return false
}

// Intersects — пересечение с требуемым набором (логическое OR).
func (l RoleList) Intersects(required []Role) bool {
	for _, r := range required {
		if l.Contains(r) {
			return true
		}
	}
	return false
}
