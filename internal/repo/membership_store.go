package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pinco/internal/models"
)

type MembershipStore struct{ db *gorm.DB }

func NewMembershipStore(db *gorm.DB) *MembershipStore { return &MembershipStore{db: db} }

// Create — не более одной строки на пару (user, site).
func (s *MembershipStore) Create(ctx context.Context, m *models.UserSite) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.UserSite{}).
		Where("user_id = ? AND site_id = ?", m.UserID, m.SiteID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return s.db.WithContext(ctx).Create(m).Error
}

// ListByUser — все членства пользователя вместе с сайтами.
// Пустой список — нормальное состояние нового пользователя.
func (s *MembershipStore) ListByUser(ctx context.Context, userID uint) ([]models.UserSite, error) {
	var out []models.UserSite
	err := s.db.WithContext(ctx).Preload("Site").
		Where("user_id = ?", userID).Find(&out).Error
	return out, err
}

func (s *MembershipStore) Get(ctx context.Context, userID, siteID uint) (*models.UserSite, error) {
	var m models.UserSite
	err := s.db.WithContext(ctx).Preload("Site").
		Where("user_id = ? AND site_id = ?", userID, siteID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetByInviteCode — строка должна совпасть по всем трём полям сразу.
func (s *MembershipStore) GetByInviteCode(ctx context.Context, userID, siteID uint, code string) (*models.UserSite, error) {
	var m models.UserSite
	err := s.db.WithContext(ctx).Preload("Site").
		Where("user_id = ? AND site_id = ? AND invite_code = ?", userID, siteID, code).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// SetInviteCode перезаписывает код; выданные ранее инвайты тем самым
// перестают проходить проверку.
func (s *MembershipStore) SetInviteCode(ctx context.Context, userID, siteID uint, code string) error {
	res := s.db.WithContext(ctx).Model(&models.UserSite{}).
		Where("user_id = ? AND site_id = ?", userID, siteID).
		Update("invite_code", code)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearInviteCode идемпотентен: повторный вызов оставляет то же NULL-состояние.
func (s *MembershipStore) ClearInviteCode(ctx context.Context, userID, siteID uint) error {
	return s.db.WithContext(ctx).Model(&models.UserSite{}).
		Where("user_id = ? AND site_id = ?", userID, siteID).
		Update("invite_code", nil).Error
}

// UpdateRoles проверяет наличие строки отдельным запросом: на MySQL
// Update с неизменившимися значениями даёт RowsAffected == 0, и это
// не «членства нет».
func (s *MembershipStore) UpdateRoles(ctx context.Context, userID, siteID uint, roles models.RoleList) error {
	if _, err := s.Get(ctx, userID, siteID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.UserSite{}).
		Where("user_id = ? AND site_id = ?", userID, siteID).
		Update("roles", roles).Error
}

func (s *MembershipStore) Delete(ctx context.Context, userID, siteID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND site_id = ?", userID, siteID).
		Delete(&models.UserSite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
