package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"pinco/internal/models"
)

type UserStore struct{ db *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", u.Email, u.Username).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetActiveByEmail — только активные аккаунты; для логина.
func (s *UserStore) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND active", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetActiveByUsernames — для резолва @упоминаний.
func (s *UserStore) GetActiveByUsernames(ctx context.Context, names []string) ([]models.User, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var out []models.User
	err := s.db.WithContext(ctx).Where("username IN ? AND active", names).Find(&out).Error
	return out, err
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := s.db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// Update — e-mail и username не должны занять чужие; проверка та же,
// что и в Create, но без собственной строки.
func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("(email = ? OR username = ?) AND id <> ?", u.Email, u.Username, u.ID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return s.db.WithContext(ctx).Save(u).Error
}

// Delete запрещён для собственного аккаунта и пока на пользователя
// ссылается контент.
func (s *UserStore) Delete(ctx context.Context, id, actorID uint) error {
	if id == actorID {
		return ErrSelfDelete
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("user_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		if err := s.db.WithContext(ctx).Model(&models.Reply{}).Where("user_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
	}
	if n > 0 {
		return ErrHasContent
	}
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- секрет для входа по ссылке ----

// SetSecret перезаписывает секрет целиком (last-writer-wins).
func (s *UserStore) SetSecret(ctx context.Context, userID uint, secret string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"secret_token": secret, "secret_token_expires": nil})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) ClearSecret(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"secret_token": nil, "secret_token_expires": nil}).Error
}

// GetActiveBySecret: nil,nil когда секрет неизвестен или владелец неактивен —
// для вызывающего это отказ аутентификации, не ошибка системы.
func (s *UserStore) GetActiveBySecret(ctx context.Context, secret string) (*models.User, error) {
	if secret == "" {
		return nil, nil
	}
	var u models.User
	err := s.db.WithContext(ctx).Where("secret_token = ? AND active", secret).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
