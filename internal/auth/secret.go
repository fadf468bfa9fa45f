package auth

import (
	"context"

	"pinco/internal/models"
)

// Длина секрета — константа политики, не протокола.
const secretLength = 24

type secretStore interface {
	SetSecret(ctx context.Context, userID uint, secret string) error
	GetActiveBySecret(ctx context.Context, secret string) (*models.User, error)
	ClearSecret(ctx context.Context, userID uint) error
}

// SecretTokens — постоянные секреты для входа по ссылке (без пароля).
// Один активный секрет на пользователя; перевыпуск затирает прежний.
type SecretTokens struct {
	store secretStore
}

func NewSecretTokens(store secretStore) *SecretTokens {
	return &SecretTokens{store: store}
}

// Issue выдаёт новый секрет и сохраняет его на пользователе.
// Срок жизни не ставится: секрет живёт до Revoke.
func (s *SecretTokens) Issue(ctx context.Context, userID uint) (string, error) {
	secret := randString(secretLength)
	if err := s.store.SetSecret(ctx, userID, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// Validate: nil,nil — секрет неизвестен либо владелец неактивен.
// Это отказ аутентификации, а не ошибка хранилища.
func (s *SecretTokens) Validate(ctx context.Context, secret string) (*models.User, error) {
	return s.store.GetActiveBySecret(ctx, secret)
}

func (s *SecretTokens) Revoke(ctx context.Context, userID uint) error {
	return s.store.ClearSecret(ctx, userID)
}
