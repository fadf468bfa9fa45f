package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pinco/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims — полезная нагрузка bearer-токена.
type TokenClaims struct {
	Email string          `json:"email"`
	Roles models.RoleList `json:"roles"`
	jwt.RegisteredClaims
}

// UserID парсится из subject; невалидный subject отсекается в Verify.
func (c *TokenClaims) UserID() uint {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return uint(id)
}

// TokenCodec подписывает/проверяет bearer-токен {id, email, roles}.
// Чистая функция от секрета и TTL, состояния не держит.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// TTL — срок жизни выдаваемых токенов (нужен для maxAge cookie).
func (tc *TokenCodec) TTL() time.Duration { return tc.ttl }

// Sign выдаёт подписанный токен; для валидного пользователя не ошибается.
func (tc *TokenCodec) Sign(u *models.User) string {
	now := time.Now().UTC()
	claims := &TokenClaims{
		Email: u.Email,
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(tc.secret)
	if err != nil {
		// HS256 над []byte не ошибается; оставляем панику на случай порчи кода
		panic(fmt.Sprintf("token sign: %v", err))
	}
	return signed
}

// Verify проверяет подпись и срок, приводит subject к числовому id.
func (tc *TokenCodec) Verify(raw string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	// защитный парсинг subject: без числового id токен бесполезен
	if _, perr := strconv.ParseUint(claims.Subject, 10, 64); perr != nil || claims.Subject == "" {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return claims, nil
}
