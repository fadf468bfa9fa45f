package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pinco/internal/models"
	"pinco/internal/repo"
)

var ErrInvalidInvite = errors.New("invalid invite token")

const inviteCodeLength = 13

// InviteClaims — подписанная часть приглашения. Код дублируется в строке
// членства: валидна только пара «подпись + живой код».
type InviteClaims struct {
	UserID uint   `json:"user_id"`
	SiteID uint   `json:"site_id"`
	Code   string `json:"code"`
	jwt.RegisteredClaims
}

type inviteMemberships interface {
	Get(ctx context.Context, userID, siteID uint) (*models.UserSite, error)
	GetByInviteCode(ctx context.Context, userID, siteID uint, code string) (*models.UserSite, error)
	SetInviteCode(ctx context.Context, userID, siteID uint, code string) error
	ClearInviteCode(ctx context.Context, userID, siteID uint) error
}

type inviteUsers interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Invites выпускает и проверяет приглашения на сайт.
type Invites struct {
	secret      []byte
	ttl         time.Duration
	memberships inviteMemberships
	users       inviteUsers
}

func NewInvites(secret string, ttl time.Duration, memberships inviteMemberships, users inviteUsers) *Invites {
	return &Invites{secret: []byte(secret), ttl: ttl, memberships: memberships, users: users}
}

// GenerateCode пишет свежий код в членство. Перезапись кода делает
// негодными все ранее подписанные инвайты этой пары.
func (iv *Invites) GenerateCode(ctx context.Context, userID, siteID uint) (string, error) {
	code := randString(inviteCodeLength)
	if err := iv.memberships.SetInviteCode(ctx, userID, siteID, code); err != nil {
		return "", err
	}
	return code, nil
}

// IssueToken подписывает {user, site, code}; действующий код
// переиспользуется, иначе генерируется новый.
func (iv *Invites) IssueToken(ctx context.Context, userID, siteID uint) (string, error) {
	m, err := iv.memberships.Get(ctx, userID, siteID)
	if err != nil {
		return "", err
	}
	code := ""
	if m.InviteCode != nil {
		code = *m.InviteCode
	} else {
		if code, err = iv.GenerateCode(ctx, userID, siteID); err != nil {
			return "", err
		}
	}

	now := time.Now().UTC()
	claims := &InviteClaims{
		UserID: userID,
		SiteID: siteID,
		Code:   code,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(iv.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(iv.secret)
}

// Validate: сначала подпись и срок, затем сверка с живой строкой членства
// по всем трём полям. Устаревший, но корректно подписанный инвайт
// отваливается сразу после ротации кода.
func (iv *Invites) Validate(ctx context.Context, raw string) (*models.UserSite, *models.User, error) {
	parsed, err := jwt.ParseWithClaims(raw, &InviteClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return iv.secret, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInvite, err)
	}
	claims, ok := parsed.Claims.(*InviteClaims)
	if !ok || !parsed.Valid || claims.Code == "" {
		return nil, nil, ErrInvalidInvite
	}

	m, err := iv.memberships.GetByInviteCode(ctx, claims.UserID, claims.SiteID, claims.Code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidInvite
		}
		return nil, nil, err
	}
	u, err := iv.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidInvite
		}
		return nil, nil, err
	}
	return m, u, nil
}

// Consume гасит код после принятия приглашения.
func (iv *Invites) Consume(ctx context.Context, userID, siteID uint) error {
	return iv.memberships.ClearInviteCode(ctx, userID, siteID)
}

// Revoke идемпотентен: повторный вызов оставляет тот же NULL-код.
func (iv *Invites) Revoke(ctx context.Context, userID, siteID uint) error {
	return iv.memberships.ClearInviteCode(ctx, userID, siteID)
}
