package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/portfolio/internal/model"
)

// SessionTTL はセッショントークンの有効期間（発行から7日）。
const SessionTTL = 7 * 24 * time.Hour

// MinSecretLength は署名鍵として受け付ける最小バイト数。
const MinSecretLength = 32

var errInvalidSessionClaims = errors.New("invalid session claims")

// SessionClaims はセッショントークンに埋め込むクレーム。
type SessionClaims struct {
	Admin model.AdminIdentity `json:"admin"`
	jwt.RegisteredClaims
}

// SessionToken は発行済みのセッショントークンを表す。
type SessionToken struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager はHS256で署名したセッショントークンの発行と検証を行う。
type TokenManager struct {
	secret  []byte
	nowFunc func() time.Time
}

// NewTokenManager はTokenManagerを生成する。
// secretがMinSecretLength未満の場合はエラーを返す。
func NewTokenManager(secret []byte) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	return &TokenManager{secret: secret, nowFunc: time.Now}, nil
}

// Issue はidentityを埋め込んだトークンを発行する。
// JWTの時刻は秒単位のため、iatは発行時刻の切り捨て、expは発行時刻の7日後の切り上げとする。
// 発行から7日未満の時刻では必ず有効になる。
func (m *TokenManager) Issue(identity model.AdminIdentity) (*SessionToken, error) {
	if !identity.Valid() {
		return nil, errInvalidSessionClaims
	}

	now := m.nowFunc()
	issuedAt := now.Truncate(time.Second)
	expiresAt := ceilSecond(now.Add(SessionTTL))
	jti := uuid.New().String()

	claims := SessionClaims{
		Admin: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &SessionToken{
		Value:     value,
		ID:        jti,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func ceilSecond(t time.Time) time.Time {
	if truncated := t.Truncate(time.Second); !truncated.Equal(t) {
		return truncated.Add(time.Second)
	}
	return t
}

// Parse はトークンの署名・アルゴリズム・有効期限を検証してクレームを返す。
// now >= exp のトークンは期限切れとして拒否される。
func (m *TokenManager) Parse(value string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.nowFunc),
	)

	token, err := parser.ParseWithClaims(value, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.ID == "" || !claims.Admin.Valid() {
		return nil, errInvalidSessionClaims
	}

	return claims, nil
}
