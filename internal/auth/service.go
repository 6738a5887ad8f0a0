// Package auth は管理者のパスワード認証とセッショントークンの管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/repository"
)

// Service は管理者認証に関するビジネスロジックを提供する。
// revocationsとlimiterはnilでもよい（Redis未設定時）。
type Service struct {
	admins      repository.AdminRepository
	hasher      *PasswordHasher
	tokens      *TokenManager
	revocations RevocationStore
	limiter     LoginLimiter
}

// NewService はServiceを生成する。
func NewService(
	admins repository.AdminRepository,
	hasher *PasswordHasher,
	tokens *TokenManager,
	revocations RevocationStore,
	limiter LoginLimiter,
) *Service {
	return &Service{
		admins:      admins,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		limiter:     limiter,
	}
}

// Authenticate はメールアドレスとパスワードを照合し、管理者のidentityを返す。
// 未登録のメールアドレスとパスワード不一致はどちらもmodel.ErrInvalidCredentialsを返す。
// ウィンドウ内の試行が上限を超えた場合はパスワードを照合せずmodel.ErrTooManyAttemptsを返す。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.AdminIdentity, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx, email); err != nil {
			if errors.Is(err, model.ErrTooManyAttempts) {
				return nil, err
			}
			slog.Warn("login limiter acquire failed", slog.String("error", err.Error()))
		}
	}

	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	if admin == nil {
		s.hasher.CompareDummy(password)
		return nil, model.ErrInvalidCredentials
	}
	if !s.hasher.Compare(admin.PasswordHash, password) {
		return nil, model.ErrInvalidCredentials
	}

	identity := admin.Identity()
	if !identity.Valid() {
		return nil, fmt.Errorf("stored admin %q has an incomplete identity", admin.ID)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			slog.Warn("login limiter reset failed", slog.String("error", err.Error()))
		}
	}

	return &identity, nil
}

// IssueSession はidentityに対するセッショントークンを発行する。
func (s *Service) IssueSession(identity model.AdminIdentity) (*SessionToken, error) {
	return s.tokens.Issue(identity)
}

// Login は認証とセッション発行をまとめて行う。
func (s *Service) Login(ctx context.Context, email, password string) (*model.AdminIdentity, *SessionToken, error) {
	identity, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	token, err := s.IssueSession(*identity)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session: %w", err)
	}

	slog.Info("admin logged in", slog.String("admin_id", identity.ID))
	return identity, token, nil
}

// ValidateSession はトークンを検証し、有効ならidentityを返す。
// 署名不正・期限切れ・形式不正・失効済みのいずれの場合もnilを返し、エラーは返さない。
// 失効ストアに問い合わせできない場合も無効として扱う。
func (s *Service) ValidateSession(ctx context.Context, token string) *model.AdminIdentity {
	if token == "" {
		return nil
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			slog.Warn("revocation lookup failed", slog.String("error", err.Error()))
			return nil
		}
		if revoked {
			return nil
		}
	}

	identity := claims.Admin
	return &identity
}

// RevokeSession はトークンを失効させる。
// 失効ストアが未設定の場合、サーバー側では何もしない（Cookieの削除のみで失効扱い）。
// 既に無効なトークンは何もせず成功扱いとする。
func (s *Service) RevokeSession(ctx context.Context, token string) error {
	if s.revocations == nil || token == "" {
		return nil
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}

	remaining := claims.ExpiresAt.Time.Sub(s.tokens.nowFunc())
	if err := s.revocations.Revoke(ctx, claims.ID, remaining); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	slog.Info("admin logged out", slog.String("admin_id", claims.Admin.ID))
	return nil
}
