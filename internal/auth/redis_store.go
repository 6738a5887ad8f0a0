package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/portfolio/internal/model"
)

// ErrStoreUnavailable はRedisへのアクセスに失敗した場合に返される。
var ErrStoreUnavailable = errors.New("session store unavailable")

const (
	revokedKeyPrefix      = "portfolio:session:revoked:"
	loginAttemptKeyPrefix = "portfolio:login:attempts:"
)

// RevocationStore は失効済みトークンのjtiを保持する。
type RevocationStore interface {
	// Revoke はjtiをttlの間失効済みとして記録する。
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked はjtiが失効済みかを返す。
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// LoginLimiter はメールアドレス単位のログイン試行回数を管理する。
type LoginLimiter interface {
	// Acquire は試行を1回分記録し、ウィンドウ内の試行が上限を超えた場合に
	// model.ErrTooManyAttemptsを返す。記録と判定は同じカウンタ値で行う。
	Acquire(ctx context.Context, email string) error
	// Reset は試行回数をクリアする。ログイン成功時に呼ぶ。
	Reset(ctx context.Context, email string) error
}

// RedisRevocationStore はRedisを使用したRevocationStore。
// キーのTTLはトークンの残り有効期間に合わせるため、期限切れ後は自然に消える。
type RedisRevocationStore struct {
	client redis.UniversalClient
}

// NewRedisRevocationStore はRedisRevocationStoreを生成する。
func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// Revoke はjtiをttlの間失効済みとして記録する。ttlが0以下の場合は何もしない。
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked はjtiが失効済みかを返す。
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// RedisLoginLimiter はRedisの固定ウィンドウカウンタによるLoginLimiter。
// ウィンドウの最初の試行でTTLを設定し、期限が来るとカウンタは消える。
// 成功したログインはResetでカウンタを消すため、実質的に失敗回数を数える。
type RedisLoginLimiter struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
}

// NewRedisLoginLimiter はRedisLoginLimiterを生成する。
func NewRedisLoginLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Acquire は試行を1回分記録し、上限を超えていればmodel.ErrTooManyAttemptsを返す。
// INCRとPTTLを1つのトランザクションで実行し、INCRの結果で判定する。
// 未登録のメールアドレスでも同じカウンタを使う。
func (l *RedisLoginLimiter) Acquire(ctx context.Context, email string) error {
	key := loginAttemptKeyPrefix + email

	var count *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// TTLが無いカウンタはこの試行をウィンドウの開始とする
	if ttl.Val() < 0 {
		if err := l.client.PExpire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	if count.Val() > int64(l.maxAttempts) {
		return model.ErrTooManyAttempts
	}
	return nil
}

// Reset は試行回数をクリアする。
func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) error {
	if err := l.client.Del(ctx, loginAttemptKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// compile-time interface check
var (
	_ RevocationStore = (*RedisRevocationStore)(nil)
	_ LoginLimiter    = (*RedisLoginLimiter)(nil)
)
