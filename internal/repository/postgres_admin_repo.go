package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/portfolio/internal/model"
)

// PostgresAdminRepo はPostgreSQLを使用した管理者リポジトリ。
type PostgresAdminRepo struct {
	db *sql.DB
}

// NewPostgresAdminRepo はPostgresAdminRepoを生成する。
func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

// FindByEmail はメールアドレスで管理者を取得する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	admin := &model.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, created_at, updated_at FROM admins WHERE email = $1`,
		email,
	).Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Name, &admin.CreatedAt, &admin.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by email: %w", err)
	}
	return admin, nil
}

// Upsert はメールアドレスをキーに管理者を作成または更新する。
// 更新時は既存のIDとcreated_atをadminに書き戻す。
func (r *PostgresAdminRepo) Upsert(ctx context.Context, admin *model.Admin) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO admins (id, email, password_hash, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email) DO UPDATE
		 SET password_hash = EXCLUDED.password_hash,
		     name = EXCLUDED.name,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		admin.ID, admin.Email, admin.PasswordHash, admin.Name, admin.CreatedAt, admin.UpdatedAt,
	).Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert admin: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AdminRepository = (*PostgresAdminRepo)(nil)
