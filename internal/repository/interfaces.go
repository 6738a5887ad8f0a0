// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/portfolio/internal/model"
)

// AdminRepository は管理者（認証情報ストア）の永続化インターフェース。
type AdminRepository interface {
	// FindByEmail はメールアドレスの完全一致（大文字小文字を区別）で管理者を取得する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)

	// Upsert はメールアドレスをキーに管理者を作成または更新する。
	// 既存の場合はパスワードハッシュと名前を更新し、IDとcreated_atは維持する。
	Upsert(ctx context.Context, admin *model.Admin) error
}

// ProjectRepository はプロジェクトの永続化インターフェース。
// 各操作は単一のSQL文で完結する。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// List はプロジェクト全件を指定の並び順で返す。
	// 同順位は挿入順（seq昇順）で並ぶ。
	List(ctx context.Context, order model.ProjectOrder) ([]*model.Project, error)

	// Insert はプロジェクトを作成する。
	Insert(ctx context.Context, project *model.Project) error

	// Replace はIDとcreated_atを除く全フィールドを置き換える。
	// 対象が存在しない場合はmodel.ErrNotFoundを返す。
	Replace(ctx context.Context, project *model.Project) error

	// Remove は指定IDのプロジェクトを削除する。
	// 対象が存在しない場合はmodel.ErrNotFoundを返す。
	Remove(ctx context.Context, id string) error
}

// ProjectSeeder はサンプルデータ投入用のインターフェース。
type ProjectSeeder interface {
	// ReplaceAll は既存の全プロジェクトを削除し、指定のプロジェクトを同一トランザクションで作成する。
	ReplaceAll(ctx context.Context, projects []*model.Project) error
}
