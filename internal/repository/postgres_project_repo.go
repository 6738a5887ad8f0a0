package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/portfolio/internal/model"
)

const projectColumns = `id, title, description, content, image_url, demo_url, github_url,
	tags, featured, created_at, updated_at`

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`,
		id,
	)
	project, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project by ID: %w", err)
	}
	return project, nil
}

// List はプロジェクト全件を指定の並び順で返す。
func (r *PostgresProjectRepo) List(ctx context.Context, order model.ProjectOrder) ([]*model.Project, error) {
	var orderBy string
	switch order {
	case model.ProjectOrderPublic:
		orderBy = `featured DESC, created_at DESC, seq ASC`
	case model.ProjectOrderNewest:
		orderBy = `created_at DESC, seq ASC`
	default:
		return nil, fmt.Errorf("unknown project order: %q", order)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY `+orderBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*model.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// Insert はプロジェクトを作成する。seqはDB側で採番される。
func (r *PostgresProjectRepo) Insert(ctx context.Context, project *model.Project) error {
	if err := insertProject(ctx, r.db, project); err != nil {
		return err
	}
	return nil
}

// Replace はIDとcreated_atを除く全フィールドを置き換える。
func (r *PostgresProjectRepo) Replace(ctx context.Context, project *model.Project) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects
		 SET title = $2, description = $3, content = $4, image_url = $5,
		     demo_url = $6, github_url = $7, tags = $8, featured = $9, updated_at = $10
		 WHERE id = $1`,
		project.ID, project.Title, project.Description, project.Content, project.ImageURL,
		nullString(project.DemoURL), nullString(project.GithubURL), pq.Array(nonNilTags(project.Tags)),
		project.Featured, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return expectOneRow(result, project.ID)
}

// Remove は指定IDのプロジェクトを削除する。
func (r *PostgresProjectRepo) Remove(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return expectOneRow(result, id)
}

// ReplaceAll は既存の全プロジェクトを削除し、指定のプロジェクトを同一トランザクションで作成する。
func (r *PostgresProjectRepo) ReplaceAll(ctx context.Context, projects []*model.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}
	for _, p := range projects {
		if err := insertProject(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertProject(ctx context.Context, db execer, project *model.Project) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, title, description, content, image_url, demo_url, github_url,
		                       tags, featured, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		project.ID, project.Title, project.Description, project.Content, project.ImageURL,
		nullString(project.DemoURL), nullString(project.GithubURL), pq.Array(nonNilTags(project.Tags)),
		project.Featured, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (*model.Project, error) {
	p := &model.Project{}
	var demoURL, githubURL sql.NullString
	var tags pq.StringArray
	if err := s.Scan(
		&p.ID, &p.Title, &p.Description, &p.Content, &p.ImageURL, &demoURL, &githubURL,
		&tags, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if demoURL.Valid {
		p.DemoURL = &demoURL.String
	}
	if githubURL.Valid {
		p.GithubURL = &githubURL.String
	}
	p.Tags = nonNilTags(tags)
	return p, nil
}

func expectOneRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// 空配列はNULLではなく'{}'として保存する。
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// compile-time interface check
var (
	_ ProjectRepository = (*PostgresProjectRepo)(nil)
	_ ProjectSeeder     = (*PostgresProjectRepo)(nil)
)
