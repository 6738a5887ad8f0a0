package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/portfolio/internal/model"
)

var projectRowColumns = []string{
	"id", "title", "description", "content", "image_url", "demo_url", "github_url",
	"tags", "featured", "created_at", "updated_at",
}

func setupProjectRepo(t *testing.T) (*PostgresProjectRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresProjectRepo(db), mock
}

func strPtr(s string) *string { return &s }

func TestPostgresProjectRepo_FindByID(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("returns project with nullable fields mapped", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectQuery(`SELECT id, title, description`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows(projectRowColumns).
				AddRow("p-1", "Title", "Desc", "Body", "https://img.example/a.png",
					"https://demo.example", nil, "{go,redis}", true, now, now))

		p, err := repo.FindByID(context.Background(), "p-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Title", p.Title)
		require.NotNil(t, p.DemoURL)
		assert.Equal(t, "https://demo.example", *p.DemoURL)
		assert.Nil(t, p.GithubURL)
		assert.Equal(t, []string{"go", "redis"}, p.Tags)
		assert.True(t, p.Featured)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil when not found", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectQuery(`SELECT id, title, description`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		p, err := repo.FindByID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(`SELECT id, title, description`).
			WithArgs("p-1").
			WillReturnError(dbErr)

		_, err := repo.FindByID(context.Background(), "p-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestPostgresProjectRepo_List(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("public order puts featured first then newest then insertion order", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY featured DESC, created_at DESC, seq ASC`)).
			WillReturnRows(sqlmock.NewRows(projectRowColumns).
				AddRow("p-1", "A", "d", "c", "https://i.example/1", nil, nil, "{}", true, now, now).
				AddRow("p-2", "B", "d", "c", "https://i.example/2", nil, nil, "{x}", false, now, now))

		projects, err := repo.List(context.Background(), model.ProjectOrderPublic)
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, "p-1", projects[0].ID)
		assert.Equal(t, []string{}, projects[0].Tags)
		assert.Equal(t, []string{"x"}, projects[1].Tags)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("newest order ignores featured", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC, seq ASC`)).
			WillReturnRows(sqlmock.NewRows(projectRowColumns))

		projects, err := repo.List(context.Background(), model.ProjectOrderNewest)
		require.NoError(t, err)
		assert.NotNil(t, projects)
		assert.Empty(t, projects)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown order", func(t *testing.T) {
		repo, _ := setupProjectRepo(t)
		_, err := repo.List(context.Background(), model.ProjectOrder("random"))
		assert.Error(t, err)
	})
}

func TestPostgresProjectRepo_Insert(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	now := time.Now()
	p := &model.Project{
		ID: "p-1", Title: "T", Description: "D", Content: "C",
		ImageURL: "https://i.example/1", GithubURL: strPtr("https://github.com/x/y"),
		Tags: []string{"A", "b"}, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO projects`).
		WithArgs("p-1", "T", "D", "C", "https://i.example/1", nil, "https://github.com/x/y",
			sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProjectRepo_Replace(t *testing.T) {
	p := &model.Project{ID: "p-1", Title: "T", Description: "D", Content: "C", ImageURL: "https://i.example/1"}

	t.Run("updates existing row", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectExec(`UPDATE projects`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Replace(context.Background(), p))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports not found when no row matched", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectExec(`UPDATE projects`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Replace(context.Background(), p)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestPostgresProjectRepo_Remove(t *testing.T) {
	t.Run("deletes existing row", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM projects WHERE id = $1`)).
			WithArgs("p-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Remove(context.Background(), "p-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM projects WHERE id = $1`)).
			WithArgs("p-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Remove(context.Background(), "p-1")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestPostgresProjectRepo_ReplaceAll(t *testing.T) {
	t.Run("clears and inserts in one transaction", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		now := time.Now()
		projects := []*model.Project{
			{ID: "p-1", Title: "A", Description: "d", Content: "c", ImageURL: "https://i.example/1", CreatedAt: now, UpdatedAt: now},
			{ID: "p-2", Title: "B", Description: "d", Content: "c", ImageURL: "https://i.example/2", CreatedAt: now, UpdatedAt: now},
		}

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM projects`).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`INSERT INTO projects`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO projects`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.ReplaceAll(context.Background(), projects))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when an insert fails", func(t *testing.T) {
		repo, mock := setupProjectRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM projects`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO projects`).WillReturnError(errors.New("duplicate key"))
		mock.ExpectRollback()

		err := repo.ReplaceAll(context.Background(), []*model.Project{{ID: "p-1"}})
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
