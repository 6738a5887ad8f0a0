package model

import "time"

// Project はポートフォリオに掲載するプロジェクトを表す。
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"imageUrl"`
	DemoURL     *string   `json:"demoUrl"`
	GithubURL   *string   `json:"githubUrl"`
	Tags        []string  `json:"tags"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectInput は作成・更新リクエストで受け付けるプロジェクトの可変フィールド。
// 検証前の値をそのまま保持する。
type ProjectInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	ImageURL    string   `json:"imageUrl"`
	DemoURL     *string  `json:"demoUrl"`
	GithubURL   *string  `json:"githubUrl"`
	Tags        []string `json:"tags"`
	Featured    bool     `json:"featured"`
}

// ProjectOrder は一覧取得時の並び順を表す。
type ProjectOrder string

const (
	// ProjectOrderPublic は公開一覧の並び順（featured降順、created_at降順）。
	ProjectOrderPublic ProjectOrder = "public"
	// ProjectOrderNewest は管理画面の並び順（created_at降順）。
	ProjectOrderNewest ProjectOrder = "newest"
)
