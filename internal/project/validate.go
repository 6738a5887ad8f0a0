package project

import (
	"net/url"
	"strings"

	"github.com/hitoshi/portfolio/internal/model"
)

// Validate は作成・更新の入力を検証し、保存する入力を返す。
// 検証は必須項目の確認、URL形式の確認、タグの正規化の順で行い、
// 失敗した項目はすべて*model.ValidationErrorにまとめて返す。
// 空白の除去は判定にのみ使い、返す値はタグ以外は入力のままとする。
func Validate(input model.ProjectInput) (model.ProjectInput, error) {
	out := model.ProjectInput{
		Title:       input.Title,
		Description: input.Description,
		Content:     input.Content,
		ImageURL:    input.ImageURL,
		DemoURL:     optionalURL(input.DemoURL),
		GithubURL:   optionalURL(input.GithubURL),
		Featured:    input.Featured,
	}
	imageURL := strings.TrimSpace(input.ImageURL)

	verr := &model.ValidationError{}

	// 1. 必須項目
	if strings.TrimSpace(input.Title) == "" {
		verr.Add("title", "Title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		verr.Add("description", "Description is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		verr.Add("content", "Content is required")
	}
	if imageURL == "" {
		verr.Add("imageUrl", "Image URL is required")
	}

	// 2. URL形式
	if imageURL != "" && !isAbsoluteHTTPURL(imageURL) {
		verr.Add("imageUrl", "Image URL must be a valid http(s) URL")
	}
	if out.DemoURL != nil && !isAbsoluteHTTPURL(strings.TrimSpace(*out.DemoURL)) {
		verr.Add("demoUrl", "Demo URL must be a valid http(s) URL")
	}
	if out.GithubURL != nil && !isAbsoluteHTTPURL(strings.TrimSpace(*out.GithubURL)) {
		verr.Add("githubUrl", "GitHub URL must be a valid http(s) URL")
	}

	if verr.HasErrors() {
		return model.ProjectInput{}, verr
	}

	// 3. タグの正規化
	out.Tags = NormalizeTags(input.Tags)

	return out, nil
}

// NormalizeTags は各タグの前後の空白を除去し、空のタグを取り除く。順序は保持する。
// 重複は除去しない。
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			normalized = append(normalized, t)
		}
	}
	return normalized
}

// optionalURL は未指定・空白のみをnilとして扱い、それ以外は入力のまま返す。
func optionalURL(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && u.Hostname() != ""
}
