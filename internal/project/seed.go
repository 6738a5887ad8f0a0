package project

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/repository"
)

type sample struct {
	title       string
	description string
	content     string
	imagePath   string
	demoURL     string
	githubURL   string
	tags        []string
	featured    bool
}

var samples = []sample{
	{
		title:       "E-Commerce Platform",
		description: "Full-stack online store with payment integration and admin dashboard",
		content: "Built a comprehensive e-commerce solution using Next.js, Stripe, and PostgreSQL.\n" +
			"Features include product management, cart functionality, checkout flow, and order tracking.\n" +
			"Admin panel allows inventory management and sales analytics.",
		imagePath: "/projects/ecommerce.jpg",
		demoURL:   "https://demo-ecommerce.vercel.app",
		githubURL: "https://github.com/username/ecommerce",
		tags:      []string{"Next.js", "TypeScript", "Stripe", "Prisma", "PostgreSQL"},
		featured:  true,
	},
	{
		title:       "Task Management App",
		description: "Collaborative task tracker with real-time updates and team features",
		content: "Developed a task management application with real-time collaboration capabilities.\n" +
			"Users can create projects, assign tasks, set deadlines, and track progress.\n" +
			"Implemented using WebSockets for instant updates across team members.",
		imagePath: "/projects/task-app.jpg",
		demoURL:   "https://demo-tasks.vercel.app",
		githubURL: "https://github.com/username/task-manager",
		tags:      []string{"React", "Node.js", "Socket.io", "MongoDB"},
		featured:  true,
	},
	{
		title:       "Weather Dashboard",
		description: "Real-time weather forecasting app with interactive maps",
		content: "Created a weather dashboard that displays current conditions and forecasts.\n" +
			"Integrated with OpenWeather API and Mapbox for location-based weather data.\n" +
			"Features include hourly/daily forecasts, alerts, and historical data visualization.",
		imagePath: "/projects/weather.jpg",
		demoURL:   "https://demo-weather.vercel.app",
		githubURL: "https://github.com/username/weather-app",
		tags:      []string{"Next.js", "OpenWeather API", "Mapbox", "Chart.js"},
		featured:  false,
	},
	{
		title:       "Blog CMS",
		description: "Headless CMS for bloggers with markdown support and SEO optimization",
		content: "Built a content management system for technical bloggers.\n" +
			"Supports markdown editing, syntax highlighting, image uploads, and draft management.\n" +
			"Optimized for SEO with meta tags, sitemaps, and structured data.",
		imagePath: "/projects/blog-cms.jpg",
		demoURL:   "https://demo-blog.vercel.app",
		githubURL: "https://github.com/username/blog-cms",
		tags:      []string{"Next.js", "MDX", "Tailwind CSS", "Vercel"},
		featured:  false,
	},
}

// SampleProjects はサンプルのプロジェクト4件を生成する。
// 画像パスはbaseURLを基準に絶対URLへ変換し、通常の作成と同じ検証を通す。
func SampleProjects(baseURL string, now time.Time) ([]*model.Project, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	projects := make([]*model.Project, 0, len(samples))
	for i, s := range samples {
		imageURL := base.ResolveReference(&url.URL{Path: strings.TrimPrefix(s.imagePath, "/")}).String()
		demo, github := s.demoURL, s.githubURL

		valid, err := Validate(model.ProjectInput{
			Title:       s.title,
			Description: s.description,
			Content:     s.content,
			ImageURL:    imageURL,
			DemoURL:     &demo,
			GithubURL:   &github,
			Tags:        s.tags,
			Featured:    s.featured,
		})
		if err != nil {
			return nil, fmt.Errorf("sample project %q: %w", s.title, err)
		}

		// 同一時刻にならないよう1件ごとに1秒ずつ古くする
		createdAt := now.UTC().Truncate(time.Microsecond).Add(-time.Duration(i) * time.Second)
		p := &model.Project{ID: uuid.New().String(), CreatedAt: createdAt, UpdatedAt: createdAt}
		apply(p, valid)
		projects = append(projects, p)
	}
	return projects, nil
}

// Seed は既存のプロジェクトを全て削除し、サンプルのプロジェクトに置き換える。
func Seed(ctx context.Context, seeder repository.ProjectSeeder, baseURL string, now time.Time) (int, error) {
	projects, err := SampleProjects(baseURL, now)
	if err != nil {
		return 0, err
	}
	if err := seeder.ReplaceAll(ctx, projects); err != nil {
		return 0, fmt.Errorf("サンプルデータの投入に失敗しました: %w", err)
	}
	return len(projects), nil
}
