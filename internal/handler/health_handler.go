package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/portfolio/internal/middleware"
)

// HealthChecker は依存サービスの疎通確認を行う関数。nilを返せば正常。
type HealthChecker func(ctx context.Context) error

// NewHealthHandler はヘルスチェックのハンドラーを返す。
// checkerがnilの場合は常に200を返す。
// GET /health
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker(r.Context()); err != nil {
				slog.Warn("health check failed", slog.String("error", err.Error()))
				middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
