package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/portfolio/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// detailsは入力検証エラーの場合のみ含む。
type ErrorResponseBody struct {
	Error   string             `json:"error"`
	Details []model.FieldError `json:"details,omitempty"`
}

// WriteJSON はvをJSONとしてステータスコードとともに書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// ステータスコードはapiErr.Statusを使う。未設定なら500とする。
func WriteErrorResponse(w http.ResponseWriter, apiErr *model.APIError) {
	status := apiErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteJSON(w, status, ErrorResponseBody{
		Error:   apiErr.Message,
		Details: apiErr.Details,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, model.NewInternalError())
}
