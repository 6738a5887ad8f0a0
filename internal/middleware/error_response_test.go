package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/portfolio/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットでレスポンスが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, model.NewNotFoundError())

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"Not found"}` {
		t.Errorf("body = %s", got)
	}
}

// TestWriteErrorResponse_IncludesDetails は入力検証エラーの詳細が含まれることを検証する。
func TestWriteErrorResponse_IncludesDetails(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, model.NewInvalidInputError([]model.FieldError{
		{Field: "imageUrl", Message: "Image URL must be a valid http(s) URL"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Error != "Invalid input" {
		t.Errorf("error = %q, want Invalid input", body.Error)
	}
	if len(body.Details) != 1 || body.Details[0].Field != "imageUrl" {
		t.Errorf("details = %+v", body.Details)
	}
}

// TestWriteErrorResponse_ZeroStatusDefaultsTo500 はStatus未設定のAPIErrorが500になることを検証する。
func TestWriteErrorResponse_ZeroStatusDefaultsTo500(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, &model.APIError{Message: "boom"})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// TestWriteInternalServerError は内部エラーの詳細を漏らさないことを検証する。
func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"Internal server error"}` {
		t.Errorf("body = %s", got)
	}
}

// TestWriteJSON はステータスコードとJSONボディを書き込むことを検証する。
func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]bool{"success": true})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"success":true}` {
		t.Errorf("body = %s", got)
	}
}
