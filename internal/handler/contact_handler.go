package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/portfolio/internal/contact"
	"github.com/hitoshi/portfolio/internal/metrics"
	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
)

// ContactServiceInterface は問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	Submit(ctx context.Context, msg contact.Message) error
}

// ContactHandler は問い合わせフォームのHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
	metrics metrics.MetricsCollector
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface, mc metrics.MetricsCollector) *ContactHandler {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &ContactHandler{service: service, metrics: mc}
}

type contactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit は問い合わせを検証してメールを送信する。
// POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var msg contact.Message
	if verr := decodeJSON(w, r, &msg); verr != nil {
		h.metrics.RecordContactMessage(metrics.ContactInvalid)
		writeContactValidationError(w, verr.Fields)
		return
	}

	err := h.service.Submit(r.Context(), msg)
	if err == nil {
		h.metrics.RecordContactMessage(metrics.ContactSent)
		middleware.WriteJSON(w, http.StatusOK, contactResponse{
			Success: true,
			Message: "Message sent successfully!",
		})
		return
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		h.metrics.RecordContactMessage(metrics.ContactInvalid)
		writeContactValidationError(w, verr.Fields)
		return
	}

	h.metrics.RecordContactMessage(metrics.ContactFailed)
	slog.Error("failed to send contact email", slog.String("error", err.Error()))
	middleware.WriteErrorResponse(w, &model.APIError{
		Status:  http.StatusInternalServerError,
		Code:    model.ErrCodeEmailFailed,
		Message: "Failed to send email. Please try again.",
	})
}

func writeContactValidationError(w http.ResponseWriter, details []model.FieldError) {
	middleware.WriteErrorResponse(w, &model.APIError{
		Status:  http.StatusBadRequest,
		Code:    model.ErrCodeInvalidInput,
		Message: "Validation failed",
		Details: details,
	})
}
