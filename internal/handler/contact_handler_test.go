package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/portfolio/internal/contact"
	"github.com/hitoshi/portfolio/internal/metrics"
	"github.com/hitoshi/portfolio/internal/model"
)

func TestContactSubmit_Success(t *testing.T) {
	var got contact.Message
	svc := &mockContactService{
		submitFn: func(ctx context.Context, msg contact.Message) error {
			got = msg
			return nil
		},
	}
	fm := &fakeMetrics{}
	h := NewContactHandler(svc, fm)

	w := httptest.NewRecorder()
	h.Submit(w, jsonRequest(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Taro", "email": "taro@example.com", "message": "Hello there, nice site!",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody(t, w)
	if body["success"] != true || body["message"] != "Message sent successfully!" {
		t.Errorf("body = %v", body)
	}
	if got.Email != "taro@example.com" || got.Subject != "" {
		t.Errorf("message = %+v", got)
	}
	if len(fm.contacts) != 1 || fm.contacts[0] != metrics.ContactSent {
		t.Errorf("contact metrics = %v", fm.contacts)
	}
}

func TestContactSubmit_ValidationError(t *testing.T) {
	svc := &mockContactService{
		submitFn: func(ctx context.Context, msg contact.Message) error {
			verr := &model.ValidationError{}
			verr.Add("email", "Invalid email address")
			return verr
		},
	}
	fm := &fakeMetrics{}
	h := NewContactHandler(svc, fm)

	w := httptest.NewRecorder()
	h.Submit(w, jsonRequest(t, http.MethodPost, "/api/contact", map[string]string{"email": "nope"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body := decodeBody(t, w)
	if body["error"] != "Validation failed" {
		t.Errorf("error = %v", body["error"])
	}
	if details, _ := body["details"].([]any); len(details) != 1 {
		t.Errorf("details = %v", body["details"])
	}
	if len(fm.contacts) != 1 || fm.contacts[0] != metrics.ContactInvalid {
		t.Errorf("contact metrics = %v", fm.contacts)
	}
}

func TestContactSubmit_MalformedBody(t *testing.T) {
	h := NewContactHandler(&mockContactService{
		submitFn: func(ctx context.Context, msg contact.Message) error {
			t.Error("service should not be called")
			return nil
		},
	}, nil)

	w := httptest.NewRecorder()
	h.Submit(w, jsonRequest(t, http.MethodPost, "/api/contact", "not json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body := decodeBody(t, w)
	if body["error"] != "Validation failed" {
		t.Errorf("error = %v", body["error"])
	}
	if got := detailFields(t, body); len(got) != 1 || got[0] != "body" {
		t.Errorf("detail fields = %v, want [body]", got)
	}
}

func TestContactSubmit_WrongFieldType_ReportsField(t *testing.T) {
	h := NewContactHandler(&mockContactService{
		submitFn: func(ctx context.Context, msg contact.Message) error {
			t.Error("service should not be called")
			return nil
		},
	}, nil)

	w := httptest.NewRecorder()
	h.Submit(w, jsonRequest(t, http.MethodPost, "/api/contact", `{"name":"Taro","email":42}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := detailFields(t, decodeBody(t, w)); len(got) != 1 || got[0] != "email" {
		t.Errorf("detail fields = %v, want [email]", got)
	}
}

func TestContactSubmit_SendFailure_Returns500(t *testing.T) {
	svc := &mockContactService{
		submitFn: func(ctx context.Context, msg contact.Message) error {
			return fmt.Errorf("%w: %v", contact.ErrSendFailed, errors.New("email API returned 500"))
		},
	}
	fm := &fakeMetrics{}
	h := NewContactHandler(svc, fm)

	w := httptest.NewRecorder()
	h.Submit(w, jsonRequest(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Taro", "email": "taro@example.com", "message": "Hello there, nice site!",
	}))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if body := decodeBody(t, w); body["error"] != "Failed to send email. Please try again." {
		t.Errorf("error = %v", body["error"])
	}
	if len(fm.contacts) != 1 || fm.contacts[0] != metrics.ContactFailed {
		t.Errorf("contact metrics = %v", fm.contacts)
	}
}
