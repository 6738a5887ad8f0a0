package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultResendEndpoint はResendのメール送信APIのURL。
const DefaultResendEndpoint = "https://api.resend.com/emails"

// maxErrorBodySize はエラー応答から読み取る最大バイト数。
const maxErrorBodySize = 4 * 1024

// Sender はメール送信のインターフェース。再送やキューイングは行わない。
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// ResendSender はResendのHTTP APIでメールを送信する。
type ResendSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewResendSender はResendSenderを生成する。
// clientにはSSRF防止付きのクライアントを渡す。
func NewResendSender(endpoint, apiKey string, client *http.Client) *ResendSender {
	if endpoint == "" {
		endpoint = DefaultResendEndpoint
	}
	return &ResendSender{endpoint: endpoint, apiKey: apiKey, client: client}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// Send はメールを1回だけ送信する。2xx以外の応答はエラーとして返す。
func (s *ResendSender) Send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(resendRequest{
		From:    email.From,
		To:      []string{email.To},
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "portfolio-api/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call email API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var result resendResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodySize)).Decode(&result); err == nil {
		slog.Info("contact email sent", slog.String("email_id", result.ID))
	}
	return nil
}

// LogSender はメールを送信せずログに記録する（開発用）。
type LogSender struct{}

// Send はメールの宛先と件名をログに記録する。本文は記録しない。
func (LogSender) Send(_ context.Context, email Email) error {
	slog.Info("contact email (not sent: RESEND_API_KEY unset)",
		slog.String("to", email.To),
		slog.String("reply_to", email.ReplyTo),
		slog.String("subject", email.Subject),
		slog.Int("text_length", len(email.Text)),
	)
	return nil
}

// compile-time interface check
var (
	_ Sender = (*ResendSender)(nil)
	_ Sender = LogSender{}
)
