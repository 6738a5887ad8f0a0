// Package contact は問い合わせフォームの検証とメール送信を提供する。
package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/portfolio/internal/security"
)

// ErrSendFailed はメール送信に失敗した場合に返される。
var ErrSendFailed = errors.New("failed to send email")

// Service は問い合わせを検証し、管理者宛てにメールを送信する。
type Service struct {
	sender    Sender
	sanitizer security.ContentSanitizerService
	from      string
	to        string
}

// NewService はServiceを生成する。fromは送信元、toは問い合わせの送信先アドレス。
func NewService(sender Sender, sanitizer security.ContentSanitizerService, from, to string) *Service {
	return &Service{sender: sender, sanitizer: sanitizer, from: from, to: to}
}

// Submit は問い合わせを検証して送信する。
// 検証エラーは*model.ValidationError、送信失敗はErrSendFailedをラップして返す。
func (s *Service) Submit(ctx context.Context, msg Message) error {
	valid, err := Validate(msg)
	if err != nil {
		return err
	}

	email := Compose(valid, s.from, s.to, s.sanitizer)
	if err := s.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}
