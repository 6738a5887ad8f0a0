package contact

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/portfolio/internal/model"
)

// 入力値の長さ制限（文字数）
const (
	MaxNameLength    = 100
	MaxSubjectLength = 200
	MinMessageLength = 10
	MaxMessageLength = 5000
)

// Message は問い合わせフォームの入力を表す。
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Validate は問い合わせ内容を検証し、前後の空白を除いた値を返す。
// 失敗した項目はすべて*model.ValidationErrorにまとめて返す。
func Validate(in Message) (Message, error) {
	out := Message{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}

	verr := &model.ValidationError{}

	switch n := utf8.RuneCountInString(out.Name); {
	case n == 0:
		verr.Add("name", "Name is required")
	case n > MaxNameLength:
		verr.Add("name", "Name must be at most 100 characters")
	}

	if !isValidAddress(out.Email) {
		verr.Add("email", "Invalid email address")
	}

	if utf8.RuneCountInString(out.Subject) > MaxSubjectLength {
		verr.Add("subject", "Subject must be at most 200 characters")
	}

	switch n := utf8.RuneCountInString(out.Message); {
	case n < MinMessageLength:
		verr.Add("message", "Message must be at least 10 characters")
	case n > MaxMessageLength:
		verr.Add("message", "Message must be at most 5000 characters")
	}

	if verr.HasErrors() {
		return Message{}, verr
	}
	return out, nil
}

// isValidAddress は表示名を含まない単一のメールアドレスかを判定する。
// "Name <addr>" 形式や改行を含む値はヘッダインジェクションを避けるため拒否する。
func isValidAddress(s string) bool {
	if s == "" || strings.ContainsAny(s, "\r\n<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}
