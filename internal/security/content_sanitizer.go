// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は問い合わせフォームの入力をメール本文に埋め込む前に無害化する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 利用者の入力からはタグを一切通さず、組み立てたメール本文には安全なタグのみを残す。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はメール本文用のサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// SanitizeText は利用者の入力から全てのタグを除去し、HTMLエスケープ済みのテキストを返す。
	// 改行は<br>に変換する。
	SanitizeText(input string) string

	// SanitizeEmailHTML は組み立て済みのメール本文HTMLに許可タグ以外が残っていないことを保証する。
	// 許可タグ: h2, p, br, hr, strong, em, blockquote, a（mailto/httpsのみ）
	SanitizeEmailHTML(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフに利用できる。
type contentSanitizer struct {
	strict *bluemonday.Policy
	email  *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style等は許可リストに含めないことで除去される
	// on*イベント属性はbluemondayのデフォルトで許可されない
	p.AllowElements(
		"h2", "p", "br", "hr",
		"strong", "em", "blockquote",
	)

	// aタグ: 返信用のmailtoと外部リンクのhttpsのみ
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("mailto", "https")
	p.AllowRelativeURLs(false)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		strict: bluemonday.StrictPolicy(),
		email:  p,
	}
}

// SanitizeText は利用者の入力から全てのタグを除去し、改行を<br>に変換する。
func (s *contentSanitizer) SanitizeText(input string) string {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = s.strict.Sanitize(line)
	}
	return strings.Join(lines, "<br>")
}

// SanitizeEmailHTML はメール本文HTMLを許可リストでサニタイズする。
func (s *contentSanitizer) SanitizeEmailHTML(rawHTML string) string {
	return s.email.Sanitize(rawHTML)
}
