package contact

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hitoshi/portfolio/internal/security"
)

// Email は送信するメール1通を表す。
type Email struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Compose は検証済みの問い合わせからメールを組み立てる。
// 利用者の入力はすべてサニタイズしてからHTMLに埋め込み、テキスト版はHTMLから生成する。
func Compose(msg Message, from, to string, sanitizer security.ContentSanitizerService) Email {
	subject := msg.Subject
	if subject == "" {
		subject = "New message from " + msg.Name
	}

	var b strings.Builder
	b.WriteString("<h2>New Contact Form Submission</h2>")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>", sanitizer.SanitizeText(msg.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>", sanitizer.SanitizeText(msg.Email))
	if msg.Subject != "" {
		fmt.Fprintf(&b, "<p><strong>Subject:</strong> %s</p>", sanitizer.SanitizeText(msg.Subject))
	}
	b.WriteString("<p><strong>Message:</strong></p>")
	fmt.Fprintf(&b, "<p>%s</p>", sanitizer.SanitizeText(msg.Message))
	b.WriteString("<hr>")
	b.WriteString("<p><em>This email was sent from your portfolio contact form.</em></p>")

	body := sanitizer.SanitizeEmailHTML(b.String())

	return Email{
		From:    from,
		To:      to,
		ReplyTo: msg.Email,
		Subject: singleLine(subject),
		HTML:    body,
		Text:    htmlToText(body),
	}
}

// blockTags は終了時に改行を入れる要素。
var blockTags = map[string]bool{
	"p": true, "h2": true, "blockquote": true,
}

// htmlToText はメール本文HTMLからテキスト版を生成する。
// 文字参照はデコードし、段落とbrは改行、hrは区切り線にする。
func htmlToText(body string) string {
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(body))

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(collapseBlankLines(b.String()))

		case html.TextToken:
			b.Write(tokenizer.Text())

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "br":
				b.WriteString("\n")
			case "hr":
				b.WriteString("\n----\n")
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if blockTags[string(tn)] {
				b.WriteString("\n\n")
			}
		}
	}
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
