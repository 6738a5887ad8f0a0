package contact

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hitoshi/portfolio/internal/model"
)

func validMessage() Message {
	return Message{
		Name:    "Taro Yamada",
		Email:   "taro@example.com",
		Subject: "Hello",
		Message: "I would like to work with you.",
	}
}

func invalidFields(t *testing.T, err error) []string {
	t.Helper()
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *model.ValidationError", err)
	}
	var fields []string
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	return fields
}

func TestValidate_Valid(t *testing.T) {
	in := validMessage()
	in.Name = "  Taro Yamada  "

	out, err := Validate(in)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if out.Name != "Taro Yamada" {
		t.Errorf("Name = %q, want trimmed", out.Name)
	}
}

func TestValidate_Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Message)
		want   []string
	}{
		{"name 100文字", func(m *Message) { m.Name = strings.Repeat("あ", 100) }, nil},
		{"name 101文字", func(m *Message) { m.Name = strings.Repeat("あ", 101) }, []string{"name"}},
		{"name空", func(m *Message) { m.Name = " " }, []string{"name"}},
		{"subject省略", func(m *Message) { m.Subject = "" }, nil},
		{"subject 200文字", func(m *Message) { m.Subject = strings.Repeat("s", 200) }, nil},
		{"subject 201文字", func(m *Message) { m.Subject = strings.Repeat("s", 201) }, []string{"subject"}},
		{"message 10文字", func(m *Message) { m.Message = strings.Repeat("m", 10) }, nil},
		{"message 9文字", func(m *Message) { m.Message = strings.Repeat("m", 9) }, []string{"message"}},
		{"message 5000文字", func(m *Message) { m.Message = strings.Repeat("m", 5000) }, nil},
		{"message 5001文字", func(m *Message) { m.Message = strings.Repeat("m", 5001) }, []string{"message"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validMessage()
			tt.mutate(&in)
			_, err := Validate(in)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if got := invalidFields(t, err); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("fields = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_Email(t *testing.T) {
	valid := []string{"taro@example.com", "first.last+tag@sub.example.co.jp"}
	invalid := []string{
		"",
		"not-an-email",
		"taro@",
		"@example.com",
		"taro@localhost",
		"Taro <taro@example.com>",
		"taro@example.com\r\nBcc: evil@example.com",
		"a@b@example.com",
	}

	for _, e := range valid {
		in := validMessage()
		in.Email = e
		if _, err := Validate(in); err != nil {
			t.Errorf("Validate(email=%q) error = %v", e, err)
		}
	}
	for _, e := range invalid {
		in := validMessage()
		in.Email = e
		_, err := Validate(in)
		if got := invalidFields(t, err); !reflect.DeepEqual(got, []string{"email"}) {
			t.Errorf("Validate(email=%q) fields = %v, want [email]", e, got)
		}
	}
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	_, err := Validate(Message{})
	want := []string{"name", "email", "message"}
	if got := invalidFields(t, err); !reflect.DeepEqual(got, want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
}
