package service

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/taskforce/taskmanager/internal/markdown"
)

//go:embed emails/*.md
var emailFS embed.FS

var emailTemplates = template.Must(template.ParseFS(emailFS, "emails/*.md"))

type emailData struct {
	AppName string
	Name    string
}

type emailMessage struct {
	Subject string
	HTML    string
	Text    string
}

// renderEmail fills the named markdown template and renders it. The subject
// comes from the template's frontmatter. User-supplied values are escaped for
// the HTML part so they render as literal text; the text part uses them as is.
func renderEmail(parser *markdown.Parser, name string, data emailData) (*emailMessage, error) {
	source, err := executeEmail(name, emailData{AppName: data.AppName, Name: escapeMarkdown(data.Name)})
	if err != nil {
		return nil, err
	}

	doc, err := parser.Render(source)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}

	subject, _ := doc.Meta["subject"].(string)
	if subject == "" {
		return nil, fmt.Errorf("email template %s has no subject", name)
	}

	plain, err := executeEmail(name, data)
	if err != nil {
		return nil, err
	}
	text, err := parser.Render(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}

	return &emailMessage{
		Subject: subject,
		HTML:    string(doc.HTML),
		Text:    string(text.Text),
	}, nil
}

func executeEmail(name string, data emailData) ([]byte, error) {
	var buf bytes.Buffer
	err := emailTemplates.ExecuteTemplate(&buf, name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// escapeMarkdown backslash-escapes every ASCII punctuation character and
// flattens line breaks, so s cannot open links, autolinks, HTML or blocks.
func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r < utf8.RuneSelf && (unicode.IsPunct(r) || unicode.IsSymbol(r)):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
