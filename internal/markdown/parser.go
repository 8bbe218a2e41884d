package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

// Document is a rendered markdown source.
type Document struct {
	HTML []byte
	// Text is the markdown body without its frontmatter block, readable as plain text.
	Text []byte
	Meta map[string]any
}

type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Linkify,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md: md,
	}
}

// Render converts source to HTML and decodes its YAML frontmatter, if any.
func (p *Parser) Render(source []byte) (*Document, error) {
	context := parser.NewContext()
	var buf bytes.Buffer

	err := p.md.Convert(source, &buf, parser.WithContext(context))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]any)
	if data := frontmatter.Get(context); data != nil {
		err = data.Decode(&meta)
		if err != nil {
			return nil, err
		}
	}

	return &Document{
		HTML: buf.Bytes(),
		Text: stripFrontmatter(source),
		Meta: meta,
	}, nil
}

func stripFrontmatter(source []byte) []byte {
	const delim = "---"

	if !bytes.HasPrefix(source, []byte(delim+"\n")) {
		return bytes.TrimSpace(source)
	}

	rest := source[len(delim)+1:]
	end := bytes.Index(rest, []byte("\n"+delim))
	if end < 0 {
		return bytes.TrimSpace(source)
	}

	body := rest[end+len(delim)+1:]
	return bytes.TrimSpace(body)
}
