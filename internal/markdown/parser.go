package markdown

import (
	"bytes"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Parser renders the short notes attached to a location. Raw HTML in the
// source is dropped and dangerous link schemes are filtered, so the output
// can be inserted into the page as is.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Linkify,
			extension.Strikethrough,
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
		),
	)

	return &Parser{
		md: md,
	}
}

func (p *Parser) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render converts a note to HTML. A note that fails to render yields an
// empty string and the caller falls back to plain text.
func (p *Parser) Render(note string) string {
	if note == "" {
		return ""
	}
	out, err := p.Parse([]byte(note))
	if err != nil {
		slog.Warn("failed to render note", "error", err)
		return ""
	}
	return string(bytes.TrimSpace(out))
}
