package source

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/notepress/internal/record"
	"github.com/dgallion1/notepress/internal/richtext"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownReader handles Markdown exports using goldmark. Each
// top-level block becomes one paragraph node, so source spacing
// survives the round trip.
type MarkdownReader struct{}

func (p *MarkdownReader) Read(r io.Reader, filename string) (*record.Record, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var nodes []richtext.Node
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if t := blockText(n, src); t != "" {
			nodes = append(nodes, &richtext.Paragraph{Text: t})
		}
	}

	rec := &record.Record{Source: filename}
	rec.Rich = append(rec.Rich, richtext.RichField{Name: "Body", Nodes: nodes})
	return rec, nil
}

// blockText gets the text content of a goldmark AST block. Inline
// text nodes carry the content for most blocks; blocks without inline
// children, like fenced code, fall back to their raw source lines.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, n, src)
	if buf.Len() == 0 && n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	return strings.TrimSpace(buf.String())
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		writeInline(buf, c, src)
	}
}
