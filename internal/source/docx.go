package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/notepress/internal/record"
	"github.com/dgallion1/notepress/internal/richtext"
	"github.com/fumiama/go-docx"
)

// DOCXReader handles .docx exports. Only paragraph text is carried;
// drawings and embedded objects are skipped.
type DOCXReader struct{}

func (p *DOCXReader) Read(r io.Reader, filename string) (*record.Record, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "notepress-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var nodes []richtext.Node
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		nodes = append(nodes, &richtext.Paragraph{Text: docxParagraphText(para)})
	}

	rec := &record.Record{Source: filename}
	rec.Rich = append(rec.Rich, richtext.RichField{Name: "Body", Nodes: nodes})
	return rec, nil
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
