package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/notepress/internal/record"
	"github.com/dgallion1/notepress/internal/richtext"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFReader handles PDF exports: one paragraph node per page of
// extracted text.
type PDFReader struct{}

func (p *PDFReader) Read(r io.Reader, filename string) (*record.Record, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "notepress-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var nodes []richtext.Node
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			nodes = append(nodes, &richtext.Paragraph{Text: t})
		}
	}

	rec := &record.Record{Source: filename}
	rec.Rich = append(rec.Rich, richtext.RichField{Name: "Body", Nodes: nodes})
	return rec, nil
}
