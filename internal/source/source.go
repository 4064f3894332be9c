// Package source reads exported documents into records. Each supported
// export format has its own reader; DXL is the richest (scalar fields,
// rich-text nodes, attachments, links), the rest produce text-mostly
// records.
package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/notepress/internal/record"
)

// Reader converts raw export bytes into a Record.
type Reader interface {
	Read(r io.Reader, filename string) (*record.Record, error)
}

// SupportedExtensions lists the export formats this service can handle.
var SupportedExtensions = map[string]bool{
	".dxl":  true,
	".xml":  true,
	".docx": true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
}

// ForFile returns the reader for a filename.
func ForFile(filename string) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".dxl", ".xml":
		return &DXLReader{}, nil
	case ".docx":
		return &DOCXReader{}, nil
	case ".md", ".markdown":
		return &MarkdownReader{}, nil
	case ".html", ".htm":
		return &HTMLReader{}, nil
	case ".pdf":
		return &PDFReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
