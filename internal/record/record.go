// Package record holds the in-memory model of one exported record:
// scalar metadata fields, rich fields, the attachment resolution table,
// and document links.
package record

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/dgallion1/notepress/internal/richtext"
)

// Field is one scalar metadata field.
type Field struct {
	Name  string
	Value string
}

// Attachment is one extracted file payload, keyed by filename in the
// record's resolution table.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DocLink is a cross-document link found in the export.
type DocLink struct {
	Label string
	HRef  string
}

// Record is one exported record. Built once by a source reader and
// consumed read-only by rendering and delivery.
type Record struct {
	Source      string // source filename, for titles and diagnostics
	Fields      []Field
	Rich        []richtext.RichField
	Attachments []Attachment
	Links       []DocLink

	index map[string]int
}

// AddField appends a scalar field. Repeated names accumulate values
// joined by newlines, matching how exports repeat items.
func (r *Record) AddField(name, value string) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		prev := r.Fields[i].Value
		if strings.TrimSpace(prev) != "" {
			r.Fields[i].Value = prev + "\n" + value
		} else {
			r.Fields[i].Value = value
		}
		return
	}
	r.index[name] = len(r.Fields)
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Field returns the value of a scalar field, or "" when absent.
func (r *Record) Field(name string) string {
	if r.index == nil {
		return ""
	}
	if i, ok := r.index[name]; ok {
		return r.Fields[i].Value
	}
	return ""
}

// RichFieldNames returns the rich field names in document order.
func (r *Record) RichFieldNames() []string {
	names := make([]string, 0, len(r.Rich))
	for _, f := range r.Rich {
		names = append(names, f.Name)
	}
	return names
}

// Resolver returns an attachment resolver over this record's table.
func (r *Record) Resolver() richtext.AttachmentResolver {
	byName := make(map[string]Attachment, len(r.Attachments))
	for _, a := range r.Attachments {
		byName[a.Filename] = a
	}
	return func(filename string) ([]byte, string, bool) {
		a, ok := byName[filename]
		if !ok {
			return nil, "", false
		}
		return a.Data, a.ContentType, true
	}
}

// GuessContentType resolves a MIME type for a filename, with fallbacks
// for office formats that the platform table may not know.
func GuessContentType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
