package source

import (
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/notepress/internal/record"
	"github.com/dgallion1/notepress/internal/richtext"
)

// DXLReader handles Domino XML exports: one document per file.
type DXLReader struct{}

// binarySkipTags are the subtrees stripped when extracting paragraph
// text, so base64 payloads never leak into rendered text.
var binarySkipTags = map[string]bool{
	"picture":       true,
	"notesbitmap":   true,
	"gif":           true,
	"png":           true,
	"jpeg":          true,
	"jpg":           true,
	"filedata":      true,
	"attachmentref": true,
}

func (p *DXLReader) Read(r io.Reader, filename string) (*record.Record, error) {
	root, err := parseXMLTree(r)
	if err != nil {
		return nil, fmt.Errorf("parse dxl: %w", err)
	}

	rec := &record.Record{Source: filename}

	for _, item := range root.findAll("item") {
		name := strings.TrimSpace(item.attr("name"))
		if name == "" {
			continue
		}
		if name == "$FILE" {
			if a, ok := fileItemAttachment(item); ok {
				rec.Attachments = append(rec.Attachments, a)
			}
			continue
		}
		if rt := item.find("richtext"); rt != nil {
			rec.Rich = append(rec.Rich, richtext.RichField{
				Name:  name,
				Nodes: richNodes(rt),
			})
			continue
		}
		if v := scalarItemText(item); v != "" {
			rec.AddField(name, v)
		}
	}

	for _, dl := range root.findAll("doclink") {
		rec.Links = append(rec.Links, docLink(dl))
	}

	return rec, nil
}

// fileItemAttachment decodes one $FILE item into a resolution-table
// entry. Items without payload are skipped: a name alone cannot be
// delivered.
func fileItemAttachment(item *xmlElem) (record.Attachment, bool) {
	file := item.find("file")
	data := item.find("filedata")
	if file == nil || data == nil {
		return record.Attachment{}, false
	}
	filename := strings.TrimSpace(file.attr("name"))
	if filename == "" {
		filename = "attachment.bin"
	}
	raw, err := decodeBase64(data.text())
	if err != nil || len(raw) == 0 {
		return record.Attachment{}, false
	}
	return record.Attachment{
		Filename:    filename,
		ContentType: record.GuessContentType(filename),
		Data:        raw,
	}, true
}

// richNodes converts the direct children of a richtext element into
// the node sequence. Unknown child tags are skipped.
func richNodes(rt *xmlElem) []richtext.Node {
	var nodes []richtext.Node
	for _, child := range rt.children() {
		switch child.name {
		case "par":
			nodes = append(nodes, parNode(child))
		case "table":
			nodes = append(nodes, tableNode(child))
		}
	}
	return nodes
}

func parNode(par *xmlElem) *richtext.Paragraph {
	p := &richtext.Paragraph{Text: normalizeParText(par.textExcluding(binarySkipTags))}

	for _, ref := range par.findAll("attachmentref") {
		fn := strings.TrimSpace(ref.attr("displayname"))
		if fn == "" {
			fn = strings.TrimSpace(ref.attr("name"))
		}
		if fn != "" {
			p.Refs = append(p.Refs, fn)
		}
	}
	if len(p.Refs) > 0 {
		return p
	}

	if pic := par.find("picture"); pic != nil {
		p.Picture = pictureNode(pic)
	}
	return p
}

func pictureNode(pic *xmlElem) *richtext.Picture {
	w := pxInt(pic.attr("width"))
	h := pxInt(pic.attr("height"))

	for _, child := range pic.children() {
		if !richtext.SupportedPicture(child.name) {
			continue
		}
		data, err := decodeBase64(child.text())
		if err != nil {
			// Keep the format tag; nil data renders as an unsupported marker.
			return &richtext.Picture{Format: child.name, Width: w, Height: h}
		}
		return &richtext.Picture{Format: child.name, Data: data, Width: w, Height: h}
	}

	format := "unknown"
	if kids := pic.children(); len(kids) > 0 {
		format = kids[0].name
	}
	return &richtext.Picture{Format: format, Width: w, Height: h}
}

func tableNode(table *xmlElem) *richtext.Table {
	t := &richtext.Table{}
	for _, tr := range table.findAll("tablerow") {
		var row []string
		for _, td := range tr.findAll("tablecell") {
			// Cells flatten to text; binaries inside cells are not carried.
			row = append(row, normalizeParText(td.textExcluding(binarySkipTags)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// scalarItemText extracts a readable string from a non-rich item:
// text, then number, then datetime values; full item text as fallback.
func scalarItemText(item *xmlElem) string {
	if vals := elementTexts(item, "text"); len(vals) > 0 {
		return joinClean(vals)
	}
	if vals := elementTexts(item, "number"); len(vals) > 0 {
		return joinClean(vals)
	}
	if vals := elementTexts(item, "datetime"); len(vals) > 0 {
		return joinClean(vals)
	}
	return strings.TrimSpace(item.text())
}

func elementTexts(item *xmlElem, name string) []string {
	var out []string
	for _, el := range item.findAll(name) {
		out = append(out, el.text())
	}
	return out
}

func docLink(dl *xmlElem) record.DocLink {
	doc := strings.TrimSpace(dl.attr("document"))
	db := strings.TrimSpace(dl.attr("database"))
	desc := strings.TrimSpace(dl.attr("description"))

	href := "notesdoc:unknown:" + doc
	if doc != "" && db != "" {
		href = "notesdoc:" + db + ":" + doc
	}
	return record.DocLink{Label: desc, HRef: href}
}

var (
	wsBeforeNL = regexp.MustCompile(`[ \t]+\n`)
	runsOfWS   = regexp.MustCompile(`[ \t]+`)
	digitsRe   = regexp.MustCompile(`\d+`)
	b64WSRe    = regexp.MustCompile(`\s+`)
)

func normalizeParText(s string) string {
	s = wsBeforeNL.ReplaceAllString(s, "\n")
	s = runsOfWS.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func joinClean(values []string) string {
	var kept []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			kept = append(kept, runsOfWS.ReplaceAllString(v, " "))
		}
	}
	return strings.Join(kept, "\n")
}

// pxInt pulls the numeric part out of dimension strings like "120px".
func pxInt(s string) int {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64WSRe.ReplaceAllString(s, ""))
}
