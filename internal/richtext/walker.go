package richtext

import (
	"fmt"
	"strings"
)

// AttachmentResolver maps a referenced filename to its payload. The
// second return is false when no payload is known for the name.
type AttachmentResolver func(filename string) (data []byte, contentType string, ok bool)

// WalkResult is the output of walking one rich field.
type WalkResult struct {
	Body        Fragment
	Segments    []Segment
	Unresolved  []string // attachment refs whose payload was missing; placeholders kept
	Unsupported []string // picture encodings replaced with a textual marker
}

// Walker allocates anchor ids for one document. Every rich field of a
// document must be walked through the same Walker: the counter is
// document-scoped, so anchors stay unique even when two field names
// slug identically or a field name repeats.
type Walker struct {
	seq int
}

func NewWalker() *Walker {
	return &Walker{}
}

func (d *Walker) next() int {
	d.seq++
	return d.seq
}

// Walk processes a rich field's node sequence in document order,
// emitting body markup with one anchor slot per attempted binary
// extraction and the matching ordered segment list.
//
// Invariants:
//   - slot count equals attempted extraction count, in the same order;
//   - an unresolved attachment keeps its slot but produces no segment;
//   - an unsupported picture produces neither slot nor segment, only a
//     textual marker;
//   - segment order equals document order.
func (d *Walker) Walk(fieldName string, nodes []Node, resolve AttachmentResolver) WalkResult {
	w := walker{field: fieldName, slug: fieldSlug(fieldName), resolve: resolve, doc: d}
	for _, n := range nodes {
		switch node := n.(type) {
		case *Paragraph:
			w.paragraph(node)
		case *Table:
			w.table(node)
		default:
			// Malformed or unknown node: skip it, keep walking.
		}
	}
	return w.out
}

// Walk processes a single rich field with a Walker of its own. A
// document with more than one rich field must share one Walker.
func Walk(fieldName string, nodes []Node, resolve AttachmentResolver) WalkResult {
	return NewWalker().Walk(fieldName, nodes, resolve)
}

type walker struct {
	field   string
	slug    string
	resolve AttachmentResolver
	doc     *Walker
	out     WalkResult
}

// anchorID derives the next anchor for this field. The slug keeps
// anchors readable; uniqueness comes from the document-scoped counter.
func (w *walker) anchorID(kind SegmentKind) string {
	tag := "att"
	if kind == KindImage {
		tag = "img"
	}
	return fmt.Sprintf("seg-%s-%s-%03d", w.slug, tag, w.doc.next())
}

func (w *walker) paragraph(p *Paragraph) {
	hasBinary := len(p.Refs) > 0 || p.Picture != nil

	text := strings.TrimSpace(p.Text)
	if text != "" {
		w.out.Body.WriteHTML("<p>" + TextToHTML(text) + "</p>")
	} else if !hasBinary {
		// An empty paragraph still takes vertical space in the source.
		w.out.Body.WriteHTML("<br/>")
		return
	}

	for _, ref := range p.Refs {
		anchor := w.anchorID(KindAttachment)
		w.out.Body.WriteSlot(anchor)
		data, contentType, ok := w.resolveRef(ref)
		if !ok {
			// Position preserved, payload unknown. The slot renders as an
			// empty anchor so the gap is visible and addressable.
			w.out.Unresolved = append(w.out.Unresolved, ref)
			continue
		}
		w.out.Segments = append(w.out.Segments, Segment{
			AnchorID:    anchor,
			Kind:        KindAttachment,
			Filename:    ref,
			ContentType: contentType,
			Data:        data,
			OriginField: w.field,
		})
	}

	if p.Picture != nil {
		w.picture(p.Picture)
	}
}

func (w *walker) resolveRef(ref string) ([]byte, string, bool) {
	if w.resolve == nil {
		return nil, "", false
	}
	data, contentType, ok := w.resolve(ref)
	if !ok || len(data) == 0 {
		return nil, "", false
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, true
}

func (w *walker) picture(pic *Picture) {
	mime, ok := pictureMIME[pic.Format]
	if !ok || len(pic.Data) == 0 {
		w.out.Unsupported = append(w.out.Unsupported, pic.Format)
		w.out.Body.WriteHTML(
			"<p><i>[unsupported image: " + EscapeText(pic.Format) + "]</i></p>")
		return
	}
	anchor := w.anchorID(KindImage)
	w.out.Body.WriteSlot(anchor)
	w.out.Segments = append(w.out.Segments, Segment{
		AnchorID:    anchor,
		Kind:        KindImage,
		Filename:    anchor + "." + pic.Format,
		ContentType: mime,
		Data:        pic.Data,
		Width:       pic.Width,
		Height:      pic.Height,
		OriginField: w.field,
	})
}

func (w *walker) table(t *Table) {
	var sb strings.Builder
	sb.WriteString("<div style='margin:10px 0;'>")
	sb.WriteString("<table style='border-collapse:collapse; width:100%;'>")
	for _, row := range t.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td style='border:1px solid #ddd; padding:6px; vertical-align:top;'>")
			sb.WriteString(TextToHTML(strings.TrimSpace(cell)))
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table></div>")
	w.out.Body.WriteHTML(sb.String())
}

// fieldSlug lowercases a field name and squeezes anything that is not
// a letter or digit into single dashes, keeping anchors valid as both
// HTML ids and append-target selectors.
func fieldSlug(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		default:
			if !dash && sb.Len() > 0 {
				sb.WriteByte('-')
				dash = true
			}
		}
	}
	s := strings.TrimSuffix(sb.String(), "-")
	if s == "" {
		return "field"
	}
	return s
}
