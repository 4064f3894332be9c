package richtext

import (
	"html"
	"strings"
)

// Fragment is body markup under construction: a sequence of literal
// HTML runs and named anchor slots. Slots are substituted before final
// serialization, so resolved content is never spliced into an
// already-serialized string.
type Fragment struct {
	parts []fragmentPart
}

type fragmentPart struct {
	html   string
	anchor string // non-empty marks an anchor slot
}

// WriteHTML appends a literal markup run.
func (f *Fragment) WriteHTML(s string) {
	f.parts = append(f.parts, fragmentPart{html: s})
}

// WriteSlot appends an anchor slot for the given segment anchor id.
func (f *Fragment) WriteSlot(anchorID string) {
	f.parts = append(f.parts, fragmentPart{anchor: anchorID})
}

// Append concatenates another fragment onto this one.
func (f *Fragment) Append(other Fragment) {
	f.parts = append(f.parts, other.parts...)
}

// Anchors returns the slot anchor ids in document order.
func (f Fragment) Anchors() []string {
	var out []string
	for _, p := range f.parts {
		if p.anchor != "" {
			out = append(out, p.anchor)
		}
	}
	return out
}

// Render serializes the fragment. Slots present in resolved get their
// markup injected inside the anchor div; the rest serialize as empty
// anchor divs so a later append request can target them.
func (f Fragment) Render(resolved map[string]string) string {
	var sb strings.Builder
	for _, p := range f.parts {
		if p.anchor == "" {
			sb.WriteString(p.html)
			continue
		}
		id := html.EscapeString(p.anchor)
		sb.WriteString("<div id=\"")
		sb.WriteString(id)
		sb.WriteString("\" data-id=\"")
		sb.WriteString(id)
		sb.WriteString("\">")
		if inner, ok := resolved[p.anchor]; ok {
			sb.WriteString(inner)
		}
		sb.WriteString("</div>")
	}
	return sb.String()
}

// EscapeText HTML-escapes plain text.
func EscapeText(s string) string {
	return html.EscapeString(s)
}

// TextToHTML escapes text and converts newlines to <br/> tags.
func TextToHTML(s string) string {
	t := strings.ReplaceAll(s, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	return strings.ReplaceAll(html.EscapeString(t), "\n", "<br/>")
}
