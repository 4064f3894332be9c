package render

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/notepress/internal/record"
	"github.com/dgallion1/notepress/internal/richtext"
)

// Title builds the page title from the layout's title fields, falling
// back to the source filename without extension.
func Title(rec *record.Record, layout Layout) string {
	var parts []string
	for _, name := range layout.TitleFields {
		if v := strings.TrimSpace(rec.Field(name)); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "_")
	}
	base := filepath.Base(rec.Source)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return "untitled"
	}
	return base
}

// RichSection is one walked rich field ready for the body, in
// presentation order. A slice keeps repeated field names distinct,
// which a name-keyed map would collapse.
type RichSection struct {
	Name string
	Body richtext.Fragment
}

// Body assembles the full page body: scalar metadata tables per the
// layout, then each rich section's walked fragment under a heading,
// then the attachment and link listings. Anchor slots inside the rich
// fragments pass through untouched.
func Body(rec *record.Record, layout Layout, rich []RichSection, rowNo int) richtext.Fragment {
	var body richtext.Fragment
	body.WriteHTML("<div style='max-width:1100px; min-width:900px; margin:0 auto; padding:8px;'>")

	rendered := make(map[string]bool)
	for _, sec := range layout.Sections {
		writeSectionTitle(&body, sec.Title)
		writeFieldTable(&body, rec, sec.Fields, rendered)
	}

	if layout.IncludeExtras {
		var extras []string
		for _, f := range rec.Fields {
			if !rendered[f.Name] {
				extras = append(extras, f.Name)
			}
		}
		if len(extras) > 0 {
			if len(layout.Sections) > 0 {
				writeSectionTitle(&body, "Other fields")
			}
			writeFieldTable(&body, rec, extras, rendered)
		}
	}

	for _, sec := range rich {
		writeSectionTitle(&body, sec.Name)
		body.Append(sec.Body)
	}

	writeSectionTitle(&body, "Attachments")
	if len(rec.Attachments) > 0 {
		body.WriteHTML("<ul>")
		for _, a := range rec.Attachments {
			body.WriteHTML("<li>" + richtext.EscapeText(a.Filename) + "</li>")
		}
		body.WriteHTML("</ul>")
	} else {
		body.WriteHTML("<span style='color:#888;'>(none)</span>")
	}

	if len(rec.Links) > 0 {
		writeSectionTitle(&body, "Links")
		body.WriteHTML("<ul>")
		for _, l := range rec.Links {
			label := l.Label
			if label == "" {
				label = l.HRef
			}
			body.WriteHTML("<li><a href='" + richtext.EscapeText(l.HRef) + "'>" +
				richtext.EscapeText(label) + "</a></li>")
		}
		body.WriteHTML("</ul>")
	}

	if rec.Source != "" && rowNo > 0 {
		body.WriteHTML("<div style='margin-top:10px; color:#888; font-size:12px;'>Source: " +
			richtext.EscapeText(filepath.Base(rec.Source)) +
			" / row " + strconv.Itoa(rowNo) + "</div>")
	}

	body.WriteHTML("</div>")
	return body
}

// RichFieldOrder returns indices into rec.Rich in presentation order:
// the layout's order when it names rich fields, record order
// otherwise. Indices rather than names so a repeated field name keeps
// every occurrence; a layout name selects all matching fields in
// record order.
func RichFieldOrder(rec *record.Record, layout Layout) []int {
	if len(layout.RichFields) == 0 {
		out := make([]int, len(rec.Rich))
		for i := range out {
			out[i] = i
		}
		return out
	}
	var out []int
	for _, name := range layout.RichFields {
		for i, f := range rec.Rich {
			if f.Name == name {
				out = append(out, i)
			}
		}
	}
	return out
}

func writeSectionTitle(body *richtext.Fragment, title string) {
	body.WriteHTML("<div style='margin-top:16px; padding:8px 10px; background:#eef6ff; border:1px solid #cfe6ff;'><b>" +
		richtext.EscapeText(title) + "</b></div>")
}

func writeFieldTable(body *richtext.Fragment, rec *record.Record, names []string, rendered map[string]bool) {
	body.WriteHTML("<table style='width:100%; border-collapse:collapse;'>")
	for _, name := range names {
		rendered[name] = true
		value := NormalizeDateTime(rec.Field(name))
		body.WriteHTML("<tr>" +
			"<td style='width:180px; background:#f5f5f5; border:1px solid #ddd; padding:6px; vertical-align:top;'><b>" +
			richtext.EscapeText(name) + "</b></td>" +
			"<td style='border:1px solid #ddd; padding:6px; vertical-align:top;'>" +
			richtext.TextToHTML(value) + "</td></tr>")
	}
	body.WriteHTML("</table>")
}
