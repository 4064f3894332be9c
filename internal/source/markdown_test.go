package source

import (
	"strings"
	"testing"

	"github.com/dgallion1/notepress/internal/richtext"
)

func TestMarkdownReader_BlocksBecomeParagraphs(t *testing.T) {
	input := `# Title

Intro text.

Second paragraph with *emphasis*.
`
	rec, err := (&MarkdownReader{}).Read(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.Rich) != 1 || rec.Rich[0].Name != "Body" {
		t.Fatalf("expected one rich field Body, got %+v", rec.Rich)
	}
	nodes := rec.Rich[0].Nodes
	if len(nodes) != 3 {
		t.Fatalf("expected 3 paragraph nodes, got %d", len(nodes))
	}

	// Exact matches: block text must come out once, not repeated.
	if first := nodes[0].(*richtext.Paragraph); first.Text != "Title" {
		t.Errorf("heading = %q, want %q", first.Text, "Title")
	}
	if second := nodes[1].(*richtext.Paragraph); second.Text != "Intro text." {
		t.Errorf("paragraph = %q, want %q", second.Text, "Intro text.")
	}
	if third := nodes[2].(*richtext.Paragraph); third.Text != "Second paragraph with emphasis." {
		t.Errorf("paragraph = %q, want %q", third.Text, "Second paragraph with emphasis.")
	}
}

func TestMarkdownReader_FencedCodeKeepsRawLines(t *testing.T) {
	input := "Intro.\n\n```\nfmt.Println(\"hi\")\n```\n"
	rec, err := (&MarkdownReader{}).Read(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodes := rec.Rich[0].Nodes
	if len(nodes) != 2 {
		t.Fatalf("expected 2 paragraph nodes, got %d", len(nodes))
	}
	if p := nodes[1].(*richtext.Paragraph); p.Text != `fmt.Println("hi")` {
		t.Errorf("code block = %q", p.Text)
	}
}

func TestHTMLReader_TitleParagraphsAndTables(t *testing.T) {
	input := `<html><head><title>Doc Title</title><style>p{}</style></head>
<body>
<nav>skip me</nav>
<h1>Heading</h1>
<p>Body paragraph.</p>
<table><tr><th>k</th><td>v</td></tr></table>
</body></html>`

	rec, err := (&HTMLReader{}).Read(strings.NewReader(input), "doc.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rec.Field("Title"); got != "Doc Title" {
		t.Errorf("title field = %q", got)
	}

	nodes := rec.Rich[0].Nodes
	if len(nodes) != 3 {
		t.Fatalf("expected heading, paragraph and table, got %d nodes", len(nodes))
	}
	if p := nodes[0].(*richtext.Paragraph); p.Text != "Heading" {
		t.Errorf("heading = %q", p.Text)
	}
	if p := nodes[1].(*richtext.Paragraph); p.Text != "Body paragraph." {
		t.Errorf("paragraph = %q", p.Text)
	}
	tbl, ok := nodes[2].(*richtext.Table)
	if !ok || len(tbl.Rows) != 1 {
		t.Fatalf("table node wrong: %+v", nodes[2])
	}
	if tbl.Rows[0][0] != "k" || tbl.Rows[0][1] != "v" {
		t.Errorf("table cells = %v", tbl.Rows[0])
	}

	for _, n := range nodes {
		if p, ok := n.(*richtext.Paragraph); ok && strings.Contains(p.Text, "skip me") {
			t.Errorf("nav content leaked: %q", p.Text)
		}
	}
}
