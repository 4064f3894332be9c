package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/notepress/internal/record"
	"github.com/dgallion1/notepress/internal/richtext"
	"golang.org/x/net/html"
)

// HTMLReader handles HTML exports: paragraph-like elements become
// paragraph nodes, tables become table nodes.
type HTMLReader struct{}

func (p *HTMLReader) Read(r io.Reader, filename string) (*record.Record, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rec := &record.Record{Source: filename}
	if title := findTitle(doc); title != "" {
		rec.AddField("Title", title)
	}

	var nodes []richtext.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "table":
				nodes = append(nodes, htmlTable(n))
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "blockquote":
				if t := textContent(n); t != "" {
					nodes = append(nodes, &richtext.Paragraph{Text: t})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	rec.Rich = append(rec.Rich, richtext.RichField{Name: "Body", Nodes: nodes})
	return rec, nil
}

func htmlTable(table *html.Node) *richtext.Table {
	t := &richtext.Table{}
	var rows func(*html.Node)
	rows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, textContent(c))
				}
			}
			t.Rows = append(t.Rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rows(c)
		}
	}
	rows(table)
	return t
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
