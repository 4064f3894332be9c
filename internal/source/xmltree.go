package source

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// xmlElem is a light DOM node. Mixed content is preserved: kids holds
// text runs and child elements interleaved in document order, which
// matters when paragraph text surrounds inline binary tags.
type xmlElem struct {
	name  string // local name, namespace stripped
	attrs map[string]string
	kids  []xmlChild
}

type xmlChild struct {
	text string
	elem *xmlElem // nil for text runs
}

func parseXMLTree(r io.Reader) (*xmlElem, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	root := &xmlElem{name: ""}
	stack := []*xmlElem{root}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElem{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				el.attrs[a.Name.Local] = a.Value
			}
			top.kids = append(top.kids, xmlChild{elem: el})
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if s := string(t); s != "" {
				top.kids = append(top.kids, xmlChild{text: s})
			}
		}
	}

	for _, k := range root.kids {
		if k.elem != nil {
			return k.elem, nil
		}
	}
	return nil, fmt.Errorf("parse xml: no root element")
}

func (e *xmlElem) attr(name string) string {
	return e.attrs[name]
}

// children returns the direct child elements.
func (e *xmlElem) children() []*xmlElem {
	var out []*xmlElem
	for _, k := range e.kids {
		if k.elem != nil {
			out = append(out, k.elem)
		}
	}
	return out
}

// find returns the first descendant element with the given local name.
func (e *xmlElem) find(name string) *xmlElem {
	for _, k := range e.kids {
		if k.elem == nil {
			continue
		}
		if k.elem.name == name {
			return k.elem
		}
		if m := k.elem.find(name); m != nil {
			return m
		}
	}
	return nil
}

// findAll returns all descendant elements with the given local name,
// in document order.
func (e *xmlElem) findAll(name string) []*xmlElem {
	var out []*xmlElem
	for _, k := range e.kids {
		if k.elem == nil {
			continue
		}
		if k.elem.name == name {
			out = append(out, k.elem)
		}
		out = append(out, k.elem.findAll(name)...)
	}
	return out
}

// text concatenates every text run beneath the element.
func (e *xmlElem) text() string {
	var sb strings.Builder
	e.writeText(&sb, nil)
	return sb.String()
}

// textExcluding concatenates text runs, skipping subtrees whose element
// name is in skip. Text following a skipped subtree is kept.
func (e *xmlElem) textExcluding(skip map[string]bool) string {
	var sb strings.Builder
	e.writeText(&sb, skip)
	return sb.String()
}

func (e *xmlElem) writeText(sb *strings.Builder, skip map[string]bool) {
	for _, k := range e.kids {
		if k.elem == nil {
			sb.WriteString(k.text)
			continue
		}
		if skip != nil && skip[k.elem.name] {
			continue
		}
		k.elem.writeText(sb, skip)
	}
}
