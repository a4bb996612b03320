// Package xmlenc renders attributed, nested XML trees. It exists because
// encoding/xml cannot emit CDATA sections for dynamically assembled
// documents, which VAST requires for every URL value.
package xmlenc

import (
	"strings"
)

// Node is one element of an XML tree. Exactly one of the concrete types
// Element, Text or CDATA implements it.
type Node interface {
	isNode()
}

// Attr is a single element attribute. Attributes keep insertion order.
type Attr struct {
	Name  string
	Value string
}

// Element is a named node with ordered attributes and children.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []Node
}

// Text is character data, escaped on serialization.
type Text string

// CDATA is literal character data emitted inside a CDATA section.
type CDATA string

func (*Element) isNode() {}
func (Text) isNode()     {}
func (CDATA) isNode()    {}

// NewElement constructs an element with no attributes or children.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// SetAttr sets an attribute, replacing any existing attribute with the
// same name while keeping its original position.
func (e *Element) SetAttr(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Append adds child nodes in order.
func (e *Element) Append(children ...Node) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Child returns the first direct child element with the given name, or
// nil when absent.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Name == name {
			return el
		}
	}
	return nil
}

// SetText replaces the element's children with a single text node.
func (e *Element) SetText(text string) *Element {
	e.Children = []Node{Text(text)}
	return e
}

// SetCDATA replaces the element's children with a single CDATA node.
func (e *Element) SetCDATA(text string) *Element {
	e.Children = []Node{CDATA(text)}
	return e
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five reserved XML characters in text content.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Options controls document serialization.
type Options struct {
	// Indent is the per-level indentation. Empty disables pretty
	// printing and renders the document on a single line.
	Indent string
	// OmitDeclaration suppresses the leading XML declaration.
	OmitDeclaration bool
}

const declaration = `<?xml version="1.0" encoding="UTF-8"?>`

// Serialize renders root as a complete XML document. It is a pure fold
// over the tree and cannot fail for any well-formed tree.
func Serialize(root *Element, opts Options) string {
	var b strings.Builder
	if !opts.OmitDeclaration {
		b.WriteString(declaration)
		if opts.Indent != "" {
			b.WriteByte('\n')
		}
	}
	writeElement(&b, root, opts.Indent, 0)
	if opts.Indent != "" {
		b.WriteByte('\n')
	}
	return b.String()
}

func writeElement(b *strings.Builder, e *Element, indent string, depth int) {
	prefix := strings.Repeat(indent, depth)
	b.WriteString(prefix)
	b.WriteByte('<')
	b.WriteString(e.Name)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(Escape(a.Value))
		b.WriteByte('"')
	}

	if len(e.Children) == 0 {
		b.WriteString("/>")
		return
	}

	b.WriteByte('>')

	// Elements with a single text or CDATA child render inline; nested
	// elements get one line per node when pretty printing.
	if inline(e) {
		writeLeaf(b, e.Children[0])
		b.WriteString("</")
		b.WriteString(e.Name)
		b.WriteByte('>')
		return
	}

	for _, c := range e.Children {
		if indent != "" {
			b.WriteByte('\n')
		}
		switch n := c.(type) {
		case *Element:
			writeElement(b, n, indent, depth+1)
		default:
			b.WriteString(strings.Repeat(indent, depth+1))
			writeLeaf(b, n)
		}
	}
	if indent != "" {
		b.WriteByte('\n')
		b.WriteString(prefix)
	}
	b.WriteString("</")
	b.WriteString(e.Name)
	b.WriteByte('>')
}

func inline(e *Element) bool {
	if len(e.Children) != 1 {
		return false
	}
	switch e.Children[0].(type) {
	case Text, CDATA:
		return true
	}
	return false
}

func writeLeaf(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case Text:
		b.WriteString(Escape(string(v)))
	case CDATA:
		b.WriteString("<![CDATA[")
		// A literal "]]>" would terminate the section early; split it
		// across two adjacent sections.
		b.WriteString(strings.ReplaceAll(string(v), "]]>", "]]]]><![CDATA[>"))
		b.WriteString("]]>")
	}
}
