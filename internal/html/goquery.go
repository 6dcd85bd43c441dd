package html

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// GoQueryDocument wraps goquery.Document to implement our Document interface
type GoQueryDocument struct {
	doc *goquery.Document
}

// GoQueryNode wraps goquery.Selection to implement our Node interface
type GoQueryNode struct {
	selection *goquery.Selection
	doc       *GoQueryDocument
}

// GoQueryParser implements our Parser interface using goquery
type GoQueryParser struct{}

// NewParser creates a new GoQuery-based HTML parser
func NewParser() *GoQueryParser {
	return &GoQueryParser{}
}

// Parse parses HTML string into a Document
func (p *GoQueryParser) Parse(htmlStr string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &GoQueryDocument{doc: doc}, nil
}

// ParseFile parses HTML file into a Document
func (p *GoQueryParser) ParseFile(filename string) (Document, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return p.Parse(string(content))
}

// Document implementation

// QuerySelectorAll returns all elements matching the selector
func (d *GoQueryDocument) QuerySelectorAll(selector string) ([]Node, error) {
	selection := d.doc.Find(selector)
	nodes := make([]Node, selection.Length())

	selection.Each(func(i int, s *goquery.Selection) {
		nodes[i] = &GoQueryNode{selection: s, doc: d}
	})

	return nodes, nil
}

// GetStyleTags returns all <style> elements
func (d *GoQueryDocument) GetStyleTags() ([]Node, error) {
	return d.QuerySelectorAll("style")
}

// CreateStyleTag appends a new <style> element with raw content to head
func (d *GoQueryDocument) CreateStyleTag(content, id string) (Node, error) {
	head := d.doc.Find("head").First()
	if head.Length() == 0 {
		return nil, ErrNoHead
	}

	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
	}
	if id != "" {
		style.Attr = append(style.Attr, html.Attribute{Key: "id", Val: id})
	}
	// style is a raw text element, its content is rendered unescaped
	style.AppendChild(&html.Node{Type: html.TextNode, Data: content})
	head.AppendNodes(style)

	return &GoQueryNode{selection: head.Children().Last(), doc: d}, nil
}

// HTML returns the complete HTML document as string
func (d *GoQueryDocument) HTML() (string, error) {
	html, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return html, nil
}

// Node implementation

// TagName returns the element's tag name
func (n *GoQueryNode) TagName() string {
	if n.selection.Length() == 0 {
		return ""
	}
	return goquery.NodeName(n.selection)
}

// Attribute returns the value of an attribute and whether it is present
func (n *GoQueryNode) Attribute(name string) (string, bool) {
	return n.selection.Attr(name)
}

// SetAttribute sets an attribute on the element
func (n *GoQueryNode) SetAttribute(name, value string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to set attribute on")
	}

	n.selection.SetAttr(name, value)
	return nil
}

// SetRawText replaces the children of the element with a single text node.
// Unlike goquery's SetText the content is not escaped, which raw text
// elements such as <style> require.
func (n *GoQueryNode) SetRawText(content string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to set text on")
	}

	node := n.selection.Get(0)
	for c := node.FirstChild; c != nil; c = node.FirstChild {
		node.RemoveChild(c)
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: content})
	return nil
}
