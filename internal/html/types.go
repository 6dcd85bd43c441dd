package html

import "errors"

// ErrNoHead is returned when a document has no <head> to hold a style block
var ErrNoHead = errors.New("no head element found")

// Node represents an HTML element in the DOM tree
// This interface can be implemented by any HTML parsing library
type Node interface {
	// Core node information
	TagName() string
	Attribute(name string) (string, bool)

	// Modification
	SetAttribute(name, value string) error
	SetRawText(content string) error
}

// Document represents the complete HTML document
type Document interface {
	// Element selection
	QuerySelectorAll(selector string) ([]Node, error)

	// Style tag management
	GetStyleTags() ([]Node, error)
	CreateStyleTag(content, id string) (Node, error)

	// Serialization
	HTML() (string, error)
}

// Parser handles parsing HTML documents
type Parser interface {
	Parse(html string) (Document, error)
	ParseFile(filename string) (Document, error)
}
