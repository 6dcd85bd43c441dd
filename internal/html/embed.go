package html

import (
	"fmt"
	"strings"
)

// EmbedStylesheet places css into the document's <head>. If a <style>
// element with the given id already exists its content is replaced.
func EmbedStylesheet(doc Document, css, id string) (Node, error) {
	if id != "" {
		styleTags, err := doc.GetStyleTags()
		if err != nil {
			return nil, fmt.Errorf("failed to get style tags: %w", err)
		}
		for _, styleTag := range styleTags {
			if existing, ok := styleTag.Attribute("id"); ok && existing == id {
				if err := styleTag.SetRawText(css); err != nil {
					return nil, fmt.Errorf("failed to update style tag: %w", err)
				}
				return styleTag, nil
			}
		}
	}

	styleTag, err := doc.CreateStyleTag(css, id)
	if err != nil {
		return nil, fmt.Errorf("failed to create style tag: %w", err)
	}
	return styleTag, nil
}

// ApplyInlineStyle writes declarations into the style attribute of every
// element matching selector and returns the number of elements changed.
// declarations must be unescaped; serialization escapes attribute values.
func ApplyInlineStyle(doc Document, selector, declarations string, replace bool) (int, error) {
	nodes, err := doc.QuerySelectorAll(selector)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", selector, err)
	}

	for _, node := range nodes {
		style := declarations
		if existing, ok := node.Attribute("style"); ok && !replace {
			style = MergeStyle(existing, declarations)
		}
		if err := node.SetAttribute("style", style); err != nil {
			return 0, fmt.Errorf("failed to set style on %s: %w", node.TagName(), err)
		}
	}

	return len(nodes), nil
}

// MergeStyle appends declarations to an existing style attribute value,
// terminating the existing value with ';' when needed.
func MergeStyle(existing, declarations string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return declarations
	}
	if declarations == "" {
		return existing
	}
	if !strings.HasSuffix(existing, ";") {
		existing += ";"
	}
	return existing + declarations
}
