package cssbuilder

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cssbuilder/internal/config"
	"cssbuilder/internal/css"
	"cssbuilder/internal/html"
)

// Errors returned by the builder
var (
	ErrInvalidDescriptionShape = css.ErrInvalidDescriptionShape
	ErrUnboundedRecursion      = css.ErrUnboundedRecursion
	ErrNoSelector              = errors.New("selector required for a <style> block")
)

// Builder is the main CSS generation engine
type Builder struct {
	config     config.Config
	log        *zap.Logger
	builder    *css.Builder
	decoder    *css.Decoder
	htmlParser html.Parser
}

// New creates a new CSS builder with the given configuration
func New(cfg config.Config, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		config:     cfg,
		log:        log,
		builder:    css.NewBuilder(log, cfg.MaxDepth),
		decoder:    css.NewDecoder(log, cfg.Strict),
		htmlParser: html.NewParser(),
	}
}

// NewWithDefaults creates a new CSS builder with permissive defaults
func NewWithDefaults() *Builder {
	return New(config.Default(), nil)
}

// BuildResult contains the result of a build
type BuildResult struct {
	CSS   string    // Generated CSS text
	Stats css.Stats // Counters collected while building
}

// EmbedResult contains the result of embedding CSS into a document
type EmbedResult struct {
	HTML     string    // Final HTML document
	Elements int       // Elements whose style attribute was written (inline mode)
	Stats    css.Stats // Counters collected while building
}

// Build renders a description. desc may be a typed css.Description or any
// shape accepted by css.Decoder.FromValue.
func (b *Builder) Build(desc any, selector string) (*BuildResult, error) {
	d, err := b.describe(desc)
	if err != nil {
		return nil, err
	}
	if selector == "" {
		selector = b.config.Selector
	}

	out, stats, err := b.builder.Build(d, selector, b.config.Minified)
	if err != nil {
		return nil, fmt.Errorf("failed to build CSS: %w", err)
	}
	return &BuildResult{CSS: out, Stats: stats}, nil
}

// BuildForAttribute renders a description minified and escaped for an HTML
// style attribute. Nested entries are dropped.
func (b *Builder) BuildForAttribute(desc any) (*BuildResult, error) {
	d, err := b.describe(desc)
	if err != nil {
		return nil, err
	}

	out, stats, err := b.builder.BuildForAttribute(d)
	if err != nil {
		return nil, fmt.Errorf("failed to build CSS: %w", err)
	}
	return &BuildResult{CSS: out, Stats: stats}, nil
}

// BuildYAML renders a YAML or JSON description
func (b *Builder) BuildYAML(data []byte, selector string) (*BuildResult, error) {
	d, err := b.decoder.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode description: %w", err)
	}
	return b.Build(d, selector)
}

// DecodeYAML decodes a YAML or JSON description with the configured strictness
func (b *Builder) DecodeYAML(data []byte) (css.Description, error) {
	d, err := b.decoder.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode description: %w", err)
	}
	return d, nil
}

// EmbedStylesheet builds desc under selector and places the result in a
// <style> element in the document head. Without a selector (argument or
// configuration) ErrNoSelector is returned.
func (b *Builder) EmbedStylesheet(htmlContent string, desc any, selector string) (*EmbedResult, error) {
	doc, err := b.htmlParser.Parse(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return b.embedStylesheet(doc, desc, selector)
}

// EmbedStylesheetFile is EmbedStylesheet for an HTML file
func (b *Builder) EmbedStylesheetFile(filename string, desc any, selector string) (*EmbedResult, error) {
	doc, err := b.htmlParser.ParseFile(filename)
	if err != nil {
		return nil, err
	}
	return b.embedStylesheet(doc, desc, selector)
}

func (b *Builder) embedStylesheet(doc html.Document, desc any, selector string) (*EmbedResult, error) {
	if selector == "" {
		selector = b.config.Selector
	}
	if selector == "" {
		return nil, ErrNoSelector
	}

	built, err := b.Build(desc, selector)
	if err != nil {
		return nil, err
	}

	if built.CSS != "" {
		if _, err := html.EmbedStylesheet(doc, built.CSS, b.config.Embed.StyleID); err != nil {
			return nil, fmt.Errorf("failed to embed stylesheet: %w", err)
		}
	} else {
		b.log.Debug("Nothing to embed, description produced no CSS")
	}

	finalHTML, err := doc.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return &EmbedResult{HTML: finalHTML, Stats: built.Stats}, nil
}

// ApplyInlineStyle writes the declarations of desc into the style attribute
// of every element matching target.
func (b *Builder) ApplyInlineStyle(htmlContent string, desc any, target string) (*EmbedResult, error) {
	doc, err := b.htmlParser.Parse(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return b.applyInlineStyle(doc, desc, target)
}

// ApplyInlineStyleFile is ApplyInlineStyle for an HTML file
func (b *Builder) ApplyInlineStyleFile(filename string, desc any, target string) (*EmbedResult, error) {
	doc, err := b.htmlParser.ParseFile(filename)
	if err != nil {
		return nil, err
	}
	return b.applyInlineStyle(doc, desc, target)
}

func (b *Builder) applyInlineStyle(doc html.Document, desc any, target string) (*EmbedResult, error) {
	if target == "" {
		target = b.config.Embed.Target
	}
	if target == "" {
		return nil, errors.New("no target selector for inline styles")
	}

	d, err := b.describe(desc)
	if err != nil {
		return nil, err
	}
	// attribute values are escaped during serialization, so build unescaped
	declarations, stats, err := b.builder.Build(d, "", true)
	if err != nil {
		return nil, fmt.Errorf("failed to build CSS: %w", err)
	}

	count, err := html.ApplyInlineStyle(doc, target, declarations, b.config.Embed.ReplaceStyle)
	if err != nil {
		return nil, fmt.Errorf("failed to apply inline style: %w", err)
	}
	if count == 0 {
		b.log.Warn("No elements matched target selector", zap.String("target", target))
	}

	finalHTML, err := doc.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return &EmbedResult{HTML: finalHTML, Elements: count, Stats: stats}, nil
}

func (b *Builder) describe(desc any) (css.Description, error) {
	if d, ok := desc.(css.Description); ok {
		return d, nil
	}
	d, err := b.decoder.FromValue(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode description: %w", err)
	}
	return d, nil
}

// BuildCSS is a convenience function that renders a typed description
func BuildCSS(desc css.Description, selector string, minified bool) string {
	return css.Build(desc, selector, minified)
}

// BuildCSSAttr is a convenience function that renders a typed description
// for use inside an HTML style attribute
func BuildCSSAttr(desc css.Description) string {
	return css.BuildForAttribute(desc)
}
