package css

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Builder renders descriptions into CSS text
type Builder struct {
	log      *zap.Logger
	maxDepth int
}

// NewBuilder creates a new CSS builder. A maxDepth of zero disables the nesting limit.
func NewBuilder(log *zap.Logger, maxDepth int) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &Builder{log: log.Named("css-builder"), maxDepth: maxDepth}
}

var permissive = NewBuilder(nil, 0)

// Build renders desc under selector. An empty selector produces bare
// declarations suitable for a style attribute; nested entries are dropped then.
// The result never contains the sequence "</style".
func Build(desc Description, selector string, minified bool) string {
	// without a depth limit the build cannot fail
	out, _, _ := permissive.Build(desc, selector, minified)
	return out
}

// BuildForAttribute renders desc minified and without a selector, escaped for
// use inside a quoted HTML attribute value.
func BuildForAttribute(desc Description) string {
	return EscapeAttribute(Build(desc, "", true))
}

// EscapeAttribute escapes &, ', ", < and > so s can be placed in an attribute
// value delimited by either quote character.
func EscapeAttribute(s string) string {
	return html.EscapeString(s)
}

// Build renders desc under selector and reports build statistics
func (b *Builder) Build(desc Description, selector string, minified bool) (string, Stats, error) {
	r := &renderer{log: b.log, maxDepth: b.maxDepth}
	if !minified {
		r.tab, r.nl = "\t", "\n"
	}

	out, err := r.render(desc, selector, 0)
	if err != nil {
		return "", Stats{}, err
	}

	b.log.Debug("Built CSS",
		zap.String("selector", selector),
		zap.Bool("minified", minified),
		zap.Int("declarations", r.stats.Declarations),
		zap.Int("discarded", r.stats.Discarded),
		zap.Int("blocks", r.stats.Blocks),
		zap.Int("dropped", r.stats.NestedDropped))

	return out, r.stats, nil
}

// BuildForAttribute is the escaped, minified, selector-less form of Build
func (b *Builder) BuildForAttribute(desc Description) (string, Stats, error) {
	out, stats, err := b.Build(desc, "", true)
	if err != nil {
		return "", stats, err
	}
	return EscapeAttribute(out), stats, nil
}

// renderer carries the state of a single build
type renderer struct {
	log      *zap.Logger
	maxDepth int
	tab, nl  string
	stats    Stats
}

func (r *renderer) render(desc Description, selector string, depth int) (string, error) {
	if r.maxDepth > 0 && depth > r.maxDepth {
		return "", fmt.Errorf("%w: level %d under %q", ErrUnboundedRecursion, depth, selector)
	}
	if depth > r.stats.MaxDepth {
		r.stats.MaxDepth = depth
	}

	var (
		body   strings.Builder
		nested []Nested
	)

	switch d := desc.(type) {
	case RawText:
		body.WriteString(r.tab + string(d) + r.nl)
	case RuleSet:
		for _, entry := range d {
			switch e := entry.(type) {
			case Nested:
				// nested blocks always follow own declarations
				nested = append(nested, e)
			case Property:
				for _, v := range e.Values {
					if v.Discard {
						r.stats.Discarded++
						continue
					}
					body.WriteString(r.tab + e.Name + ": " + v.Text + ";" + r.nl)
					r.stats.Declarations++
				}
			}
		}
	}

	if selector == "" {
		if len(nested) > 0 {
			r.stats.NestedDropped += len(nested)
			r.log.Debug("Dropping nested entries without selector", zap.Int("entries", len(nested)))
		}
		return defuse(body.String()), nil
	}

	var out strings.Builder
	if body.Len() > 0 {
		out.WriteString(selector + "{" + r.nl + body.String() + "}" + r.nl)
		r.stats.Blocks++
	}

	if len(nested) > 0 {
		parents := SplitSelectors(selector)
		for _, n := range nested {
			child, err := r.render(n.Rules, ComposeSelector(n.Pattern, parents, r.nl), depth+1)
			if err != nil {
				return "", err
			}
			out.WriteString(child)
		}
	}

	return defuse(out.String()), nil
}

// SplitSelectors splits a selector list on commas, dropping empty parts
func SplitSelectors(selector string) []string {
	var parents []string
	for part := range strings.SplitSeq(selector, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parents = append(parents, part)
		}
	}
	return parents
}

// ComposeSelector expands pattern once per parent, replacing every '&' with
// that parent, and joins the expansions with "," followed by sep.
func ComposeSelector(pattern string, parents []string, sep string) string {
	expanded := make([]string, len(parents))
	for i, parent := range parents {
		expanded[i] = strings.ReplaceAll(pattern, "&", parent)
	}
	return strings.Join(expanded, ","+sep)
}

// defuse neutralizes closing style tags so output can live inside <style>
func defuse(s string) string {
	return strings.ReplaceAll(s, "</style", "&lt;/style")
}
