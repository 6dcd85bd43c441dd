package css

import (
	"errors"
	"strconv"
	"strings"
)

// Errors reported by the strict boundary decoders and depth-limited builds
var (
	ErrInvalidDescriptionShape = errors.New("invalid description shape")
	ErrUnboundedRecursion      = errors.New("nesting exceeds depth limit")
)

// Description is either RawText or a RuleSet
type Description interface {
	isDescription()
}

// RawText is emitted verbatim as the body of a block
type RawText string

// RuleSet is an ordered list of property and nested entries
type RuleSet []Entry

func (RawText) isDescription() {}
func (RuleSet) isDescription() {}

// Entry is either a Property or a Nested block
type Entry interface {
	isEntry()
}

// Property represents one CSS property with its fallback values
type Property struct {
	Name   string  // Property name, already trimmed
	Values []Value // One declaration per non-discarded value
}

// Nested represents a selector pattern relative to the parent selector.
// Every '&' in Pattern is replaced with each parent selector in turn.
type Nested struct {
	Pattern string
	Rules   Description
}

func (Property) isEntry() {}
func (Nested) isEntry()   {}

// Value is a single scalar value of a property, or the discard marker
type Value struct {
	Text    string
	Discard bool
}

// Str creates a text value
func Str(s string) Value {
	return Value{Text: s}
}

// Int creates a value from an integer
func Int(i int) Value {
	return Value{Text: strconv.Itoa(i)}
}

// Float creates a value from a float, using the shortest representation
func Float(f float64) Value {
	return Value{Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Discard returns the marker that suppresses one declaration
func Discard() Value {
	return Value{Discard: true}
}

// When returns s if cond holds and the discard marker otherwise
func When(cond bool, s string) Value {
	if !cond {
		return Discard()
	}
	return Str(s)
}

// Rules builds a RuleSet from entries
func Rules(entries ...Entry) RuleSet {
	return RuleSet(entries)
}

// Prop builds a property entry from typed values
func Prop(name string, values ...Value) Property {
	return Property{Name: strings.TrimSpace(name), Values: values}
}

// Props builds a property entry from plain strings
func Props(name string, values ...string) Property {
	vals := make([]Value, len(values))
	for i, v := range values {
		vals[i] = Str(v)
	}
	return Prop(name, vals...)
}

// Nest builds a nested entry
func Nest(pattern string, rules Description) Nested {
	return Nested{Pattern: strings.TrimSpace(pattern), Rules: rules}
}

// IsNestedKey reports whether a raw key denotes a nested selector pattern
func IsNestedKey(key string) bool {
	return strings.Contains(key, "&")
}

// Stats contains counters collected during a build
type Stats struct {
	Declarations  int // Declarations written
	Discarded     int // Values skipped because of the discard marker
	Blocks        int // Selector blocks written
	NestedDropped int // Nested entries dropped for lack of a selector
	MaxDepth      int // Deepest nesting level reached (0 for top level only)
}
