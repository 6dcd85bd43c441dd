package cssbuilder

import (
	"cssbuilder/internal/config"
	"cssbuilder/internal/css"
)

// Re-exported model so callers outside this module can build descriptions
type (
	Config      = config.Config
	Description = css.Description
	RawText     = css.RawText
	RuleSet     = css.RuleSet
	Entry       = css.Entry
	Property    = css.Property
	Nested      = css.Nested
	Value       = css.Value
	Map         = css.Map
	KV          = css.KV
	Stats       = css.Stats
)

// Constructors for typed descriptions
var (
	Rules   = css.Rules
	Prop    = css.Prop
	Props   = css.Props
	Nest    = css.Nest
	Str     = css.Str
	Int     = css.Int
	Float   = css.Float
	When    = css.When
	Discard = css.Discard
)

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return config.Default()
}
