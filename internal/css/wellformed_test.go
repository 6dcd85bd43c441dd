package css_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	parse "github.com/tdewolff/parse/v2"
	tcss "github.com/tdewolff/parse/v2/css"

	"cssbuilder/internal/css"
)

// grammarSummary counts what a real CSS grammar parser sees in s
type grammarSummary struct {
	rulesets     int
	selectors    int
	properties   []string
	unbalanced   int
	unexpected   []tcss.GrammarType
	parseFailure error
}

func summarize(s string, inline bool) grammarSummary {
	var sum grammarSummary

	p := tcss.NewParser(parse.NewInputString(s), inline)
	for {
		gt, _, data := p.Next()
		switch gt {
		case tcss.ErrorGrammar:
			if p.Err() != io.EOF {
				sum.parseFailure = p.Err()
			}
			return sum
		case tcss.QualifiedRuleGrammar:
			// every selector of a comma list but the last
			sum.selectors++
		case tcss.BeginRulesetGrammar:
			sum.selectors++
			sum.rulesets++
			sum.unbalanced++
		case tcss.EndRulesetGrammar:
			sum.unbalanced--
		case tcss.DeclarationGrammar:
			sum.properties = append(sum.properties, string(data))
		default:
			sum.unexpected = append(sum.unexpected, gt)
		}
	}
}

func TestBuild_OutputIsWellFormed(t *testing.T) {
	desc := css.Rules(
		css.Props("color", "red"),
		css.Props("background", "red", "linear-gradient(red, blue)"),
		css.Prop("border", css.Discard()),
		css.Nest("&:hover, &:focus", css.Rules(
			css.Props("color", "blue"),
			css.Nest("& > span", css.Rules(css.Props("text-decoration", "underline"))),
		)),
		css.Nest("& + &", css.Rules(css.Props("margin-left", "4px"))),
	)

	for _, minified := range []bool{false, true} {
		sum := summarize(css.Build(desc, ".btn, a.link", minified), false)

		require.NoError(t, sum.parseFailure)
		assert.Empty(t, sum.unexpected)
		assert.Zero(t, sum.unbalanced)
		assert.Equal(t, 4, sum.rulesets)
		// 2 parents, 2x2 hover/focus, 4 spans, 2 siblings
		assert.Equal(t, 12, sum.selectors)
		assert.Equal(t, []string{"color", "background", "background", "color", "text-decoration", "margin-left"}, sum.properties)
	}
}

func TestBuildForAttribute_ParsesAsInlineDeclarations(t *testing.T) {
	desc := css.Rules(
		css.Props("color", "red"),
		css.Props("font-size", "12px"),
		css.Nest("&:hover", css.Rules(css.Props("color", "blue"))),
	)

	sum := summarize(css.Build(desc, "", true), true)

	require.NoError(t, sum.parseFailure)
	assert.Zero(t, sum.rulesets)
	assert.Equal(t, []string{"color", "font-size"}, sum.properties)
}
