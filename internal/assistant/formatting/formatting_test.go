package formatting

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Sanitizer Tests
// ==========================

func TestSanitizeForChat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced code keeps trimmed body",
			input:    "Try this:\n```text\n  reset the controller  \n```\nThen wait.",
			expected: "Try this:\nreset the controller\nThen wait.",
		},
		{
			name:     "inline code ticks",
			input:    "Press `MODE` twice",
			expected: "Press MODE twice",
		},
		{
			name:     "bold markers",
			input:    "**Unit Details:** and __Block__",
			expected: "Unit Details: and Block",
		},
		{
			name:     "single star and underscore emphasis",
			input:    "This is *important* and _urgent_ now",
			expected: "This is important and urgent now",
		},
		{
			name:     "adjacent emphasis spans",
			input:    "*one* *two* *three*",
			expected: "one two three",
		},
		{
			name:     "snake case survives",
			input:    "Intent heat_pump_issue and 3 * 4 = 12",
			expected: "Intent heat_pump_issue and 3 * 4 = 12",
		},
		{
			name:     "headings",
			input:    "## Heating Your Home\n\nIntro",
			expected: "Heating Your Home\n\nIntro",
		},
		{
			name:     "horizontal rule",
			input:    "Above\n\n---\n\nBelow",
			expected: "Above\n\nBelow",
		},
		{
			name:     "links keep text and images vanish",
			input:    "See [the portal](https://example.ie/snags) ![logo](logo.png)",
			expected: "See the portal",
		},
		{
			name:     "blockquote markers",
			input:    "> Note: turn off the stopcock",
			expected: "Note: turn off the stopcock",
		},
		{
			name:     "ordered list becomes dashes",
			input:    "1. Open windows\n2. Leave the property",
			expected: "- Open windows\n- Leave the property",
		},
		{
			name:     "star bullets become dashes",
			input:    "* Paintwork\n+ Joinery",
			expected: "- Paintwork\n- Joinery",
		},
		{
			name:     "blank line runs collapse",
			input:    "a\n\n\n\n\nb",
			expected: "a\n\nb",
		},
		{
			name:     "trailing whitespace per line",
			input:    "line one   \nline two\t\n",
			expected: "line one\nline two",
		},
		{
			name:     "bracket placeholders are not links",
			input:    "Unit/House: [UNIT_NUMBER]\n[YES/NO]",
			expected: "Unit/House: [UNIT_NUMBER]\n[YES/NO]",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeForChat(tt.input))
		})
	}
}

func TestRemoveEmDashes(t *testing.T) {
	assert.Equal(t, "heat pump - efficient - quiet", NormalizeWhitespace(RemoveEmDashes("heat pump—efficient – quiet")))
	assert.NotContains(t, RemoveEmDashes("a—b–c"), "—")
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c\n\nd", NormalizeWhitespace("a\tb     c\n\n\n\nd  "))
}

func TestCleanForDisplay(t *testing.T) {
	got := CleanForDisplay("**Note**—call   the OMC\n\n\n\n1. Today")
	assert.Equal(t, "Note - call the OMC\n\n- Today", got)
	assert.False(t, HasMarkdownTokens(got))
}

func TestHasMarkdownTokens(t *testing.T) {
	positives := []string{
		"**bold**", "`code`", "# Heading", "> quote", "1. first", "[a](b)",
		"![img](x.png)", "---", "*em*", "_em_", "* bullet",
	}
	for _, s := range positives {
		assert.True(t, HasMarkdownTokens(s), "expected markdown in %q", s)
	}

	negatives := []string{
		"plain text", "- dash bullet", "heat_pump", "3 * 4", "[UNIT_NUMBER]", "Call 999/112",
	}
	for _, s := range negatives {
		assert.False(t, HasMarkdownTokens(s), "expected no markdown in %q", s)
	}
}

// ==========================
// Property Tests
// ==========================

func markdownish() gopter.Gen {
	return gen.SliceOf(gen.OneConstOf(
		"**", "*", "_", "__", "`", "```", "```go\n", "# ", "## ", "> ", "1. ", "2) ",
		"* ", "+ ", "---", "[link](http://x)", "![img](y)", "word", "snake_case",
		" ", "\t", "\n", "\n\n\n", "\r\n", "—", "[UNIT_NUMBER]",
	)).Map(func(parts []string) string {
		return strings.Join(parts, "")
	})
}

func TestSanitizeForChat_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("idempotent on markdown-like text", prop.ForAll(
		func(s string) bool {
			once := SanitizeForChat(s)
			return SanitizeForChat(once) == once
		},
		markdownish(),
	))

	properties.Property("idempotent on arbitrary text", prop.ForAll(
		func(s string) bool {
			once := SanitizeForChat(s)
			return SanitizeForChat(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("no markdown survives", prop.ForAll(
		func(s string) bool {
			return !HasMarkdownTokens(SanitizeForChat(s))
		},
		markdownish(),
	))

	properties.TestingRun(t)
}
