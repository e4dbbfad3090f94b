// internal/assistant/formatting/formatting.go

// Package formatting turns model output and escalation text into plain chat
// text. Every function is a pure string transform.
package formatting

import (
	"regexp"
	"strings"
)

var (
	fencedCodeRe = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\n?(.*?)```")
	imageRe      = regexp.MustCompile(`!\[[^\]\n]*\]\([^)\n]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]\n]+)\]\([^)\n]+\)`)
	inlineCodeRe = regexp.MustCompile("`([^`\\n]+)`")
	boldStarRe   = regexp.MustCompile(`\*\*([^\n]+?)\*\*`)
	boldUnderRe  = regexp.MustCompile(`__([^\n]+?)__`)

	// RE2 has no lookaround, so the neighbouring character is captured and
	// written back. A word character on either side means snake_case or
	// arithmetic, not emphasis.
	italicStarRe  = regexp.MustCompile(`(^|[^*\w])\*([^\s*](?:[^*\n]*[^\s*])?)\*([^*\w]|$)`)
	italicUnderRe = regexp.MustCompile(`(^|[^_\w])_([^\s_](?:[^_\n]*[^\s_])?)_([^_\w]|$)`)

	headingRe     = regexp.MustCompile(`(?m)^[ \t]*(?:#{1,6}[ \t]+)+`)
	hrDashRe      = regexp.MustCompile(`(?m)^[ \t]*(?:-[ \t]*){3,}$`)
	hrStarRe      = regexp.MustCompile(`(?m)^[ \t]*(?:\*[ \t]*){3,}$`)
	hrUnderRe     = regexp.MustCompile(`(?m)^[ \t]*(?:_[ \t]*){3,}$`)
	blockquoteRe  = regexp.MustCompile(`(?m)^[ \t]*(?:>[ \t]?)+`)
	orderedListRe = regexp.MustCompile(`(?m)^([ \t]*)\d+[.)][ \t]+`)
	starBulletRe  = regexp.MustCompile(`(?m)^([ \t]*)[*+][ \t]+`)
	trailingWSRe  = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	spaceRunRe    = regexp.MustCompile(` {2,}`)
)

// SanitizeForChat strips markdown constructs so the text renders cleanly in a
// plain chat bubble. Code fences keep their trimmed body, links keep their
// text, images are dropped, and ordered lists become dash lists.
func SanitizeForChat(text string) string {
	if text == "" {
		return ""
	}
	// Every pass either shortens the text or turns a '*' or '+' bullet into
	// '-', so the loop terminates. The result is a fixpoint of sanitizePass,
	// which is what makes SanitizeForChat idempotent.
	out := text
	for {
		next := sanitizePass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func sanitizePass(text string) string {
	out := strings.ReplaceAll(text, "\r\n", "\n")
	out = fencedCodeRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := fencedCodeRe.FindStringSubmatch(m)
		return strings.TrimSpace(sub[1])
	})
	// Unterminated fences.
	out = strings.ReplaceAll(out, "```", "")

	out = imageRe.ReplaceAllString(out, "")
	out = linkRe.ReplaceAllString(out, "$1")
	out = inlineCodeRe.ReplaceAllString(out, "$1")
	out = strings.ReplaceAll(out, "`", "")

	// Rules go before emphasis so "***" is not read as bold.
	out = hrDashRe.ReplaceAllString(out, "")
	out = hrStarRe.ReplaceAllString(out, "")
	out = hrUnderRe.ReplaceAllString(out, "")

	out = boldStarRe.ReplaceAllString(out, "$1")
	out = boldUnderRe.ReplaceAllString(out, "$1")
	out = strings.ReplaceAll(out, "**", "")
	out = strings.ReplaceAll(out, "__", "")
	out = replaceItalics(out, italicStarRe)
	out = replaceItalics(out, italicUnderRe)

	out = headingRe.ReplaceAllString(out, "")
	out = blockquoteRe.ReplaceAllString(out, "")
	out = orderedListRe.ReplaceAllString(out, "$1- ")
	out = starBulletRe.ReplaceAllString(out, "$1- ")

	out = trailingWSRe.ReplaceAllString(out, "")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// replaceItalics repeats until stable: adjacent spans share a boundary
// character, so a single ReplaceAll skips every second one.
func replaceItalics(text string, re *regexp.Regexp) string {
	for {
		next := re.ReplaceAllString(text, "$1$2$3")
		if next == text {
			return next
		}
		text = next
	}
}

// RemoveEmDashes swaps em and en dashes for a spaced hyphen.
func RemoveEmDashes(text string) string {
	text = strings.ReplaceAll(text, "—", " - ")
	return strings.ReplaceAll(text, "–", " - ")
}

// NormalizeWhitespace turns tabs into spaces, collapses space runs and
// excess blank lines, and trims the result.
func NormalizeWhitespace(text string) string {
	out := strings.ReplaceAll(text, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\t", " ")
	out = spaceRunRe.ReplaceAllString(out, " ")
	out = trailingWSRe.ReplaceAllString(out, "")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// CleanForDisplay is the full display pipeline.
func CleanForDisplay(text string) string {
	return NormalizeWhitespace(RemoveEmDashes(SanitizeForChat(text)))
}

// HasMarkdownTokens reports whether any construct SanitizeForChat removes is
// still present.
func HasMarkdownTokens(text string) bool {
	if strings.Contains(text, "`") || strings.Contains(text, "**") || strings.Contains(text, "__") {
		return true
	}
	for _, re := range []*regexp.Regexp{
		imageRe, linkRe, italicStarRe, italicUnderRe, headingRe,
		hrDashRe, hrStarRe, hrUnderRe, blockquoteRe, orderedListRe, starBulletRe,
	} {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
