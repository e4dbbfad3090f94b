package escalation

import "strings"

// SafeFallbackResponse is what callers show when no guidance survives the
// guard.
const SafeFallbackResponse = "I don't have the specific contact details for this. You can usually find the right contact in your welcome pack or development documentation."

// Matched case-insensitively. The last four are session tokens that must have
// been filled or pruned before output.
var forbiddenTokens = []string{
	"relevant party",
	"appropriate party",
	"the party",
	"[contact]",
	"[name]",
	"[email]",
	"[phone]",
	"[address]",
	"contact the relevant",
	"reach out to the relevant",
	"speak to the relevant",
	"[development_name]",
	"[unit_number]",
	"[unit/house]",
	"[block]",
}

// ContainsForbiddenPlaceholders reports whether text still carries a vague
// party reference or an unfilled contact or session token.
func ContainsForbiddenPlaceholders(text string) bool {
	return containsAny(strings.ToLower(text), forbiddenTokens...)
}
