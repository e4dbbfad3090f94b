package escalation

import (
	"strings"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Contact is a verified scheme contact. Empty fields are unknown.
type Contact struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// SchemeContacts are the only source of concrete contact details.
type SchemeContacts struct {
	Developer  *Contact           `json:"developer,omitempty"`
	OMC        *Contact           `json:"omc,omitempty"`
	Installers map[string]Contact `json:"installers,omitempty"`
}

type SessionContext struct {
	Block           string `json:"block,omitempty"`
	UnitNumber      string `json:"unitNumber,omitempty"`
	DevelopmentName string `json:"developmentName,omitempty"`
	IssueType       string `json:"issueType,omitempty"`
}

type Input struct {
	Intent         string          `json:"intent"`
	Confidence     Confidence      `json:"confidence"`
	GapReason      string          `json:"gapReason,omitempty"`
	SchemeContacts *SchemeContacts `json:"schemeContacts,omitempty"`
	Session        SessionContext  `json:"sessionContext"`
}

// Output is the routing result. ContactInfo and Disclaimer are empty when
// absent.
type Output struct {
	Target            Target   `json:"escalationTarget"`
	TargetDescription string   `json:"targetDescription"`
	MessageTemplate   string   `json:"messageTemplate"`
	RequiredFields    []string `json:"requiredFields"`
	ContactInfo       string   `json:"contactInfo,omitempty"`
	Disclaimer        string   `json:"disclaimer,omitempty"`
	UrgencyLevel      Urgency  `json:"urgencyLevel"`
}

var allowedIntents = []string{
	"snagging", "snag", "warranty", "warranties", "defect", "defects",
	"emergency", "emergencies", "utilities_setup", "utilities",
	"management_company", "omc", "management", "payments", "fees", "service_charge",
	"heat_pump", "ev_charger", "appliance", "alarm", "solar", "ventilation", "mvhr",
	"structural", "construction", "gas_leak", "fire", "flood", "water_leak",
}

var blockedIntents = []string{
	"area_trivia", "local_area_fact", "local_history", "amenities", "nearby_places",
	"general_chat", "chit_chat", "greeting", "thanks", "goodbye", "did_you_know",
	"restaurants", "cafes", "shops", "schools", "transport",
}

// Gap reasons that trigger escalation regardless of confidence.
var lowConfidenceReasons = map[string]bool{
	"missing_scheme_data": true,
	"no_documents_found":  true,
	"low_doc_confidence":  true,
	"validation_failed":   true,
	"no_relevant_chunks":  true,
}

// IsAllowedForIntent reports whether an intent may ever escalate. The block
// list wins over the allow list, and intents on neither list are not
// eligible.
func IsAllowedForIntent(intent string) bool {
	normalized := strings.ToLower(intent)
	if containsAny(normalized, blockedIntents...) {
		return false
	}
	return containsAny(normalized, allowedIntents...)
}

// ShouldTrigger decides whether escalation is warranted. An empty intent
// skips the eligibility check.
func ShouldTrigger(confidence Confidence, gapReason, intent string) bool {
	if intent != "" && !IsAllowedForIntent(intent) {
		return false
	}
	if confidence == ConfidenceLow || confidence == ConfidenceNone {
		return true
	}
	return lowConfidenceReasons[gapReason]
}

// DetermineTarget resolves who to contact from intent keywords, in priority
// order: emergency services, installer, developer, OMC. Without a keyword hit
// the issue type's template decides.
func DetermineTarget(intent, issueType string) Target {
	normalized := strings.ToLower(intent)

	switch {
	case containsAny(normalized, "gas", "fire", "flood", "emergency"):
		return TargetEmergencyServices
	case containsAny(normalized, "heat_pump", "ev_charger", "appliance", "alarm", "solar",
		"ventilation", "mvhr", "daikin", "ohme"):
		return TargetInstaller
	case containsAny(normalized, "snag", "warranty", "defect", "structural", "construction"):
		return TargetDeveloper
	case containsAny(normalized, "service_charge", "communal", "parking", "management",
		"common_area", "bin", "lift", "entrance"):
		return TargetOMC
	}

	if issueType != "" {
		return TemplateForIssueType(issueType).Target
	}
	return TargetUnknown
}

// BuildContactInfo formats the scheme's contact for target. Installers only
// resolve when the scheme has exactly one, and emergency services never do.
func BuildContactInfo(target Target, contacts *SchemeContacts) (string, bool) {
	if contacts == nil {
		return "", false
	}

	switch target {
	case TargetDeveloper:
		return formatContact(contacts.Developer, false)
	case TargetOMC:
		return formatContact(contacts.OMC, false)
	case TargetInstaller:
		if len(contacts.Installers) != 1 {
			return "", false
		}
		for _, installer := range contacts.Installers {
			return formatContact(&installer, true)
		}
	}
	return "", false
}

func formatContact(c *Contact, withSpecialty bool) (string, bool) {
	if c == nil {
		return "", false
	}
	var parts []string
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	if withSpecialty && c.Specialty != "" {
		parts = append(parts, "("+c.Specialty+")")
	}
	if c.Email != "" {
		parts = append(parts, "Email: "+c.Email)
	}
	if c.Phone != "" {
		parts = append(parts, "Phone: "+c.Phone)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// Session tokens filled from SessionContext.
const (
	tokenDevelopmentName = "[DEVELOPMENT_NAME]"
	tokenUnitNumber      = "[UNIT_NUMBER]"
	tokenUnitHouse       = "[UNIT/HOUSE]"
	tokenBlock           = "[BLOCK]"
)

var sessionTokens = []string{tokenDevelopmentName, tokenUnitNumber, tokenUnitHouse, tokenBlock}

// PersonalizeTemplate substitutes session values into a message template.
// Tokens without a value are left in place.
func PersonalizeTemplate(message string, session SessionContext) string {
	result := message
	if session.DevelopmentName != "" {
		result = strings.ReplaceAll(result, tokenDevelopmentName, session.DevelopmentName)
	}
	if session.UnitNumber != "" {
		result = strings.ReplaceAll(result, tokenUnitNumber, session.UnitNumber)
		result = strings.ReplaceAll(result, tokenUnitHouse, session.UnitNumber)
	}
	if session.Block != "" {
		result = strings.ReplaceAll(result, tokenBlock, session.Block)
	}
	return result
}

// pruneUnfilled drops lines that still carry a session token, then any
// heading left without a body and any doubled blank line.
func pruneUnfilled(message string) string {
	var kept []string
	for _, line := range strings.Split(message, "\n") {
		if containsAny(line, sessionTokens...) {
			continue
		}
		kept = append(kept, line)
	}

	var out []string
	for i, line := range kept {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, ":**") {
			if i+1 >= len(kept) || strings.TrimSpace(kept[i+1]) == "" {
				continue
			}
		}
		if trimmed == "" && len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Route resolves target, template, personalised message and contact details
// for an escalation. The template comes from the session issue type, or the
// intent when no issue type is known.
func Route(in Input) *Output {
	target := DetermineTarget(in.Intent, in.Session.IssueType)

	lookup := in.Session.IssueType
	if lookup == "" {
		lookup = in.Intent
	}
	tpl := TemplateForIssueType(lookup)

	// The description must name the target actually routed to.
	description := tpl.TargetDescription
	if description == "" || tpl.Target != target {
		description = RoleDescription(target)
	}

	message := pruneUnfilled(PersonalizeTemplate(tpl.MessageTemplate, in.Session))
	contactInfo, _ := BuildContactInfo(target, in.SchemeContacts)

	required := make([]string, len(tpl.RequiredFields))
	copy(required, tpl.RequiredFields)

	return &Output{
		Target:            target,
		TargetDescription: description,
		MessageTemplate:   message,
		RequiredFields:    required,
		ContactInfo:       contactInfo,
		Disclaimer:        tpl.Disclaimer,
		UrgencyLevel:      tpl.UrgencyLevel,
	}
}
