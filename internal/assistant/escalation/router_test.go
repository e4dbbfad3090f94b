package escalation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Eligibility and Trigger Tests
// ==========================

func TestIsAllowedForIntent(t *testing.T) {
	tests := []struct {
		intent  string
		allowed bool
	}{
		{"snagging", true},
		{"Heat_Pump", true},
		{"service_charge_query", true},
		{"gas_leak", true},
		{"water_leak", true},
		{"area_trivia", false},
		{"local_history", false},
		{"greeting", false},
		// block list wins even when an allowed word is present
		{"schools_near_fire_station", false},
		{"transport_emergency", false},
		// neither list
		{"weather", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			assert.Equal(t, tt.allowed, IsAllowedForIntent(tt.intent))
		})
	}
}

func TestShouldTrigger(t *testing.T) {
	tests := []struct {
		name       string
		confidence Confidence
		gapReason  string
		intent     string
		want       bool
	}{
		{"low confidence", ConfidenceLow, "", "snagging", true},
		{"no confidence", ConfidenceNone, "", "snagging", true},
		{"high confidence without reason", ConfidenceHigh, "", "snagging", false},
		{"medium confidence without reason", ConfidenceMedium, "", "snagging", false},
		{"high confidence with gap reason", ConfidenceHigh, "no_documents_found", "snagging", true},
		{"medium confidence with gap reason", ConfidenceMedium, "no_relevant_chunks", "warranty", true},
		{"unlisted gap reason", ConfidenceHigh, "category_mismatch", "snagging", false},
		{"blocked intent at low confidence", ConfidenceLow, "", "area_trivia", false},
		{"blocked intent with gap reason", ConfidenceNone, "missing_scheme_data", "area_trivia", false},
		{"no intent given", ConfidenceLow, "", "", true},
		{"unknown intent", ConfidenceLow, "", "weather", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldTrigger(tt.confidence, tt.gapReason, tt.intent))
		})
	}
}

// ==========================
// Target Resolution Tests
// ==========================

func TestDetermineTarget(t *testing.T) {
	tests := []struct {
		name      string
		intent    string
		issueType string
		want      Target
	}{
		{"gas", "gas_leak", "", TargetEmergencyServices},
		{"fire outranks installer", "fire_alarm", "", TargetEmergencyServices},
		{"heat pump", "heat_pump", "", TargetInstaller},
		{"installer outranks developer", "appliance_defect", "", TargetInstaller},
		{"snag", "snagging", "", TargetDeveloper},
		{"developer outranks omc", "structural_parking", "", TargetDeveloper},
		{"omc", "service_charge", "", TargetOMC},
		{"bin", "bin_collection", "", TargetOMC},
		{"issue type fallback", "general_question", "cracked wall", TargetDeveloper},
		{"issue type general", "general_question", "something odd", TargetUnknown},
		{"nothing", "general_question", "", TargetUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineTarget(tt.intent, tt.issueType))
		})
	}
}

// ==========================
// Contact Tests
// ==========================

func TestBuildContactInfo(t *testing.T) {
	developer := &Contact{Name: "Elm Homes", Email: "care@elmhomes.ie", Phone: "01 555 0100", Address: "1 Main St"}
	omc := &Contact{Email: "omc@elmgrove.ie"}
	installer := Contact{Name: "HeatCo", Specialty: "heat pumps", Phone: "01 555 0111"}

	tests := []struct {
		name     string
		target   Target
		contacts *SchemeContacts
		want     string
		ok       bool
	}{
		{"no contacts", TargetDeveloper, nil, "", false},
		{"developer", TargetDeveloper, &SchemeContacts{Developer: developer}, "Elm Homes\nEmail: care@elmhomes.ie\nPhone: 01 555 0100", true},
		{"developer missing", TargetDeveloper, &SchemeContacts{OMC: omc}, "", false},
		{"developer with only an address", TargetDeveloper, &SchemeContacts{Developer: &Contact{Address: "1 Main St"}}, "", false},
		{"omc partial", TargetOMC, &SchemeContacts{OMC: omc}, "Email: omc@elmgrove.ie", true},
		{
			"single installer", TargetInstaller,
			&SchemeContacts{Installers: map[string]Contact{"heat_pump": installer}},
			"HeatCo\n(heat pumps)\nPhone: 01 555 0111", true,
		},
		{
			"two installers are ambiguous", TargetInstaller,
			&SchemeContacts{Installers: map[string]Contact{"heat_pump": installer, "ev": {Name: "Ohme"}}},
			"", false,
		},
		{"no installers", TargetInstaller, &SchemeContacts{Developer: developer}, "", false},
		{"emergency services never", TargetEmergencyServices, &SchemeContacts{Developer: developer, OMC: omc}, "", false},
		{"unknown never", TargetUnknown, &SchemeContacts{Developer: developer}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BuildContactInfo(tt.target, tt.contacts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Personalisation and Routing Tests
// ==========================

func TestPersonalizeTemplate(t *testing.T) {
	msg := "Dev: [DEVELOPMENT_NAME] Unit: [UNIT_NUMBER] House: [UNIT/HOUSE] Block: [BLOCK] [BLOCK]"

	assert.Equal(t,
		"Dev: Elm Grove Unit: 14 House: 14 Block: B B",
		PersonalizeTemplate(msg, SessionContext{DevelopmentName: "Elm Grove", UnitNumber: "14", Block: "B"}))
	assert.Equal(t,
		"Dev: Elm Grove Unit: [UNIT_NUMBER] House: [UNIT/HOUSE] Block: [BLOCK] [BLOCK]",
		PersonalizeTemplate(msg, SessionContext{DevelopmentName: "Elm Grove"}))
	assert.Equal(t, msg, PersonalizeTemplate(msg, SessionContext{}))
}

func TestPruneUnfilled(t *testing.T) {
	in := strings.Join([]string{
		"Intro line.",
		"",
		"**Unit Details:**",
		"- Development: [DEVELOPMENT_NAME]",
		"- Unit/House: [UNIT_NUMBER]",
		"",
		"**Development:** [DEVELOPMENT_NAME]",
		"",
		"**Issue Description:**",
		"[DESCRIBE THE ISSUE]",
		"",
		"Thanks.",
	}, "\n")

	want := "Intro line.\n\n**Issue Description:**\n[DESCRIBE THE ISSUE]\n\nThanks."
	assert.Equal(t, want, pruneUnfilled(in))
}

func TestRoute_Personalization(t *testing.T) {
	out := Route(Input{
		Intent:     "snagging",
		Confidence: ConfidenceLow,
		Session:    SessionContext{DevelopmentName: "Elm Grove", UnitNumber: "14"},
	})

	assert.Equal(t, TargetDeveloper, out.Target)
	assert.Equal(t, "the property developer (snagging/warranty team)", out.TargetDescription)
	assert.Equal(t, UrgencyLow, out.UrgencyLevel)
	assert.Equal(t, []string{"unit_number", "issue_description", "location"}, out.RequiredFields)
	assert.Contains(t, out.MessageTemplate, "- Development: Elm Grove")
	assert.Contains(t, out.MessageTemplate, "- Unit/House: 14")
	assert.NotContains(t, out.MessageTemplate, "[DEVELOPMENT_NAME]")
	assert.NotContains(t, out.MessageTemplate, "[UNIT_NUMBER]")
	assert.NotContains(t, out.MessageTemplate, "[BLOCK]")
	assert.Contains(t, out.MessageTemplate, "[DESCRIBE THE ITEM]")
	assert.Empty(t, out.ContactInfo)
	assert.Empty(t, out.Disclaimer)
}

func TestRoute_IssueTypeSelectsTemplate(t *testing.T) {
	out := Route(Input{
		Intent:  "general_question",
		Session: SessionContext{IssueType: "gas leak"},
	})
	assert.Equal(t, TargetEmergencyServices, out.Target)
	assert.Equal(t, UrgencyEmergency, out.UrgencyLevel)
	assert.Equal(t, "Gas Networks Ireland emergency line", out.TargetDescription)
	assert.NotEmpty(t, out.Disclaimer)
}

func TestRoute_RoleDescriptionForGenericTemplate(t *testing.T) {
	out := Route(Input{Intent: "construction"})
	assert.Equal(t, TargetDeveloper, out.Target)
	assert.Equal(t, "the property developer (builder)", out.TargetDescription)

	out = Route(Input{Intent: "general_question"})
	assert.Equal(t, TargetUnknown, out.Target)
	assert.Equal(t, "the relevant party", out.TargetDescription)
}

func TestRoute_DescriptionFollowsTargetWhenTemplateDisagrees(t *testing.T) {
	require.Equal(t, TargetInstaller, TemplateForIssueType("heat pump").Target)

	out := Route(Input{
		Intent:     "snagging",
		Confidence: ConfidenceLow,
		Session:    SessionContext{IssueType: "heat pump"},
	})
	assert.Equal(t, TargetDeveloper, out.Target)
	assert.Equal(t, RoleDescription(TargetDeveloper), out.TargetDescription)
	assert.NotContains(t, out.TargetDescription, "installer")
}

func TestRoute_DoesNotShareTemplateFields(t *testing.T) {
	out := Route(Input{Intent: "snagging"})
	out.RequiredFields[0] = "changed"
	assert.Equal(t, "unit_number", TemplateForIssueType("snagging").RequiredFields[0])
}

func TestRoute_ContactsAreReadFresh(t *testing.T) {
	contacts := &SchemeContacts{Developer: &Contact{Name: "Elm Homes"}}
	first := Route(Input{Intent: "snagging", SchemeContacts: contacts})
	contacts.Developer.Name = "Oak Homes"
	second := Route(Input{Intent: "snagging", SchemeContacts: contacts})

	assert.Equal(t, "Elm Homes", first.ContactInfo)
	assert.Equal(t, "Oak Homes", second.ContactInfo)
}
