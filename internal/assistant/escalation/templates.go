// internal/assistant/escalation/templates.go

// Package escalation decides when a homeowner should be pointed at a human
// contact, who that contact is, and what guidance to show. It only ever uses
// contact details supplied by the scheme profile.
package escalation

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Target string

const (
	TargetDeveloper         Target = "developer"
	TargetOMC               Target = "omc"
	TargetInstaller         Target = "installer"
	TargetEmergencyServices Target = "emergency_services"
	TargetUnknown           Target = "unknown"
)

var Targets = []Target{TargetDeveloper, TargetOMC, TargetInstaller, TargetEmergencyServices, TargetUnknown}

type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// Template keys.
const (
	KeyStructuralDefect    = "structural_defect"
	KeySnagWarranty        = "snag_warranty"
	KeyApplianceIssue      = "appliance_issue"
	KeyHeatPumpIssue       = "heat_pump_issue"
	KeyCommunalArea        = "communal_area"
	KeyServiceCharge       = "service_charge"
	KeyParking             = "parking"
	KeyEVChargerIssue      = "ev_charger_issue"
	KeySecurityAlarm       = "security_alarm"
	KeyEmergencyGas        = "emergency_gas"
	KeyEmergencyWater      = "emergency_water"
	KeyEmergencyElectrical = "emergency_electrical"
	KeyGeneralUnknown      = "general_unknown"
)

type Template struct {
	Key               string   `yaml:"key" json:"key"`
	Target            Target   `yaml:"target" json:"target"`
	TargetDescription string   `yaml:"target_description" json:"targetDescription"`
	MessageTemplate   string   `yaml:"message_template" json:"messageTemplate"`
	RequiredFields    []string `yaml:"required_fields" json:"requiredFields"`
	OptionalFields    []string `yaml:"optional_fields" json:"optionalFields"`
	Disclaimer        string   `yaml:"disclaimer,omitempty" json:"disclaimer,omitempty"`
	UrgencyLevel      Urgency  `yaml:"urgency_level" json:"urgencyLevel"`
}

type catalog struct {
	RoleDescriptions  map[Target]string `yaml:"role_descriptions"`
	FallbackGuidance  map[Target]string `yaml:"fallback_contact_guidance"`
	FieldDescriptions map[string]string `yaml:"field_descriptions"`
	Templates         []*Template       `yaml:"templates"`

	byKey map[string]*Template
}

//go:embed templates.yaml
var templatesYAML []byte

var content *catalog

func init() {
	c, err := parseCatalog(templatesYAML)
	if err != nil {
		panic(fmt.Sprintf("escalation: %v", err))
	}
	content = c
}

func parseCatalog(data []byte) (*catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse escalation templates: %w", err)
	}

	for _, target := range Targets {
		if c.RoleDescriptions[target] == "" {
			return nil, fmt.Errorf("missing role description for %q", target)
		}
		if c.FallbackGuidance[target] == "" {
			return nil, fmt.Errorf("missing fallback guidance for %q", target)
		}
	}

	c.byKey = make(map[string]*Template, len(c.Templates))
	for _, tpl := range c.Templates {
		if _, dup := c.byKey[tpl.Key]; dup {
			return nil, fmt.Errorf("duplicate template %q", tpl.Key)
		}
		if !validTarget(tpl.Target) {
			return nil, fmt.Errorf("template %q has unknown target %q", tpl.Key, tpl.Target)
		}
		switch tpl.UrgencyLevel {
		case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		default:
			return nil, fmt.Errorf("template %q has unknown urgency %q", tpl.Key, tpl.UrgencyLevel)
		}
		c.byKey[tpl.Key] = tpl
	}

	for _, key := range []string{
		KeyStructuralDefect, KeySnagWarranty, KeyApplianceIssue, KeyHeatPumpIssue,
		KeyCommunalArea, KeyServiceCharge, KeyParking, KeyEVChargerIssue, KeySecurityAlarm,
		KeyEmergencyGas, KeyEmergencyWater, KeyEmergencyElectrical, KeyGeneralUnknown,
	} {
		if _, ok := c.byKey[key]; !ok {
			return nil, fmt.Errorf("missing template %q", key)
		}
	}
	return &c, nil
}

func validTarget(t Target) bool {
	for _, known := range Targets {
		if t == known {
			return true
		}
	}
	return false
}

// Templates returns every escalation template in registry order. Returned
// templates are shared and must not be modified.
func Templates() []*Template {
	out := make([]*Template, len(content.Templates))
	copy(out, content.Templates)
	return out
}

// TemplateByKey looks up a template by its registry key.
func TemplateByKey(key string) (*Template, bool) {
	tpl, ok := content.byKey[key]
	return tpl, ok
}

// RoleDescription is the generic wording for a target, used when a template
// carries no specific description.
func RoleDescription(target Target) string {
	if d, ok := content.RoleDescriptions[target]; ok {
		return d
	}
	return content.RoleDescriptions[TargetUnknown]
}

// FallbackGuidance is shown in place of contact details when the scheme has
// none for the target.
func FallbackGuidance(target Target) string {
	if g, ok := content.FallbackGuidance[target]; ok {
		return g
	}
	return content.FallbackGuidance[TargetUnknown]
}

// FieldDescription turns a required field name into a homeowner-facing label.
func FieldDescription(field string) string {
	if d, ok := content.FieldDescriptions[field]; ok {
		return d
	}
	return strings.ReplaceAll(field, "_", " ")
}

var separatorRe = regexp.MustCompile(`[_\s-]+`)

func normalizeIssueType(issueType string) string {
	return separatorRe.ReplaceAllString(strings.ToLower(issueType), "_")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// hasToken reports whether tok is one of the underscore-separated words of a
// normalised issue type.
func hasToken(normalized, tok string) bool {
	for _, part := range strings.Split(normalized, "_") {
		if part == tok {
			return true
		}
	}
	return false
}

// TemplateForIssueType picks the template for a free-text issue type. The
// checks run in priority order with emergencies first, and anything
// unrecognised gets the general template, so the result is never nil.
func TemplateForIssueType(issueType string) *Template {
	return content.byKey[templateKeyFor(issueType)]
}

func templateKeyFor(issueType string) string {
	issue := normalizeIssueType(issueType)

	switch {
	case strings.Contains(issue, "gas") && containsAny(issue, "leak", "smell"):
		return KeyEmergencyGas
	case strings.Contains(issue, "flood") || (strings.Contains(issue, "water") && strings.Contains(issue, "emergency")):
		return KeyEmergencyWater
	case strings.Contains(issue, "electr") && containsAny(issue, "fire", "shock"):
		return KeyEmergencyElectrical

	case containsAny(issue, "heat_pump", "daikin", "heating_system"):
		return KeyHeatPumpIssue
	// "ev" is matched as a whole word; as a substring it would catch
	// "developer" and "level".
	case hasToken(issue, "ev") || containsAny(issue, "charger", "ohme", "epod"):
		return KeyEVChargerIssue
	case containsAny(issue, "alarm", "security"):
		return KeySecurityAlarm
	case containsAny(issue, "appliance", "oven", "dishwasher", "washing"):
		return KeyApplianceIssue

	case containsAny(issue, "snag", "warranty", "defect"):
		return KeySnagWarranty
	case containsAny(issue, "structur", "crack", "damp"):
		return KeyStructuralDefect

	case containsAny(issue, "communal", "common_area", "shared"):
		return KeyCommunalArea
	case containsAny(issue, "service_charge", "management_fee"):
		return KeyServiceCharge
	case containsAny(issue, "parking", "car_park"):
		return KeyParking
	}
	return KeyGeneralUnknown
}
