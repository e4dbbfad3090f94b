// internal/assistant/playbook/render.go
package playbook

import (
	"fmt"
	"regexp"
	"strings"
)

// RenderOptions controls which parts of a playbook are emitted. The zero
// value renders everything.
type RenderOptions struct {
	OmitTitle   bool
	OmitClosing bool
	// MaxSections limits the number of sections; zero or less renders all.
	MaxSections int
}

var (
	placeholderRe = regexp.MustCompile(`\{\{[^}]+\}\}`)

	typographyReplacer = strings.NewReplacer(
		"—", "-",
		"–", "-",
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
)

var parkingDescriptions = map[string]string{
	"allocated":   "Your development has allocated parking spaces. Check your documentation for your assigned space number.",
	"unallocated": "Parking is on a first-come, first-served basis. Please be considerate of neighbours.",
	"permit":      "Parking requires a permit. Contact your management company for permit details.",
	"underground": "Underground parking is available. Check your welcome pack for access details.",
	"on_street":   "On-street parking is available. Check for any local restrictions.",
}

func sanitizeText(text string) string {
	return typographyReplacer.Replace(text)
}

type placeholderFunc func(ctx SchemeContext) string

// Resolved in this order before the catch-all strip.
var placeholders = []struct {
	name    string
	resolve placeholderFunc
}{
	{"heating_intro", heatingIntro},
	{"snag_reporting_intro", snagReportingIntro},
	{"snag_closing", snagClosing},
	{"emergency_contacts", emergencyContacts},
	{"bin_storage_notes", binStorageNotes},
	{"parking_notes", parkingNotes},
}

func heatingIntro(ctx SchemeContext) string {
	switch ctx.HeatingType {
	case "heat_pump":
		return "Your home is equipped with a heat pump heating system. Heat pumps are efficient and environmentally friendly, but work differently from traditional boilers."
	case "gas_boiler":
		return "Your home has a gas boiler heating system. Here is guidance on using and maintaining your heating."
	case "oil_boiler":
		return "Your home has an oil boiler heating system. Here is guidance on using and maintaining your heating."
	default:
		return "Understanding your heating system helps you stay comfortable and use energy efficiently. Here is general guidance that applies to most heating systems."
	}
}

func snagReportingIntro(ctx SchemeContext) string {
	details := ctx.SnagReportingDetails
	switch {
	case ctx.SnagReportingMethod == "email" && details != "":
		return "Report snags by email to: " + details
	case ctx.SnagReportingMethod == "portal" && details != "":
		return "Report snags through the online portal: " + details
	case ctx.SnagReportingMethod == "phone" && details != "":
		return "Report snags by phone: " + details
	default:
		return "Contact your developer or management company to submit your snag list. Check your welcome pack for the preferred method."
	}
}

func snagClosing(ctx SchemeContext) string {
	if ctx.SnagReportingDetails == "" {
		return "Keep all snag documentation organized and follow up regularly on reported issues."
	}
	scheme := ctx.SchemeName
	if scheme == "" {
		scheme = "your development"
	}
	return fmt.Sprintf("For snag reporting at %s, use: %s", scheme, ctx.SnagReportingDetails)
}

func emergencyContacts(ctx SchemeContext) string {
	var contacts []string
	if ctx.EmergencyContactPhone != "" {
		contacts = append(contacts, "Estate Emergency Line: "+ctx.EmergencyContactPhone)
	}
	if ctx.EmergencyContactNotes != "" {
		contacts = append(contacts, ctx.EmergencyContactNotes)
	}
	if ctx.ManagingAgentName != "" && ctx.ContactPhone != "" {
		contacts = append(contacts, ctx.ManagingAgentName+": "+ctx.ContactPhone)
	}
	if len(contacts) == 0 {
		return "For non-life-threatening emergencies, contact your management company or developer during business hours. Keep their contact details accessible."
	}

	var b strings.Builder
	b.WriteString("Your development contacts:")
	for _, c := range contacts {
		b.WriteString("\n- ")
		b.WriteString(c)
	}
	return b.String()
}

func binStorageNotes(ctx SchemeContext) string {
	switch {
	case ctx.BinStorageNotes != "":
		return ctx.BinStorageNotes
	case ctx.WasteProvider != "":
		return fmt.Sprintf("Your waste collection is managed by %s. Contact them for specific collection schedules and guidelines.", ctx.WasteProvider)
	default:
		return "Check your estate signage or welcome pack for bin storage locations and collection schedules."
	}
}

func parkingNotes(ctx SchemeContext) string {
	if ctx.ParkingNotes != "" {
		return ctx.ParkingNotes
	}
	if ctx.ParkingType != "" {
		if desc, ok := parkingDescriptions[ctx.ParkingType]; ok {
			return desc
		}
		return "Check your welcome pack for parking arrangements."
	}
	return "For specific parking rules at your development, check your welcome pack or contact your management company."
}

// interpolate resolves the known placeholders, strips any others and
// normalises typography. The result never contains "{{".
func interpolate(text string, ctx SchemeContext) string {
	result := text
	for _, p := range placeholders {
		token := "{{" + p.name + "}}"
		if strings.Contains(text, token) {
			result = strings.Replace(result, token, p.resolve(ctx), 1)
		}
	}
	result = placeholderRe.ReplaceAllString(result, "")
	// Profile values may carry an unbalanced "{{".
	for strings.Contains(result, "{{") {
		result = strings.ReplaceAll(result, "{{", "{")
	}
	return sanitizeText(result)
}

func renderSection(section Section, ctx SchemeContext) string {
	lines := []string{"**" + sanitizeText(section.Heading) + "**", ""}

	if section.Content != "" {
		lines = append(lines, interpolate(section.Content, ctx), "")
	}
	if len(section.Bullets) > 0 {
		for _, bullet := range section.Bullets {
			lines = append(lines, "- "+sanitizeText(bullet))
		}
		lines = append(lines, "")
	}
	if section.Note != "" {
		lines = append(lines, "*Note: "+sanitizeText(section.Note)+"*", "")
	}
	return strings.Join(lines, "\n")
}

// Render serialises a playbook as chat markdown with ctx interpolated. The
// divider before the closing is only emitted when the closing resolves to
// visible text.
func Render(tpl *Template, ctx SchemeContext, opts RenderOptions) string {
	var lines []string

	if !opts.OmitTitle {
		lines = append(lines, "## "+sanitizeText(tpl.Title), "")
	}

	lines = append(lines, interpolate(tpl.Intro, ctx), "")

	sections := tpl.Sections
	if opts.MaxSections > 0 && opts.MaxSections < len(sections) {
		sections = sections[:opts.MaxSections]
	}
	for _, section := range sections {
		lines = append(lines, renderSection(section, ctx))
	}

	if !opts.OmitClosing && tpl.Closing != "" {
		closing := interpolate(tpl.Closing, ctx)
		if strings.TrimSpace(closing) != "" {
			lines = append(lines, "---", "", closing)
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// RenderByTopic looks up and renders a playbook.
func RenderByTopic(topic Topic, ctx SchemeContext, opts RenderOptions) (string, bool) {
	tpl, ok := Get(topic)
	if !ok {
		return "", false
	}
	return Render(tpl, ctx, opts), true
}

// RenderSection renders the single section whose heading matches, ignoring
// case.
func RenderSection(topic Topic, heading string, ctx SchemeContext) (string, bool) {
	tpl, ok := Get(topic)
	if !ok {
		return "", false
	}
	for _, section := range tpl.Sections {
		if strings.EqualFold(section.Heading, heading) {
			return renderSection(section, ctx), true
		}
	}
	return "", false
}
