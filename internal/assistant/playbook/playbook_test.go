package playbook

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Registry Tests
// ==========================

func TestRegistry(t *testing.T) {
	all := All()
	require.Len(t, all, len(Topics))
	for i, tpl := range all {
		assert.Equal(t, Topics[i], tpl.Topic)
		got, ok := Get(tpl.Topic)
		require.True(t, ok)
		assert.Same(t, tpl, got)
		assert.NotEmpty(t, tpl.Title)
		assert.NotEmpty(t, tpl.Sections)
	}

	all[0] = nil
	assert.NotNil(t, All()[0], "All must return a copy of the registry slice")

	_, ok := Get("pets")
	assert.False(t, ok)
}

func TestParseTemplates_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  string
	}{
		{
			name: "unknown topic",
			data: "- topic: pets\n  title: Pets\n",
			err:  "unknown playbook topic",
		},
		{
			name: "duplicate topic",
			data: "- topic: parking\n  title: A\n- topic: parking\n  title: B\n",
			err:  "duplicate playbook topic",
		},
		{
			name: "unknown scheme field",
			data: "- topic: parking\n  title: A\n  scheme_fields_used: [bike_shed]\n",
			err:  "unknown scheme field",
		},
		{
			name: "missing topics",
			data: "- topic: parking\n  title: A\n",
			err:  "expected 7 playbooks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTemplates([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestSchemeContextFields(t *testing.T) {
	var ctx SchemeContext
	for _, field := range SchemeFields {
		require.True(t, ctx.Set(field, field+"-value"), field)
		assert.Equal(t, field+"-value", ctx.Field(field))
	}
	assert.False(t, ctx.Set("bike_shed", "x"))
	assert.Equal(t, "", ctx.Field("bike_shed"))
	assert.Equal(t, "heating_type-value", ctx.HeatingType)
}

// ==========================
// Detection Tests
// ==========================

func TestDetectTopic(t *testing.T) {
	tests := []struct {
		query string
		want  Topic
		found bool
	}{
		{"Where is my gas meter?", TopicUtilitiesSetup, true},
		{"What is an MPRN", TopicUtilitiesSetup, true},
		{"When is bin collection day", TopicWasteRecycling, true},
		{"Where do I park", TopicParking, true},
		{"the boiler is making noise", TopicHeatingPrinciples, true},
		{"Heat pump settings", TopicHeatingPrinciples, true},
		{"the paint is chipped", TopicSnaggingProcess, true},
		{"how do I make a claim", TopicWarranties, true},
		{"there is a fire", TopicEmergencies, true},
		// utilities wins over emergencies for a water leak
		{"water leak in the kitchen", TopicUtilitiesSetup, true},
		// heating wins over snagging
		{"problem with the radiator", TopicHeatingPrinciples, true},
		{"Tell me about local schools", "", false},
		{"utilities", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := DetectTopic(tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Render Tests
// ==========================

func mustGet(t *testing.T, topic Topic) *Template {
	t.Helper()
	tpl, ok := Get(topic)
	require.True(t, ok)
	return tpl
}

func TestRender_HeatingIntro(t *testing.T) {
	tests := []struct {
		heatingType string
		want        string
	}{
		{"heat_pump", "Your home is equipped with a heat pump heating system."},
		{"gas_boiler", "Your home has a gas boiler heating system."},
		{"oil_boiler", "Your home has an oil boiler heating system."},
		{"unknown", "Understanding your heating system helps you stay comfortable"},
		{"", "Understanding your heating system helps you stay comfortable"},
	}

	for _, tt := range tests {
		t.Run(tt.heatingType, func(t *testing.T) {
			out := Render(mustGet(t, TopicHeatingPrinciples), SchemeContext{HeatingType: tt.heatingType}, RenderOptions{})
			assert.True(t, strings.HasPrefix(out, "## Heating Your Home\n\n"+tt.want), out)
			assert.NotContains(t, out, "{{")
		})
	}
}

func TestRender_Options(t *testing.T) {
	tpl := mustGet(t, TopicUtilitiesSetup)

	full := Render(tpl, SchemeContext{}, RenderOptions{})
	assert.True(t, strings.HasPrefix(full, "## Setting Up Your Utilities"))
	assert.Contains(t, full, "**Water**")
	assert.Contains(t, full, "*Note: Contact Irish Water at 1800 278 278 for registration and queries.*")
	assert.True(t, strings.HasSuffix(full, "---\n\nKeep all confirmation emails and reference numbers safe. These will be useful if any issues arise with your utility accounts."))

	short := Render(tpl, SchemeContext{}, RenderOptions{OmitTitle: true, OmitClosing: true, MaxSections: 1})
	assert.True(t, strings.HasPrefix(short, "Moving into a new home"))
	assert.Contains(t, short, "**Electricity**")
	assert.NotContains(t, short, "**Gas**")
	assert.NotContains(t, short, "---")

	assert.Equal(t, full, Render(tpl, SchemeContext{}, RenderOptions{MaxSections: 10}))
}

func TestRender_BlankClosingHasNoDivider(t *testing.T) {
	tpl := &Template{
		Topic:   TopicParking,
		Title:   "Test",
		Intro:   "Intro",
		Closing: "{{not_a_real_placeholder}}",
	}
	assert.Equal(t, "## Test\n\nIntro", Render(tpl, SchemeContext{}, RenderOptions{}))
}

func TestRender_Typography(t *testing.T) {
	tpl := &Template{
		Title: "Don’t panic — really",
		Intro: "“Quoted” – text",
	}
	assert.Equal(t, "## Don't panic - really\n\n\"Quoted\" - text", Render(tpl, SchemeContext{}, RenderOptions{}))
}

func TestRender_Placeholders(t *testing.T) {
	tests := []struct {
		name  string
		topic Topic
		ctx   SchemeContext
		want  []string
	}{
		{
			name:  "emergency contacts present",
			topic: TopicEmergencies,
			ctx: SchemeContext{
				EmergencyContactPhone: "01 555 0100",
				EmergencyContactNotes: "Out of hours: press 2",
				ManagingAgentName:     "Acme Property",
				ContactPhone:          "01 555 0199",
			},
			want: []string{"Your development contacts:\n- Estate Emergency Line: 01 555 0100\n- Out of hours: press 2\n- Acme Property: 01 555 0199"},
		},
		{
			name:  "agent without phone is skipped",
			topic: TopicEmergencies,
			ctx:   SchemeContext{ManagingAgentName: "Acme Property"},
			want:  []string{"For non-life-threatening emergencies, contact your management company or developer during business hours."},
		},
		{
			name:  "bin notes win over provider",
			topic: TopicWasteRecycling,
			ctx:   SchemeContext{BinStorageNotes: "Bins are in the basement store.", WasteProvider: "Panda"},
			want:  []string{"---\n\nBins are in the basement store."},
		},
		{
			name:  "waste provider",
			topic: TopicWasteRecycling,
			ctx:   SchemeContext{WasteProvider: "Panda"},
			want:  []string{"Your waste collection is managed by Panda."},
		},
		{
			name:  "waste default",
			topic: TopicWasteRecycling,
			want:  []string{"Check your estate signage or welcome pack for bin storage locations"},
		},
		{
			name:  "parking type",
			topic: TopicParking,
			ctx:   SchemeContext{ParkingType: "permit"},
			want:  []string{"Parking requires a permit."},
		},
		{
			name:  "unlisted parking type",
			topic: TopicParking,
			ctx:   SchemeContext{ParkingType: "valet"},
			want:  []string{"Check your welcome pack for parking arrangements."},
		},
		{
			name:  "parking default",
			topic: TopicParking,
			want:  []string{"For specific parking rules at your development"},
		},
		{
			name:  "snag email",
			topic: TopicSnaggingProcess,
			ctx:   SchemeContext{SchemeName: "Elm Grove", SnagReportingMethod: "email", SnagReportingDetails: "snags@elmgrove.ie"},
			want: []string{
				"Report snags by email to: snags@elmgrove.ie",
				"For snag reporting at Elm Grove, use: snags@elmgrove.ie",
			},
		},
		{
			name:  "snag details without method",
			topic: TopicSnaggingProcess,
			ctx:   SchemeContext{SnagReportingDetails: "https://portal.example.ie"},
			want: []string{
				"Contact your developer or management company to submit your snag list.",
				"For snag reporting at your development, use: https://portal.example.ie",
			},
		},
		{
			name:  "snag portal",
			topic: TopicSnaggingProcess,
			ctx:   SchemeContext{SnagReportingMethod: "portal", SnagReportingDetails: "https://portal.example.ie"},
			want:  []string{"Report snags through the online portal: https://portal.example.ie"},
		},
		{
			name:  "snag phone",
			topic: TopicSnaggingProcess,
			ctx:   SchemeContext{SnagReportingMethod: "phone", SnagReportingDetails: "01 555 0123"},
			want:  []string{"Report snags by phone: 01 555 0123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := RenderByTopic(tt.topic, tt.ctx, RenderOptions{})
			require.True(t, ok)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "{{")
		})
	}
}

func TestRender_ProfileValuesCannotInjectPlaceholders(t *testing.T) {
	out, ok := RenderByTopic(TopicWasteRecycling, SchemeContext{BinStorageNotes: "See {{parking_notes}} or {{{{oops"}, RenderOptions{})
	require.True(t, ok)
	assert.NotContains(t, out, "{{")
	assert.Contains(t, out, "See  or {oops")
}

func TestRenderByTopic_Unknown(t *testing.T) {
	out, ok := RenderByTopic("pets", SchemeContext{}, RenderOptions{})
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestRenderSection(t *testing.T) {
	got, ok := RenderSection(TopicSnaggingProcess, "reporting PROCESS", SchemeContext{})
	require.True(t, ok)

	want := strings.Join([]string{
		"**Reporting Process**",
		"",
		"Contact your developer or management company to submit your snag list. Check your welcome pack for the preferred method.",
		"",
		"- Submit your snag list as early as possible, ideally at handover",
		"- Keep copies of all correspondence and submissions",
		"- Follow up in writing if repairs are not scheduled promptly",
		"- Take photos before and after repairs are completed",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RenderSection mismatch (-want +got):\n%s", diff)
	}

	_, ok = RenderSection(TopicSnaggingProcess, "Reporting", SchemeContext{})
	assert.False(t, ok)
	_, ok = RenderSection("pets", "Reporting Process", SchemeContext{})
	assert.False(t, ok)
}

// ==========================
// Response Tests
// ==========================

func TestGenerateResponse(t *testing.T) {
	tests := []struct {
		name      string
		topic     Topic
		ctx       SchemeContext
		generic   bool
		available []string
		missing   []string
	}{
		{
			name:      "heating with empty context",
			topic:     TopicHeatingPrinciples,
			generic:   true,
			available: []string{},
			missing:   []string{"heating_type", "heating_controls"},
		},
		{
			name:      "unknown sentinel is not available",
			topic:     TopicHeatingPrinciples,
			ctx:       SchemeContext{HeatingType: "unknown"},
			generic:   true,
			available: []string{},
			missing:   []string{"heating_type", "heating_controls"},
		},
		{
			name:      "one field is enough",
			topic:     TopicHeatingPrinciples,
			ctx:       SchemeContext{HeatingType: "heat_pump"},
			generic:   false,
			available: []string{"heating_type"},
			missing:   []string{"heating_controls"},
		},
		{
			name:      "no declared fields is never generic",
			topic:     TopicWarranties,
			generic:   false,
			available: []string{},
			missing:   []string{},
		},
		{
			name:      "emergency fields",
			topic:     TopicEmergencies,
			ctx:       SchemeContext{ManagingAgentName: "Acme", ContactPhone: "01 555 0199"},
			generic:   false,
			available: []string{"managing_agent_name", "contact_phone"},
			missing:   []string{"emergency_contact_phone", "emergency_contact_notes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, ok := GenerateResponse(tt.topic, tt.ctx)
			require.True(t, ok)
			assert.Equal(t, tt.topic, resp.Topic)
			assert.Equal(t, tt.generic, resp.IsGenericFallback)
			assert.Equal(t, tt.available, resp.SchemeFieldsAvailable)
			assert.Equal(t, tt.missing, resp.SchemeFieldsMissing)
			assert.NotEmpty(t, resp.Content)
		})
	}
}

func TestGenerateResponse_GenericHeatingIntro(t *testing.T) {
	resp, ok := GenerateResponse(TopicHeatingPrinciples, SchemeContext{})
	require.True(t, ok)
	assert.True(t, resp.IsGenericFallback)
	assert.Contains(t, resp.Content, "Understanding your heating system helps you stay comfortable and use energy efficiently. Here is general guidance that applies to most heating systems.")
	assert.NotContains(t, resp.Content, "{{")

	_, ok = GenerateResponse("pets", SchemeContext{})
	assert.False(t, ok)
}

// ==========================
// Property Tests
// ==========================

func schemeContextGen() gopter.Gen {
	value := gen.OneGenOf(
		gen.AnyString(),
		gen.OneConstOf("", "unknown", "heat_pump", "gas_boiler", "email", "portal", "phone",
			"permit", "{{", "}}", "{{heating_intro}}", "{{x}}", "{{{{", "—", "’"),
	)
	return gen.SliceOfN(len(SchemeFields), value).Map(func(values []string) SchemeContext {
		var ctx SchemeContext
		for i, field := range SchemeFields {
			ctx.Set(field, values[i])
		}
		return ctx
	})
}

func TestRender_NeverLeavesPlaceholders(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no {{ in any rendered playbook", prop.ForAll(
		func(ctx SchemeContext, maxSections int) bool {
			for _, tpl := range All() {
				out := Render(tpl, ctx, RenderOptions{MaxSections: maxSections})
				if strings.Contains(out, "{{") {
					return false
				}
			}
			return true
		},
		schemeContextGen(),
		gen.IntRange(-1, 6),
	))

	properties.TestingRun(t)
}
