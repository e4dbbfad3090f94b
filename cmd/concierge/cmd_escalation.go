// cmd/concierge/cmd_escalation.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"concierge-workers/internal/assistant/escalation"
	"concierge-workers/internal/common/logger"
)

func newEscalationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escalation",
		Short: "Dry-run escalation routing",
	}
	cmd.AddCommand(newEscalationRouteCmd(), newEscalationTemplateCmd())
	return cmd
}

func urgencyColor(u escalation.Urgency) *color.Color {
	switch u {
	case escalation.UrgencyEmergency:
		return color.New(color.FgRed, color.Bold)
	case escalation.UrgencyHigh:
		return color.New(color.FgYellow)
	case escalation.UrgencyMedium:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgGreen)
	}
}

type routeFlags struct {
	intent       string
	confidence   string
	gapReason    string
	issueType    string
	development  string
	unit         string
	block        string
	contactsPath string
	response     string
}

func newEscalationRouteCmd() *cobra.Command {
	var flags routeFlags

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Show the guidance an escalation would produce",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			contacts, err := loadContacts(flags.contactsPath)
			if err != nil {
				return err
			}
			if !escalation.EnabledFromEnv() {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: %s is not \"true\", workers will not append this guidance\n", escalation.FeatureFlagEnv)
			}
			return runRoute(cmd.OutOrStdout(), flags, contacts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.intent, "intent", "", "classified intent, e.g. snagging")
	f.StringVar(&flags.confidence, "confidence", string(escalation.ConfidenceLow), "answer confidence: high, medium, low or none")
	f.StringVar(&flags.gapReason, "gap-reason", "", "why the answer fell short")
	f.StringVar(&flags.issueType, "issue-type", "", "free-text issue type from the session")
	f.StringVar(&flags.development, "development", "", "development name")
	f.StringVar(&flags.unit, "unit", "", "unit number")
	f.StringVar(&flags.block, "block", "", "block")
	f.StringVar(&flags.contactsPath, "contacts", "", "JSON file with developer, omc and installers contacts")
	f.StringVar(&flags.response, "response", "", "assistant response to append guidance to")
	return cmd
}

func runRoute(out io.Writer, flags routeFlags, contacts *escalation.SchemeContacts) error {
	var rejected string
	router := escalation.NewRouter(true, logger.NewNoOpLogger(), escalation.WithRejectHook(func(reason string, _ escalation.Target) {
		rejected = reason
	}))

	session := escalation.SessionContext{
		DevelopmentName: flags.development,
		UnitNumber:      flags.unit,
		Block:           flags.block,
		IssueType:       flags.issueType,
	}

	confidence := escalation.Confidence(flags.confidence)

	var result *escalation.Output
	if flags.gapReason != "" {
		if !escalation.ShouldTrigger(confidence, flags.gapReason, "") {
			fmt.Fprintf(out, "no escalation: confidence %s, gap reason %q\n", confidence, flags.gapReason)
			return nil
		}
		var ok bool
		result, ok = router.CreateForGapReason(flags.gapReason, flags.intent, session, contacts)
		if !ok {
			fmt.Fprintf(out, "no escalation: intent %q is not eligible\n", flags.intent)
			return nil
		}
	} else {
		if !escalation.ShouldTrigger(confidence, "", flags.intent) {
			fmt.Fprintf(out, "no escalation: confidence %s, intent %q\n", confidence, flags.intent)
			return nil
		}
		result = escalation.Route(escalation.Input{
			Intent:         flags.intent,
			Confidence:     confidence,
			SchemeContacts: contacts,
			Session:        session,
		})
	}

	fmt.Fprintf(out, "Target:  %s\n", result.Target)
	fmt.Fprintf(out, "Urgency: %s\n", urgencyColor(result.UrgencyLevel).Sprint(result.UrgencyLevel))
	fmt.Fprintln(out)

	guidance, ok := router.FormatGuidance(result)
	if !ok {
		fmt.Fprintf(out, "%s %s\n\n", color.New(color.FgRed).Sprint("guidance suppressed:"), rejected)
		fmt.Fprintln(out, escalation.SafeFallbackResponse)
		return nil
	}

	if flags.response != "" {
		guidance = escalation.JoinGuidance(flags.response, guidance)
	}
	fmt.Fprintln(out, guidance)
	return nil
}

func loadContacts(path string) (*escalation.SchemeContacts, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contacts: %w", err)
	}
	var contacts escalation.SchemeContacts
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("parse contacts %s: %w", path, err)
	}
	return &contacts, nil
}

func newEscalationTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [issue-type]",
		Short: "List escalation templates, or show the one an issue type selects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tTARGET\tURGENCY")
				for _, tpl := range escalation.Templates() {
					fmt.Fprintf(w, "%s\t%s\t%s\n", tpl.Key, tpl.Target, urgencyColor(tpl.UrgencyLevel).Sprint(tpl.UrgencyLevel))
				}
				return w.Flush()
			}

			tpl := escalation.TemplateForIssueType(args[0])
			fmt.Fprintf(out, "Key:      %s\n", tpl.Key)
			fmt.Fprintf(out, "Target:   %s\n", tpl.Target)
			fmt.Fprintf(out, "Urgency:  %s\n", urgencyColor(tpl.UrgencyLevel).Sprint(tpl.UrgencyLevel))
			fmt.Fprintf(out, "Required: %s\n", strings.Join(tpl.RequiredFields, ", "))
			if tpl.Disclaimer != "" {
				fmt.Fprintf(out, "Note:     %s\n", tpl.Disclaimer)
			}
			fmt.Fprintf(out, "\n%s\n", tpl.MessageTemplate)
			return nil
		},
	}
}
