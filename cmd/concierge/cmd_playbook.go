// cmd/concierge/cmd_playbook.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"concierge-workers/internal/assistant/playbook"
)

func newPlaybookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbook",
		Short: "Work with homeowner playbooks",
	}
	cmd.AddCommand(newPlaybookListCmd(), newPlaybookDetectCmd(), newPlaybookRenderCmd())
	return cmd
}

func newPlaybookListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List playbook topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TOPIC\tTITLE\tSECTIONS\tSCHEME FIELDS")
			for _, tpl := range playbook.All() {
				fields := strings.Join(tpl.SchemeFieldsUsed, ",")
				if fields == "" {
					fields = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", tpl.Topic, tpl.Title, len(tpl.Sections), fields)
			}
			return w.Flush()
		},
	}
}

func newPlaybookDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <question>",
		Short: "Show which playbook a question maps to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, ok := playbook.DetectTopic(strings.Join(args, " "))
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgYellow).Sprint("no topic matched"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), topic)
			return nil
		},
	}
}

type renderFlags struct {
	contextPath string
	set         []string
	section     string
	maxSections int
	noTitle     bool
	noClosing   bool
}

func newPlaybookRenderCmd() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <topic>",
		Short: "Render a playbook with optional scheme data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := playbook.Topic(args[0])
			if _, ok := playbook.Get(topic); !ok {
				return fmt.Errorf("unknown topic %q (see 'concierge playbook list')", args[0])
			}

			ctx, err := loadSchemeContext(flags.contextPath, flags.set)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.section != "" {
				text, ok := playbook.RenderSection(topic, flags.section, ctx)
				if !ok {
					return fmt.Errorf("topic %s has no section %q", topic, flags.section)
				}
				fmt.Fprintln(out, text)
				return nil
			}

			resp, _ := playbook.GenerateResponse(topic, ctx)
			text, _ := playbook.RenderByTopic(topic, ctx, playbook.RenderOptions{
				OmitTitle:   flags.noTitle,
				OmitClosing: flags.noClosing,
				MaxSections: flags.maxSections,
			})

			fmt.Fprintln(out, text)
			fmt.Fprintln(out)
			fmt.Fprintln(out, playbook.GenericSourceHint)

			if resp.IsGenericFallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s no scheme fields available (missing: %s)\n",
					color.New(color.FgYellow).Sprint("generic:"), strings.Join(resp.SchemeFieldsMissing, ", "))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.contextPath, "context", "", "JSON file with scheme profile fields")
	f.StringArrayVar(&flags.set, "set", nil, "scheme field as name=value (repeatable)")
	f.StringVar(&flags.section, "section", "", "render only the section with this heading")
	f.IntVar(&flags.maxSections, "max-sections", 0, "render at most this many sections")
	f.BoolVar(&flags.noTitle, "no-title", false, "omit the title")
	f.BoolVar(&flags.noClosing, "no-closing", false, "omit the closing")
	return cmd
}

func loadSchemeContext(path string, assignments []string) (playbook.SchemeContext, error) {
	var ctx playbook.SchemeContext
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return ctx, fmt.Errorf("read context: %w", err)
		}
		if err := json.Unmarshal(data, &ctx); err != nil {
			return ctx, fmt.Errorf("parse context %s: %w", path, err)
		}
	}

	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return ctx, fmt.Errorf("--set %q: expected name=value", a)
		}
		if !ctx.Set(strings.TrimSpace(name), value) {
			return ctx, fmt.Errorf("--set %q: unknown scheme field (known: %s)", a, strings.Join(playbook.SchemeFields, ", "))
		}
	}
	return ctx, nil
}
