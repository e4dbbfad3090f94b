// cmd/concierge/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "concierge",
		Short: "Inspect homeowner playbooks and escalation routing offline",
		Long: "concierge renders playbooks, detects topics and dry-runs escalation routing\n" +
			"exactly as the workers do, without Zeebe, Postgres or Redis.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}

	root.AddCommand(newPlaybookCmd())
	root.AddCommand(newEscalationCmd())
	root.AddCommand(newWorkersCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
