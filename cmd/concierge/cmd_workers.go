// cmd/concierge/cmd_workers.go
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"concierge-workers/pkg/registry"
)

func newWorkersCmd() *cobra.Command {
	var registryPath string

	cmd := &cobra.Command{
		Use:   "workers",
		Short: "List the task types the worker manager serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := registry.Default()
			if registryPath != "" {
				var err error
				if reg, err = registry.LoadRegistry(registryPath); err != nil {
					return fmt.Errorf("load registry: %w", err)
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK TYPE\tTIMEOUT\tRETRIES\tERROR CODES")
			for _, a := range reg.Activities {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.TaskType, a.Timeout, a.Retries, strings.Join(a.ErrorCodes, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&registryPath, "registry", "", "activity registry JSON (defaults to the built-in one)")
	return cmd
}
