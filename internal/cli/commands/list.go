package commands

import (
	"github.com/spf13/cobra"

	"rostercore/internal/core"
)

// NewListCommand creates the list command.
func NewListCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the full roster",
		Long:  "List every student, instructor and course in insertion order.",
		Example: `  # Formatted tables
  rostercore list

  # Machine-readable output
  rostercore list --output json
  rostercore list --output csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withService(func(svc *core.Service) error {
				return renderSnapshot(cmd.OutOrStdout(), svc.ExportState(cmd.Context()), env.outputFormat(cmd))
			})
		},
	}
	cmd.Flags().String("output", "", "output format: table|json|csv")
	return cmd
}
