package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostercore/internal/core"
)

// NewAssignCommand creates the assign command. Assigning a course that
// already has an instructor moves it; both sides stay in sync.
func NewAssignCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "assign <course-id> <instructor-id>",
		Short:   "Assign an instructor to a course",
		Args:    cobra.ExactArgs(2),
		Example: `  rostercore assign COURSE100 PROF100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				if _, err := svc.AssignInstructor(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

// NewUnassignCommand creates the unassign command.
func NewUnassignCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <course-id>",
		Short: "Remove the instructor from a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				if _, err := svc.UnassignInstructor(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unassigned instructor from %s\n", args[0])
				return nil
			})
		},
	}
}
