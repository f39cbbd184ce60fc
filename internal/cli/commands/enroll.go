package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostercore/internal/core"
)

// NewEnrollCommand creates the enroll command. Enrolling twice is a no-op,
// as is referencing an id that does not exist.
func NewEnrollCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "enroll <student-id> <course-id>",
		Short:   "Enroll a student in a course",
		Args:    cobra.ExactArgs(2),
		Example: `  rostercore enroll STU100 COURSE100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				if _, err := svc.Enroll(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s in %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <student-id> <course-id>",
		Short: "Withdraw a student from a course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				if _, err := svc.Withdraw(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Withdrew %s from %s\n", args[0], args[1])
				return nil
			})
		},
	}
}
