package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostercore/internal/core"
)

// NewDeleteCommand creates the delete command. Deleting a missing id is a
// no-op; related enrollments and assignments are detached automatically.
func NewDeleteCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a student, instructor or course",
	}
	cmd.AddCommand(newDeleteEntityCommand(env, "student", func(svc *core.Service, cmd *cobra.Command, id string) error {
		_, err := svc.DeleteStudent(cmd.Context(), id)
		return err
	}))
	cmd.AddCommand(newDeleteEntityCommand(env, "instructor", func(svc *core.Service, cmd *cobra.Command, id string) error {
		_, err := svc.DeleteInstructor(cmd.Context(), id)
		return err
	}))
	cmd.AddCommand(newDeleteEntityCommand(env, "course", func(svc *core.Service, cmd *cobra.Command, id string) error {
		_, err := svc.DeleteCourse(cmd.Context(), id)
		return err
	}))
	return cmd
}

func newDeleteEntityCommand(env *Env, kind string, del func(*core.Service, *cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <id>",
		Short: "Delete a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				if err := del(svc, cmd, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, args[0])
				return nil
			})
		},
	}
}
