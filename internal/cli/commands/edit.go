package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostercore/internal/core"
)

// NewEditCommand creates the edit command. Only flags that were explicitly
// set are applied; everything else keeps its stored value.
func NewEditCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit fields of a student, instructor or course",
	}
	cmd.AddCommand(newEditStudentCommand(env))
	cmd.AddCommand(newEditInstructorCommand(env))
	cmd.AddCommand(newEditCourseCommand(env))
	return cmd
}

func personUpdateFromFlags(cmd *cobra.Command, name *string, age *int, email *string) core.PersonUpdate {
	var update core.PersonUpdate
	if cmd.Flags().Changed("name") {
		update.Name = name
	}
	if cmd.Flags().Changed("age") {
		update.Age = age
	}
	if cmd.Flags().Changed("email") {
		update.Email = email
	}
	return update
}

func newEditStudentCommand(env *Env) *cobra.Command {
	var (
		name  string
		age   int
		email string
	)
	cmd := &cobra.Command{
		Use:   "student <id>",
		Short: "Edit a student",
		Args:  cobra.ExactArgs(1),
		Example: `  # Change only the email address
  rostercore edit student STU100 --email ann.ruiz@example.edu`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				update := personUpdateFromFlags(cmd, &name, &age, &email)
				student, _, err := svc.EditStudent(cmd.Context(), args[0], update)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated student %s (%s)\n", student.StudentID, student.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new full name")
	cmd.Flags().IntVar(&age, "age", 0, "new age")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	return cmd
}

func newEditInstructorCommand(env *Env) *cobra.Command {
	var (
		name  string
		age   int
		email string
	)
	cmd := &cobra.Command{
		Use:   "instructor <id>",
		Short: "Edit an instructor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				update := personUpdateFromFlags(cmd, &name, &age, &email)
				instructor, _, err := svc.EditInstructor(cmd.Context(), args[0], update)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated instructor %s (%s)\n", instructor.InstructorID, instructor.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new full name")
	cmd.Flags().IntVar(&age, "age", 0, "new age")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	return cmd
}

func newEditCourseCommand(env *Env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "course <id>",
		Short: "Edit a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withService(func(svc *core.Service) error {
				var update core.CourseUpdate
				if cmd.Flags().Changed("name") {
					update.Name = &name
				}
				course, _, err := svc.EditCourse(cmd.Context(), args[0], update)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated course %s (%s)\n", course.CourseID, course.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new course name")
	return cmd
}
