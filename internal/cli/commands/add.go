package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostercore/internal/core"
	"rostercore/pkg/domain"
)

// NewAddCommand creates the add command with one subcommand per entity kind.
func NewAddCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student, instructor or course",
	}
	cmd.AddCommand(newAddStudentCommand(env))
	cmd.AddCommand(newAddInstructorCommand(env))
	cmd.AddCommand(newAddCourseCommand(env))
	return cmd
}

func newAddStudentCommand(env *Env) *cobra.Command {
	var (
		name    string
		age     int
		email   string
		courses []string
	)
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Add a student",
		Example: `  # Add a student and enroll them in two courses
  rostercore add student --name "Ann Ruiz" --age 20 --email ann@example.edu --course COURSE100 --course COURSE101`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withService(func(svc *core.Service) error {
				student, _, err := svc.AddStudent(cmd.Context(), domain.Student{
					Person:    domain.Person{Name: name, Age: age, Email: email},
					CourseIDs: courses,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added student %s (%s)\n", student.StudentID, student.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name (required)")
	cmd.Flags().IntVar(&age, "age", 0, "age in years (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringArrayVar(&courses, "course", nil, "course id to enroll in (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newAddInstructorCommand(env *Env) *cobra.Command {
	var (
		name  string
		age   int
		email string
	)
	cmd := &cobra.Command{
		Use:   "instructor",
		Short: "Add an instructor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withService(func(svc *core.Service) error {
				instructor, _, err := svc.AddInstructor(cmd.Context(), domain.Instructor{
					Person: domain.Person{Name: name, Age: age, Email: email},
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added instructor %s (%s)\n", instructor.InstructorID, instructor.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name (required)")
	cmd.Flags().IntVar(&age, "age", 0, "age in years (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newAddCourseCommand(env *Env) *cobra.Command {
	var (
		name       string
		instructor string
		students   []string
	)
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Add a course",
		Example: `  # Add a course taught by PROF100 with one enrolled student
  rostercore add course --name Algorithms --instructor PROF100 --student STU100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withService(func(svc *core.Service) error {
				course := domain.Course{Name: name, StudentIDs: students}
				if instructor != "" {
					course.InstructorID = &instructor
				}
				created, _, err := svc.AddCourse(cmd.Context(), course)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added course %s (%s)\n", created.CourseID, created.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "course name (required)")
	cmd.Flags().StringVar(&instructor, "instructor", "", "instructor id to assign")
	cmd.Flags().StringArrayVar(&students, "student", nil, "student id to enroll (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
