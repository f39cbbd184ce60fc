package core

import (
	"context"
	"fmt"

	"rostercore/pkg/domain"
)

// NewAssignmentSymmetryRule returns the in-transaction rule enforcing that
// course instructor references and instructor assignment lists agree.
func NewAssignmentSymmetryRule() domain.Rule {
	return assignmentSymmetryRule{}
}

type assignmentSymmetryRule struct{}

func (assignmentSymmetryRule) Name() string { return "assignment_symmetry" }

func (assignmentSymmetryRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, course := range view.ListCourses() {
		if course.InstructorID == nil {
			continue
		}
		instructor, ok := view.FindInstructor(*course.InstructorID)
		if !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "assignment_symmetry",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("course %s assigned to unknown instructor %s", course.CourseID, *course.InstructorID),
				Entity:   domain.EntityCourse,
				EntityID: course.CourseID,
			})
			continue
		}
		if !domain.ContainsID(instructor.CourseIDs, course.CourseID) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "assignment_symmetry",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("course %s assigned to instructor %s who does not list it", course.CourseID, instructor.InstructorID),
				Entity:   domain.EntityCourse,
				EntityID: course.CourseID,
			})
		}
	}
	for _, instructor := range view.ListInstructors() {
		for _, courseID := range instructor.CourseIDs {
			course, ok := view.FindCourse(courseID)
			if !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "assignment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("instructor %s lists unknown course %s", instructor.InstructorID, courseID),
					Entity:   domain.EntityInstructor,
					EntityID: instructor.InstructorID,
				})
				continue
			}
			if course.InstructorID == nil || *course.InstructorID != instructor.InstructorID {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "assignment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("instructor %s lists course %s which is assigned elsewhere", instructor.InstructorID, courseID),
					Entity:   domain.EntityInstructor,
					EntityID: instructor.InstructorID,
				})
			}
		}
	}
	return res, nil
}
