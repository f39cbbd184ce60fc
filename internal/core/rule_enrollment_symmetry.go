package core

import (
	"context"
	"fmt"

	"rostercore/pkg/domain"
)

// NewEnrollmentSymmetryRule returns the in-transaction rule enforcing that
// student registrations and course rosters mirror each other exactly.
func NewEnrollmentSymmetryRule() domain.Rule {
	return enrollmentSymmetryRule{}
}

type enrollmentSymmetryRule struct{}

func (enrollmentSymmetryRule) Name() string { return "enrollment_symmetry" }

func (enrollmentSymmetryRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, student := range view.ListStudents() {
		for _, courseID := range student.CourseIDs {
			course, ok := view.FindCourse(courseID)
			if !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "enrollment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("student %s registered in unknown course %s", student.StudentID, courseID),
					Entity:   domain.EntityStudent,
					EntityID: student.StudentID,
				})
				continue
			}
			if !domain.ContainsID(course.StudentIDs, student.StudentID) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "enrollment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("student %s registered in course %s but missing from its roster", student.StudentID, courseID),
					Entity:   domain.EntityStudent,
					EntityID: student.StudentID,
				})
			}
		}
	}
	for _, course := range view.ListCourses() {
		for _, studentID := range course.StudentIDs {
			student, ok := view.FindStudent(studentID)
			if !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "enrollment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("course %s lists unknown student %s", course.CourseID, studentID),
					Entity:   domain.EntityCourse,
					EntityID: course.CourseID,
				})
				continue
			}
			if !domain.ContainsID(student.CourseIDs, course.CourseID) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "enrollment_symmetry",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("course %s lists student %s who is not registered in it", course.CourseID, studentID),
					Entity:   domain.EntityCourse,
					EntityID: course.CourseID,
				})
			}
		}
	}
	return res, nil
}
