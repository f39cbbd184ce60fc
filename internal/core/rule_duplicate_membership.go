package core

import (
	"context"
	"fmt"

	"rostercore/pkg/domain"
)

// NewDuplicateMembershipRule returns the in-transaction rule rejecting
// duplicate ids inside any relationship list.
func NewDuplicateMembershipRule() domain.Rule {
	return duplicateMembershipRule{}
}

type duplicateMembershipRule struct{}

func (duplicateMembershipRule) Name() string { return "duplicate_membership" }

func (duplicateMembershipRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	flag := func(entity domain.EntityType, entityID, field, dup string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "duplicate_membership",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s has duplicate %s entry %s", entity, entityID, field, dup),
			Entity:   entity,
			EntityID: entityID,
		})
	}
	for _, student := range view.ListStudents() {
		if dup, ok := firstDuplicate(student.CourseIDs); ok {
			flag(domain.EntityStudent, student.StudentID, "course", dup)
		}
	}
	for _, instructor := range view.ListInstructors() {
		if dup, ok := firstDuplicate(instructor.CourseIDs); ok {
			flag(domain.EntityInstructor, instructor.InstructorID, "course", dup)
		}
	}
	for _, course := range view.ListCourses() {
		if dup, ok := firstDuplicate(course.StudentIDs); ok {
			flag(domain.EntityCourse, course.CourseID, "student", dup)
		}
	}
	return res, nil
}

func firstDuplicate(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
