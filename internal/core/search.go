package core

import (
	"context"
	"strings"
)

// SearchResults groups matches per collection, each in store order.
type SearchResults struct {
	Students    []Student    `json:"students"`
	Instructors []Instructor `json:"instructors"`
	Courses     []Course     `json:"courses"`
}

// Empty reports whether no entity matched.
func (r SearchResults) Empty() bool {
	return len(r.Students) == 0 && len(r.Instructors) == 0 && len(r.Courses) == 0
}

// Search scans all collections for a case-insensitive substring match. A
// student or instructor matches on its id, name, email, or the id or name of
// any related course; a course matches on its id, name, or assigned
// instructor id. A blank query matches every entity.
func (s *Service) Search(ctx context.Context, query string) (SearchResults, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	var results SearchResults
	err := s.store.View(ctx, func(view TransactionView) error {
		courseNames := make(map[string]string)
		for _, course := range view.ListCourses() {
			courseNames[course.CourseID] = course.Name
		}
		matches := func(fields ...string) bool {
			if needle == "" {
				return true
			}
			for _, field := range fields {
				if strings.Contains(strings.ToLower(field), needle) {
					return true
				}
			}
			return false
		}
		courseHaystack := func(ids []string) []string {
			out := make([]string, 0, 2*len(ids))
			for _, id := range ids {
				out = append(out, id, courseNames[id])
			}
			return out
		}
		for _, student := range view.ListStudents() {
			fields := append([]string{student.StudentID, student.Name, student.Email}, courseHaystack(student.CourseIDs)...)
			if matches(fields...) {
				results.Students = append(results.Students, student)
			}
		}
		for _, instructor := range view.ListInstructors() {
			fields := append([]string{instructor.InstructorID, instructor.Name, instructor.Email}, courseHaystack(instructor.CourseIDs)...)
			if matches(fields...) {
				results.Instructors = append(results.Instructors, instructor)
			}
		}
		for _, course := range view.ListCourses() {
			fields := []string{course.CourseID, course.Name}
			if course.InstructorID != nil {
				fields = append(fields, *course.InstructorID)
			}
			if matches(fields...) {
				results.Courses = append(results.Courses, course)
			}
		}
		return nil
	})
	if err != nil {
		return SearchResults{}, err
	}
	return results, nil
}
