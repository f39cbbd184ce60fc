package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// emailPattern rejects the common mistakes (missing @, leading @, spaces,
// bare domain without a dot). It is deliberately not RFC-complete.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError reports a field that failed its format or range rule. The
// operation that received the bad value leaves the store unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned by mutating operations that require an existing
// target. Plain lookups return an absent result instead of this error.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Validate checks the shared person fields.
func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.Age < 0 {
		return ValidationError{Field: "age", Reason: "must not be negative"}
	}
	if !emailPattern.MatchString(p.Email) {
		return ValidationError{Field: "email", Reason: "must look like local@domain.tld"}
	}
	return nil
}

// ValidateID checks that a caller-supplied key is a non-empty string.
func ValidateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// Validate checks all student fields.
func (s Student) Validate() error {
	if err := ValidateID("student_id", s.StudentID); err != nil {
		return err
	}
	return s.Person.Validate()
}

// Validate checks all instructor fields.
func (i Instructor) Validate() error {
	if err := ValidateID("instructor_id", i.InstructorID); err != nil {
		return err
	}
	return i.Person.Validate()
}

// Validate checks all course fields.
func (c Course) Validate() error {
	if err := ValidateID("course_id", c.CourseID); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return ValidationError{Field: "course_name", Reason: "must not be empty"}
	}
	return nil
}
