// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by rostercore.
package domain

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityStudent identifies a student record.
	EntityStudent EntityType = "student"
	// EntityInstructor identifies an instructor record.
	EntityInstructor EntityType = "instructor"
	// EntityCourse identifies a course record.
	EntityCourse EntityType = "course"
)

// Default id prefixes used when a caller does not supply an explicit key.
const (
	StudentIDPrefix    = "STU"
	InstructorIDPrefix = "PROF"
	CourseIDPrefix     = "COURSE"
)

// Person carries the validated fields shared by students and instructors.
// It is embedded by composition rather than inherited.
type Person struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

// Student represents an enrollable person identified by a unique student id.
type Student struct {
	StudentID string `json:"student_id"`
	Person
	CourseIDs []string `json:"registered_courses"`
}

// Instructor represents a teaching person identified by a unique instructor id.
type Instructor struct {
	InstructorID string `json:"instructor_id"`
	Person
	CourseIDs []string `json:"assigned_courses"`
}

// Course represents an offering. The instructor reference is weak: a course
// points at its instructor by key and never owns it.
type Course struct {
	CourseID     string   `json:"course_id"`
	Name         string   `json:"course_name"`
	InstructorID *string  `json:"instructor_id"`
	StudentIDs   []string `json:"enrolled_students"`
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
