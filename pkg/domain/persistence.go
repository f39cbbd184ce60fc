package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateStudent(Student) (Student, error)
	UpdateStudent(id string, mutator func(*Student) error) (Student, error)
	DeleteStudent(id string) error
	CreateInstructor(Instructor) (Instructor, error)
	UpdateInstructor(id string, mutator func(*Instructor) error) (Instructor, error)
	DeleteInstructor(id string) error
	CreateCourse(Course) (Course, error)
	UpdateCourse(id string, mutator func(*Course) error) (Course, error)
	DeleteCourse(id string) error
	EnrollStudent(studentID, courseID string) error
	WithdrawStudent(studentID, courseID string) error
	AssignInstructor(courseID string, instructorID *string) error
	FindStudent(id string) (Student, bool)
	FindInstructor(id string) (Instructor, bool)
	FindCourse(id string) (Course, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// read paths. List order is store insertion order.
type TransactionView interface {
	ListStudents() []Student
	ListInstructors() []Instructor
	ListCourses() []Course
	FindStudent(id string) (Student, bool)
	FindInstructor(id string) (Instructor, bool)
	FindCourse(id string) (Course, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetStudent(id string) (Student, bool)
	GetInstructor(id string) (Instructor, bool)
	GetCourse(id string) (Course, bool)
	ListStudents() []Student
	ListInstructors() []Instructor
	ListCourses() []Course
	ExportState() Snapshot
	ImportState(Snapshot) error
}
