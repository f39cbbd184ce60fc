package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rostercore/internal/infra/persistence/memory"
	"rostercore/pkg/domain"
)

// Service exposes higher-level transactional operations for the roster schema.
type Service struct {
	store   PersistentStore
	logger  Logger
	clock   Clock
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:   store,
		logger:  options.logger,
		clock:   options.clock,
		audit:   options.audit,
		metrics: options.metrics,
		tracer:  options.tracer,
	}
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine. A nil engine gets the default roster integrity rules.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

type operationMetadata struct {
	Entity domain.EntityType
	Action domain.Action
}

var auditedOperations = map[string]operationMetadata{
	"add_student":       {Entity: domain.EntityStudent, Action: domain.ActionCreate},
	"update_student":    {Entity: domain.EntityStudent, Action: domain.ActionUpdate},
	"delete_student":    {Entity: domain.EntityStudent, Action: domain.ActionDelete},
	"add_instructor":    {Entity: domain.EntityInstructor, Action: domain.ActionCreate},
	"update_instructor": {Entity: domain.EntityInstructor, Action: domain.ActionUpdate},
	"delete_instructor": {Entity: domain.EntityInstructor, Action: domain.ActionDelete},
	"add_course":        {Entity: domain.EntityCourse, Action: domain.ActionCreate},
	"update_course":     {Entity: domain.EntityCourse, Action: domain.ActionUpdate},
	"delete_course":     {Entity: domain.EntityCourse, Action: domain.ActionDelete},
	"enroll_student":    {Entity: domain.EntityStudent, Action: domain.ActionUpdate},
	"withdraw_student":  {Entity: domain.EntityStudent, Action: domain.ActionUpdate},
	"assign_instructor": {Entity: domain.EntityCourse, Action: domain.ActionUpdate},
}

func (s *Service) recordAudit(ctx context.Context, operation, entityID string, duration time.Duration, opErr error) {
	meta, ok := auditedOperations[operation]
	if !ok {
		return
	}
	entry := AuditEntry{
		ID:        uuid.NewString(),
		Operation: operation,
		Entity:    meta.Entity,
		Action:    meta.Action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if opErr != nil {
		entry.Status = AuditStatusError
		entry.Error = opErr.Error()
	}
	s.audit.Record(ctx, entry)
}

// recordAuditSuccess keeps a direct entry point for callers that commit
// outside the run helper.
func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	s.recordAudit(ctx, operation, entityID, duration, nil)
}

// run wraps a store transaction with tracing, metrics, audit and logging.
// entityID is resolved after the transaction so generated ids are captured.
func (s *Service) run(ctx context.Context, operation string, fn func(tx Transaction) error, entityID func() string) (Result, error) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	id := ""
	if entityID != nil {
		id = entityID()
	}
	s.recordAudit(ctx, operation, id, duration, err)
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "entity_id", id, "error", err)
		return res, err
	}
	s.logger.Info("operation committed", "operation", operation, "entity_id", id, "duration", duration)
	return res, nil
}

// AddStudent persists a new student, registering it in any referenced courses.
func (s *Service) AddStudent(ctx context.Context, student Student) (Student, Result, error) {
	var created Student
	res, err := s.run(ctx, "add_student", func(tx Transaction) error {
		var err error
		created, err = tx.CreateStudent(student)
		return err
	}, func() string { return created.StudentID })
	return created, res, err
}

// AddInstructor persists a new instructor.
func (s *Service) AddInstructor(ctx context.Context, instructor Instructor) (Instructor, Result, error) {
	var created Instructor
	res, err := s.run(ctx, "add_instructor", func(tx Transaction) error {
		var err error
		created, err = tx.CreateInstructor(instructor)
		return err
	}, func() string { return created.InstructorID })
	return created, res, err
}

// AddCourse persists a new course, wiring up its instructor and roster.
func (s *Service) AddCourse(ctx context.Context, course Course) (Course, Result, error) {
	var created Course
	res, err := s.run(ctx, "add_course", func(tx Transaction) error {
		var err error
		created, err = tx.CreateCourse(course)
		return err
	}, func() string { return created.CourseID })
	return created, res, err
}

// UpdateStudent mutates a student using the provided mutator.
func (s *Service) UpdateStudent(ctx context.Context, id string, mutator func(*Student) error) (Student, Result, error) {
	var updated Student
	res, err := s.run(ctx, "update_student", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateStudent(id, mutator)
		return err
	}, func() string { return id })
	return updated, res, err
}

// UpdateInstructor mutates an instructor using the provided mutator.
func (s *Service) UpdateInstructor(ctx context.Context, id string, mutator func(*Instructor) error) (Instructor, Result, error) {
	var updated Instructor
	res, err := s.run(ctx, "update_instructor", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateInstructor(id, mutator)
		return err
	}, func() string { return id })
	return updated, res, err
}

// UpdateCourse mutates a course using the provided mutator.
func (s *Service) UpdateCourse(ctx context.Context, id string, mutator func(*Course) error) (Course, Result, error) {
	var updated Course
	res, err := s.run(ctx, "update_course", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateCourse(id, mutator)
		return err
	}, func() string { return id })
	return updated, res, err
}

// PersonUpdate carries optional field edits for people. Nil fields keep
// their current value.
type PersonUpdate struct {
	Name  *string
	Age   *int
	Email *string
}

func (u PersonUpdate) apply(p *Person) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
}

// CourseUpdate carries optional field edits for courses.
type CourseUpdate struct {
	Name *string
}

// EditStudent applies a partial update to a student.
func (s *Service) EditStudent(ctx context.Context, id string, update PersonUpdate) (Student, Result, error) {
	return s.UpdateStudent(ctx, id, func(st *Student) error {
		update.apply(&st.Person)
		return nil
	})
}

// EditInstructor applies a partial update to an instructor.
func (s *Service) EditInstructor(ctx context.Context, id string, update PersonUpdate) (Instructor, Result, error) {
	return s.UpdateInstructor(ctx, id, func(in *Instructor) error {
		update.apply(&in.Person)
		return nil
	})
}

// EditCourse applies a partial update to a course.
func (s *Service) EditCourse(ctx context.Context, id string, update CourseUpdate) (Course, Result, error) {
	return s.UpdateCourse(ctx, id, func(c *Course) error {
		if update.Name != nil {
			c.Name = *update.Name
		}
		return nil
	})
}

// DeleteStudent removes a student, withdrawing it from all courses. Unknown
// ids are ignored.
func (s *Service) DeleteStudent(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_student", func(tx Transaction) error {
		return tx.DeleteStudent(id)
	}, func() string { return id })
}

// DeleteInstructor removes an instructor, unassigning all of its courses.
// Unknown ids are ignored.
func (s *Service) DeleteInstructor(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_instructor", func(tx Transaction) error {
		return tx.DeleteInstructor(id)
	}, func() string { return id })
}

// DeleteCourse removes a course, scrubbing it from student registrations and
// instructor assignments. Unknown ids are ignored.
func (s *Service) DeleteCourse(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_course", func(tx Transaction) error {
		return tx.DeleteCourse(id)
	}, func() string { return id })
}

// Enroll registers a student in a course on both sides of the relationship.
func (s *Service) Enroll(ctx context.Context, studentID, courseID string) (Result, error) {
	return s.run(ctx, "enroll_student", func(tx Transaction) error {
		return tx.EnrollStudent(studentID, courseID)
	}, func() string { return studentID })
}

// Withdraw removes a student from a course on both sides of the relationship.
func (s *Service) Withdraw(ctx context.Context, studentID, courseID string) (Result, error) {
	return s.run(ctx, "withdraw_student", func(tx Transaction) error {
		return tx.WithdrawStudent(studentID, courseID)
	}, func() string { return studentID })
}

// AssignInstructor sets the instructor of a course, releasing any previous
// assignment.
func (s *Service) AssignInstructor(ctx context.Context, courseID, instructorID string) (Result, error) {
	return s.run(ctx, "assign_instructor", func(tx Transaction) error {
		return tx.AssignInstructor(courseID, &instructorID)
	}, func() string { return courseID })
}

// UnassignInstructor clears the instructor of a course.
func (s *Service) UnassignInstructor(ctx context.Context, courseID string) (Result, error) {
	return s.run(ctx, "assign_instructor", func(tx Transaction) error {
		return tx.AssignInstructor(courseID, nil)
	}, func() string { return courseID })
}

// GetStudent retrieves a student by id.
func (s *Service) GetStudent(ctx context.Context, id string) (Student, bool) {
	var out Student
	var found bool
	_ = s.store.View(ctx, func(view TransactionView) error {
		out, found = view.FindStudent(id)
		return nil
	})
	return out, found
}

// GetInstructor retrieves an instructor by id.
func (s *Service) GetInstructor(ctx context.Context, id string) (Instructor, bool) {
	var out Instructor
	var found bool
	_ = s.store.View(ctx, func(view TransactionView) error {
		out, found = view.FindInstructor(id)
		return nil
	})
	return out, found
}

// GetCourse retrieves a course by id.
func (s *Service) GetCourse(ctx context.Context, id string) (Course, bool) {
	var out Course
	var found bool
	_ = s.store.View(ctx, func(view TransactionView) error {
		out, found = view.FindCourse(id)
		return nil
	})
	return out, found
}

// FindStudentByName returns the first student with the given name in
// insertion order. Names are not unique.
func (s *Service) FindStudentByName(ctx context.Context, name string) (Student, bool) {
	var out Student
	var found bool
	_ = s.store.View(ctx, func(view TransactionView) error {
		for _, student := range view.ListStudents() {
			if student.Name == name {
				out, found = student, true
				return nil
			}
		}
		return nil
	})
	return out, found
}

// FindInstructorByName returns the first instructor with the given name in
// insertion order.
func (s *Service) FindInstructorByName(ctx context.Context, name string) (Instructor, bool) {
	var out Instructor
	var found bool
	_ = s.store.View(ctx, func(view TransactionView) error {
		for _, instructor := range view.ListInstructors() {
			if instructor.Name == name {
				out, found = instructor, true
				return nil
			}
		}
		return nil
	})
	return out, found
}

// FindCourseByName returns the first course with the given name in insertion
// order.
func (s *Service) FindCourseByName(ctx context.Context, name string) (Course, bool) {
	var out Course
	var found bool
	_ = s.store.View(ctx, func(view TransactionView) error {
		for _, course := range view.ListCourses() {
			if course.Name == name {
				out, found = course, true
				return nil
			}
		}
		return nil
	})
	return out, found
}

// ListStudents returns all students in insertion order.
func (s *Service) ListStudents(ctx context.Context) []Student {
	var out []Student
	_ = s.store.View(ctx, func(view TransactionView) error {
		out = view.ListStudents()
		return nil
	})
	return out
}

// ListInstructors returns all instructors in insertion order.
func (s *Service) ListInstructors(ctx context.Context) []Instructor {
	var out []Instructor
	_ = s.store.View(ctx, func(view TransactionView) error {
		out = view.ListInstructors()
		return nil
	})
	return out
}

// ListCourses returns all courses in insertion order.
func (s *Service) ListCourses(ctx context.Context) []Course {
	var out []Course
	_ = s.store.View(ctx, func(view TransactionView) error {
		out = view.ListCourses()
		return nil
	})
	return out
}

// ExportState flattens the current store state into its wire form.
func (s *Service) ExportState(context.Context) Snapshot {
	return s.store.ExportState()
}

// ImportState replaces the store state with the provided snapshot, dropping
// unresolvable references. Durable stores report a failed write-through here.
func (s *Service) ImportState(_ context.Context, snapshot Snapshot) error {
	if err := s.store.ImportState(snapshot); err != nil {
		s.logger.Error("state import failed", "error", err)
		return err
	}
	s.logger.Info("state imported",
		"students", len(snapshot.Students),
		"instructors", len(snapshot.Instructors),
		"courses", len(snapshot.Courses),
	)
	return nil
}
