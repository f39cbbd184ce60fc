// Package memory provides the in-memory implementation of the core
// persistence store. It is the canonical store: the sqlite and postgres
// drivers embed it and add durability on top.
package memory

import (
	"context"
	"fmt"
	"sync"

	"rostercore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Student aliases domain.Student for in-memory persistence operations.
	Student = domain.Student
	// Instructor aliases domain.Instructor.
	Instructor = domain.Instructor
	// Course aliases domain.Course.
	Course = domain.Course
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
	// Snapshot aliases the id-keyed wire form of the store state.
	Snapshot = domain.Snapshot
)

// memoryState holds the live collections keyed by id plus the insertion
// order of each collection. The order slices drive listing, search and
// export; the maps stay authoritative for membership.
type memoryState struct {
	students        map[string]Student
	instructors     map[string]Instructor
	courses         map[string]Course
	studentOrder    []string
	instructorOrder []string
	courseOrder     []string
}

func newMemoryState() memoryState {
	return memoryState{
		students:    make(map[string]Student),
		instructors: make(map[string]Instructor),
		courses:     make(map[string]Course),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.students {
		cloned.students[k] = cloneStudent(v)
	}
	for k, v := range s.instructors {
		cloned.instructors[k] = cloneInstructor(v)
	}
	for k, v := range s.courses {
		cloned.courses[k] = cloneCourse(v)
	}
	cloned.studentOrder = append([]string(nil), s.studentOrder...)
	cloned.instructorOrder = append([]string(nil), s.instructorOrder...)
	cloned.courseOrder = append([]string(nil), s.courseOrder...)
	return cloned
}

func cloneStudent(st Student) Student {
	cp := st
	cp.CourseIDs = append([]string(nil), st.CourseIDs...)
	return cp
}

func cloneInstructor(in Instructor) Instructor {
	cp := in
	cp.CourseIDs = append([]string(nil), in.CourseIDs...)
	return cp
}

func cloneCourse(c Course) Course {
	cp := c
	if c.InstructorID != nil {
		id := *c.InstructorID
		cp.InstructorID = &id
	}
	cp.StudentIDs = append([]string(nil), c.StudentIDs...)
	return cp
}

func containsString(values []string, id string) bool {
	for _, existing := range values {
		if existing == id {
			return true
		}
	}
	return false
}

func appendMissing(values []string, id string) []string {
	if containsString(values, id) {
		return values
	}
	return append(values, id)
}

func removeString(values []string, id string) []string {
	out := values[:0]
	for _, existing := range values {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// Store provides an in-memory transactional store for the roster domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
	}
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// ExportState flattens the current store state into its id-keyed wire form.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := domain.Flatten(
		orderedStudents(&s.state),
		orderedInstructors(&s.state),
		orderedCourses(&s.state),
	)
	return snap
}

// ImportState replaces the store state with the entities recovered from the
// snapshot. Unresolvable references are dropped rather than rejected. The
// error return is for durable stores layered on top; the memory store itself
// always succeeds.
func (s *Store) ImportState(snapshot Snapshot) error {
	students, instructors, courses := domain.Unflatten(snapshot)
	state := newMemoryState()
	for _, st := range students {
		state.students[st.StudentID] = cloneStudent(st)
		state.studentOrder = append(state.studentOrder, st.StudentID)
	}
	for _, in := range instructors {
		state.instructors[in.InstructorID] = cloneInstructor(in)
		state.instructorOrder = append(state.instructorOrder, in.InstructorID)
	}
	for _, c := range courses {
		state.courses[c.CourseID] = cloneCourse(c)
		state.courseOrder = append(state.courseOrder, c.CourseID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Rules are evaluated against the candidate state before commit; a blocking
// violation aborts the transaction with a RuleViolationError.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetStudent retrieves a student by id outside a transaction.
func (s *Store) GetStudent(id string) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.state.students[id]
	if !ok {
		return Student{}, false
	}
	return cloneStudent(st), true
}

// GetInstructor retrieves an instructor by id outside a transaction.
func (s *Store) GetInstructor(id string) (Instructor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.state.instructors[id]
	if !ok {
		return Instructor{}, false
	}
	return cloneInstructor(in), true
}

// GetCourse retrieves a course by id outside a transaction.
func (s *Store) GetCourse(id string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.courses[id]
	if !ok {
		return Course{}, false
	}
	return cloneCourse(c), true
}

// ListStudents returns all students in insertion order.
func (s *Store) ListStudents() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return orderedStudents(&s.state)
}

// ListInstructors returns all instructors in insertion order.
func (s *Store) ListInstructors() []Instructor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return orderedInstructors(&s.state)
}

// ListCourses returns all courses in insertion order.
func (s *Store) ListCourses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return orderedCourses(&s.state)
}

func orderedStudents(state *memoryState) []Student {
	out := make([]Student, 0, len(state.students))
	for _, id := range state.studentOrder {
		if st, ok := state.students[id]; ok {
			out = append(out, cloneStudent(st))
		}
	}
	return out
}

func orderedInstructors(state *memoryState) []Instructor {
	out := make([]Instructor, 0, len(state.instructors))
	for _, id := range state.instructorOrder {
		if in, ok := state.instructors[id]; ok {
			out = append(out, cloneInstructor(in))
		}
	}
	return out
}

func orderedCourses(state *memoryState) []Course {
	out := make([]Course, 0, len(state.courses))
	for _, id := range state.courseOrder {
		if c, ok := state.courses[id]; ok {
			out = append(out, cloneCourse(c))
		}
	}
	return out
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	state   memoryState
	changes []Change
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListStudents returns all students within the transaction snapshot.
func (v transactionView) ListStudents() []Student {
	return orderedStudents(v.state)
}

// ListInstructors returns all instructors within the transaction snapshot.
func (v transactionView) ListInstructors() []Instructor {
	return orderedInstructors(v.state)
}

// ListCourses returns all courses within the transaction snapshot.
func (v transactionView) ListCourses() []Course {
	return orderedCourses(v.state)
}

// FindStudent retrieves a student by id from the snapshot.
func (v transactionView) FindStudent(id string) (Student, bool) {
	st, ok := v.state.students[id]
	if !ok {
		return Student{}, false
	}
	return cloneStudent(st), true
}

// FindInstructor retrieves an instructor by id from the snapshot.
func (v transactionView) FindInstructor(id string) (Instructor, bool) {
	in, ok := v.state.instructors[id]
	if !ok {
		return Instructor{}, false
	}
	return cloneInstructor(in), true
}

// FindCourse retrieves a course by id from the snapshot.
func (v transactionView) FindCourse(id string) (Course, bool) {
	c, ok := v.state.courses[id]
	if !ok {
		return Course{}, false
	}
	return cloneCourse(c), true
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindStudent exposes student lookup within the transaction scope.
func (tx *transaction) FindStudent(id string) (Student, bool) {
	st, ok := tx.state.students[id]
	if !ok {
		return Student{}, false
	}
	return cloneStudent(st), true
}

// FindInstructor exposes instructor lookup within the transaction scope.
func (tx *transaction) FindInstructor(id string) (Instructor, bool) {
	in, ok := tx.state.instructors[id]
	if !ok {
		return Instructor{}, false
	}
	return cloneInstructor(in), true
}

// FindCourse exposes course lookup within the transaction scope.
func (tx *transaction) FindCourse(id string) (Course, bool) {
	c, ok := tx.state.courses[id]
	if !ok {
		return Course{}, false
	}
	return cloneCourse(c), true
}

// nextID returns the first free id of the form prefix + n, starting the probe
// at count+100 so generated ids survive interleaved deletes.
func nextID(prefix string, count int, taken func(string) bool) string {
	n := count + 100
	for {
		id := fmt.Sprintf("%s%d", prefix, n)
		if !taken(id) {
			return id
		}
		n++
	}
}

// CreateStudent stores a new student within the transaction. A blank id is
// generated; a supplied id must be unused. Course references are resolved
// against the transaction state: existing courses are enrolled on both
// sides, unknown ids are dropped.
func (tx *transaction) CreateStudent(st Student) (Student, error) {
	if st.StudentID == "" {
		st.StudentID = nextID(domain.StudentIDPrefix, len(tx.state.students), func(id string) bool {
			_, exists := tx.state.students[id]
			return exists
		})
	}
	if _, exists := tx.state.students[st.StudentID]; exists {
		return Student{}, fmt.Errorf("student %q already exists", st.StudentID)
	}
	requested := st.CourseIDs
	st.CourseIDs = nil
	if err := st.Validate(); err != nil {
		return Student{}, err
	}
	tx.state.students[st.StudentID] = cloneStudent(st)
	tx.state.studentOrder = append(tx.state.studentOrder, st.StudentID)
	for _, courseID := range requested {
		if err := tx.EnrollStudent(st.StudentID, courseID); err != nil {
			return Student{}, err
		}
	}
	created := tx.state.students[st.StudentID]
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionCreate, After: cloneStudent(created)})
	return cloneStudent(created), nil
}

// UpdateStudent mutates a student using the provided mutator function. The
// id and course registrations are pinned; registration changes go through
// EnrollStudent and WithdrawStudent.
func (tx *transaction) UpdateStudent(id string, mutator func(*Student) error) (Student, error) {
	current, ok := tx.state.students[id]
	if !ok {
		return Student{}, domain.NotFoundError{Entity: domain.EntityStudent, ID: id}
	}
	before := cloneStudent(current)
	if err := mutator(&current); err != nil {
		return Student{}, err
	}
	current.StudentID = id
	current.CourseIDs = before.CourseIDs
	if err := current.Validate(); err != nil {
		return Student{}, err
	}
	tx.state.students[id] = cloneStudent(current)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionUpdate, Before: before, After: cloneStudent(current)})
	return cloneStudent(current), nil
}

// DeleteStudent removes a student and withdraws it from every course roster.
// Deleting an unknown id is a no-op.
func (tx *transaction) DeleteStudent(id string) error {
	current, ok := tx.state.students[id]
	if !ok {
		return nil
	}
	for _, courseID := range append([]string(nil), current.CourseIDs...) {
		if course, ok := tx.state.courses[courseID]; ok {
			course.StudentIDs = removeString(course.StudentIDs, id)
			tx.state.courses[courseID] = course
		}
	}
	delete(tx.state.students, id)
	tx.state.studentOrder = removeString(tx.state.studentOrder, id)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionDelete, Before: cloneStudent(current)})
	return nil
}

// CreateInstructor stores a new instructor. Course assignments are owned by
// courses, so any supplied assignment list is discarded; use AssignInstructor.
func (tx *transaction) CreateInstructor(in Instructor) (Instructor, error) {
	if in.InstructorID == "" {
		in.InstructorID = nextID(domain.InstructorIDPrefix, len(tx.state.instructors), func(id string) bool {
			_, exists := tx.state.instructors[id]
			return exists
		})
	}
	if _, exists := tx.state.instructors[in.InstructorID]; exists {
		return Instructor{}, fmt.Errorf("instructor %q already exists", in.InstructorID)
	}
	in.CourseIDs = nil
	if err := in.Validate(); err != nil {
		return Instructor{}, err
	}
	tx.state.instructors[in.InstructorID] = cloneInstructor(in)
	tx.state.instructorOrder = append(tx.state.instructorOrder, in.InstructorID)
	tx.recordChange(Change{Entity: domain.EntityInstructor, Action: domain.ActionCreate, After: cloneInstructor(in)})
	return cloneInstructor(in), nil
}

// UpdateInstructor mutates an instructor. The id and assignment list are
// pinned; assignment changes go through AssignInstructor.
func (tx *transaction) UpdateInstructor(id string, mutator func(*Instructor) error) (Instructor, error) {
	current, ok := tx.state.instructors[id]
	if !ok {
		return Instructor{}, domain.NotFoundError{Entity: domain.EntityInstructor, ID: id}
	}
	before := cloneInstructor(current)
	if err := mutator(&current); err != nil {
		return Instructor{}, err
	}
	current.InstructorID = id
	current.CourseIDs = before.CourseIDs
	if err := current.Validate(); err != nil {
		return Instructor{}, err
	}
	tx.state.instructors[id] = cloneInstructor(current)
	tx.recordChange(Change{Entity: domain.EntityInstructor, Action: domain.ActionUpdate, Before: before, After: cloneInstructor(current)})
	return cloneInstructor(current), nil
}

// DeleteInstructor removes an instructor and clears the assignment on every
// course it taught. Deleting an unknown id is a no-op.
func (tx *transaction) DeleteInstructor(id string) error {
	current, ok := tx.state.instructors[id]
	if !ok {
		return nil
	}
	for _, courseID := range append([]string(nil), current.CourseIDs...) {
		if course, ok := tx.state.courses[courseID]; ok {
			course.InstructorID = nil
			tx.state.courses[courseID] = course
		}
	}
	delete(tx.state.instructors, id)
	tx.state.instructorOrder = removeString(tx.state.instructorOrder, id)
	tx.recordChange(Change{Entity: domain.EntityInstructor, Action: domain.ActionDelete, Before: cloneInstructor(current)})
	return nil
}

// CreateCourse stores a new course. A supplied instructor id or roster is
// resolved against the transaction state: known instructors are assigned,
// known students enrolled, unknown ids dropped.
func (tx *transaction) CreateCourse(c Course) (Course, error) {
	if c.CourseID == "" {
		c.CourseID = nextID(domain.CourseIDPrefix, len(tx.state.courses), func(id string) bool {
			_, exists := tx.state.courses[id]
			return exists
		})
	}
	if _, exists := tx.state.courses[c.CourseID]; exists {
		return Course{}, fmt.Errorf("course %q already exists", c.CourseID)
	}
	instructorID := c.InstructorID
	roster := c.StudentIDs
	c.InstructorID = nil
	c.StudentIDs = nil
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	tx.state.courses[c.CourseID] = cloneCourse(c)
	tx.state.courseOrder = append(tx.state.courseOrder, c.CourseID)
	if instructorID != nil {
		if err := tx.AssignInstructor(c.CourseID, instructorID); err != nil {
			return Course{}, err
		}
	}
	for _, studentID := range roster {
		if err := tx.EnrollStudent(studentID, c.CourseID); err != nil {
			return Course{}, err
		}
	}
	created := tx.state.courses[c.CourseID]
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionCreate, After: cloneCourse(created)})
	return cloneCourse(created), nil
}

// UpdateCourse mutates a course. The id, assignment and roster are pinned;
// relationship changes go through AssignInstructor and EnrollStudent.
func (tx *transaction) UpdateCourse(id string, mutator func(*Course) error) (Course, error) {
	current, ok := tx.state.courses[id]
	if !ok {
		return Course{}, domain.NotFoundError{Entity: domain.EntityCourse, ID: id}
	}
	before := cloneCourse(current)
	if err := mutator(&current); err != nil {
		return Course{}, err
	}
	current.CourseID = id
	current.InstructorID = before.InstructorID
	current.StudentIDs = before.StudentIDs
	if err := current.Validate(); err != nil {
		return Course{}, err
	}
	tx.state.courses[id] = cloneCourse(current)
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionUpdate, Before: before, After: cloneCourse(current)})
	return cloneCourse(current), nil
}

// DeleteCourse removes a course, deregistering every enrolled student and
// releasing the assigned instructor. Deleting an unknown id is a no-op.
func (tx *transaction) DeleteCourse(id string) error {
	current, ok := tx.state.courses[id]
	if !ok {
		return nil
	}
	for _, studentID := range append([]string(nil), current.StudentIDs...) {
		if st, ok := tx.state.students[studentID]; ok {
			st.CourseIDs = removeString(st.CourseIDs, id)
			tx.state.students[studentID] = st
		}
	}
	if current.InstructorID != nil {
		if in, ok := tx.state.instructors[*current.InstructorID]; ok {
			in.CourseIDs = removeString(in.CourseIDs, id)
			tx.state.instructors[in.InstructorID] = in
		}
	}
	delete(tx.state.courses, id)
	tx.state.courseOrder = removeString(tx.state.courseOrder, id)
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionDelete, Before: cloneCourse(current)})
	return nil
}

// EnrollStudent links a student and a course on both sides. The operation is
// idempotent and a no-op when either id is unknown.
func (tx *transaction) EnrollStudent(studentID, courseID string) error {
	st, okStudent := tx.state.students[studentID]
	course, okCourse := tx.state.courses[courseID]
	if !okStudent || !okCourse {
		return nil
	}
	if containsString(st.CourseIDs, courseID) && containsString(course.StudentIDs, studentID) {
		return nil
	}
	st.CourseIDs = appendMissing(st.CourseIDs, courseID)
	course.StudentIDs = appendMissing(course.StudentIDs, studentID)
	tx.state.students[studentID] = st
	tx.state.courses[courseID] = course
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionUpdate, After: cloneStudent(st)})
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionUpdate, After: cloneCourse(course)})
	return nil
}

// WithdrawStudent unlinks a student and a course on both sides. The operation
// is idempotent and a no-op when either id is unknown.
func (tx *transaction) WithdrawStudent(studentID, courseID string) error {
	st, okStudent := tx.state.students[studentID]
	course, okCourse := tx.state.courses[courseID]
	if !okStudent || !okCourse {
		return nil
	}
	if !containsString(st.CourseIDs, courseID) && !containsString(course.StudentIDs, studentID) {
		return nil
	}
	st.CourseIDs = removeString(st.CourseIDs, courseID)
	course.StudentIDs = removeString(course.StudentIDs, studentID)
	tx.state.students[studentID] = st
	tx.state.courses[courseID] = course
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionUpdate, After: cloneStudent(st)})
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionUpdate, After: cloneCourse(course)})
	return nil
}

// AssignInstructor sets or clears the instructor of a course, keeping the
// instructor-side assignment lists in sync. A nil instructorID clears the
// assignment. Unknown course or instructor ids make the call a no-op.
func (tx *transaction) AssignInstructor(courseID string, instructorID *string) error {
	course, ok := tx.state.courses[courseID]
	if !ok {
		return nil
	}
	var next *Instructor
	if instructorID != nil {
		in, ok := tx.state.instructors[*instructorID]
		if !ok {
			return nil
		}
		next = &in
	}
	if course.InstructorID != nil {
		if next != nil && *course.InstructorID == next.InstructorID {
			return nil
		}
		if prev, ok := tx.state.instructors[*course.InstructorID]; ok {
			prev.CourseIDs = removeString(prev.CourseIDs, courseID)
			tx.state.instructors[prev.InstructorID] = prev
		}
	} else if next == nil {
		return nil
	}
	if next != nil {
		id := next.InstructorID
		course.InstructorID = &id
		next.CourseIDs = appendMissing(next.CourseIDs, courseID)
		tx.state.instructors[next.InstructorID] = *next
	} else {
		course.InstructorID = nil
	}
	tx.state.courses[courseID] = course
	tx.recordChange(Change{Entity: domain.EntityCourse, Action: domain.ActionUpdate, After: cloneCourse(course)})
	return nil
}
