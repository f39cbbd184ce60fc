package domain

import "sort"

// StudentRecord is the flattened wire form of a Student. The student id is
// the enclosing map key, and course references are ids, never embedded
// objects.
type StudentRecord struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Email   string   `json:"email"`
	Courses []string `json:"courses"`
}

// InstructorRecord is the flattened wire form of an Instructor.
type InstructorRecord struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Email   string   `json:"email"`
	Courses []string `json:"courses"`
}

// CourseRecord is the flattened wire form of a Course.
type CourseRecord struct {
	Name         string   `json:"name"`
	InstructorID *string  `json:"instructor_id"`
	Students     []string `json:"students"`
}

// Snapshot captures a point-in-time flattened clone of the store state. The
// three collections are keyed by entity id; the order arrays preserve store
// insertion order across the round trip, since JSON objects do not.
type Snapshot struct {
	Students        map[string]StudentRecord    `json:"students"`
	Instructors     map[string]InstructorRecord `json:"instructors"`
	Courses         map[string]CourseRecord     `json:"courses"`
	StudentOrder    []string                    `json:"student_order,omitempty"`
	InstructorOrder []string                    `json:"instructor_order,omitempty"`
	CourseOrder     []string                    `json:"course_order,omitempty"`
}

// Flatten converts live entities into the acyclic id-keyed document form.
// Slices are expected in store order.
func Flatten(students []Student, instructors []Instructor, courses []Course) Snapshot {
	snap := Snapshot{
		Students:    make(map[string]StudentRecord, len(students)),
		Instructors: make(map[string]InstructorRecord, len(instructors)),
		Courses:     make(map[string]CourseRecord, len(courses)),
	}
	for _, s := range students {
		snap.Students[s.StudentID] = StudentRecord{
			Name:    s.Name,
			Age:     s.Age,
			Email:   s.Email,
			Courses: append([]string(nil), s.CourseIDs...),
		}
		snap.StudentOrder = append(snap.StudentOrder, s.StudentID)
	}
	for _, i := range instructors {
		snap.Instructors[i.InstructorID] = InstructorRecord{
			Name:    i.Name,
			Age:     i.Age,
			Email:   i.Email,
			Courses: append([]string(nil), i.CourseIDs...),
		}
		snap.InstructorOrder = append(snap.InstructorOrder, i.InstructorID)
	}
	for _, c := range courses {
		var instructorID *string
		if c.InstructorID != nil {
			id := *c.InstructorID
			instructorID = &id
		}
		snap.Courses[c.CourseID] = CourseRecord{
			Name:         c.Name,
			InstructorID: instructorID,
			Students:     append([]string(nil), c.StudentIDs...),
		}
		snap.CourseOrder = append(snap.CourseOrder, c.CourseID)
	}
	return snap
}

// Unflatten reconstructs entities from a flattened document. Rebuilding runs
// in dependency order: instructors first, then courses resolving their
// instructor reference, then students resolving their course references.
// References to ids absent from their target collection are dropped silently
// so a partially corrupt document still loads what it can. Both sides of each
// surviving relationship are restored, so enrollment and assignment symmetry
// hold on the result. The course record's instructor_id is authoritative for
// assignments; instructor course lists are derived from it.
func Unflatten(snap Snapshot) (students []Student, instructors []Instructor, courses []Course) {
	instructorIdx := make(map[string]int, len(snap.Instructors))
	for _, id := range orderedKeysInstructors(snap) {
		rec := snap.Instructors[id]
		instructors = append(instructors, Instructor{
			InstructorID: id,
			Person:       Person{Name: rec.Name, Age: rec.Age, Email: rec.Email},
		})
		instructorIdx[id] = len(instructors) - 1
	}

	courseIdx := make(map[string]int, len(snap.Courses))
	for _, id := range orderedKeysCourses(snap) {
		rec := snap.Courses[id]
		course := Course{CourseID: id, Name: rec.Name}
		if rec.InstructorID != nil {
			if at, ok := instructorIdx[*rec.InstructorID]; ok {
				assigned := *rec.InstructorID
				course.InstructorID = &assigned
				instructors[at].CourseIDs = appendMissing(instructors[at].CourseIDs, id)
			}
		}
		courses = append(courses, course)
		courseIdx[id] = len(courses) - 1
	}

	studentIdx := make(map[string]int, len(snap.Students))
	for _, id := range orderedKeysStudents(snap) {
		rec := snap.Students[id]
		student := Student{
			StudentID: id,
			Person:    Person{Name: rec.Name, Age: rec.Age, Email: rec.Email},
		}
		for _, courseID := range rec.Courses {
			if at, ok := courseIdx[courseID]; ok {
				student.CourseIDs = appendMissing(student.CourseIDs, courseID)
				courses[at].StudentIDs = appendMissing(courses[at].StudentIDs, id)
			}
		}
		students = append(students, student)
		studentIdx[id] = len(students) - 1
	}

	// A course roster may list a student whose own record lost the back
	// reference; repair the missing side instead of dropping the link.
	for at, course := range courses {
		kept := course.StudentIDs[:0]
		for _, studentID := range course.StudentIDs {
			sAt, ok := studentIdx[studentID]
			if !ok {
				continue
			}
			kept = append(kept, studentID)
			students[sAt].CourseIDs = appendMissing(students[sAt].CourseIDs, course.CourseID)
		}
		courses[at].StudentIDs = kept
	}
	return students, instructors, courses
}

// OrderedStudentIDs returns student ids in recorded insertion order.
func (snap Snapshot) OrderedStudentIDs() []string { return orderedKeysStudents(snap) }

// OrderedInstructorIDs returns instructor ids in recorded insertion order.
func (snap Snapshot) OrderedInstructorIDs() []string { return orderedKeysInstructors(snap) }

// OrderedCourseIDs returns course ids in recorded insertion order.
func (snap Snapshot) OrderedCourseIDs() []string { return orderedKeysCourses(snap) }

func orderedKeysStudents(snap Snapshot) []string {
	keys := make([]string, 0, len(snap.Students))
	for id := range snap.Students {
		keys = append(keys, id)
	}
	return orderKeys(keys, snap.StudentOrder)
}

func orderedKeysInstructors(snap Snapshot) []string {
	keys := make([]string, 0, len(snap.Instructors))
	for id := range snap.Instructors {
		keys = append(keys, id)
	}
	return orderKeys(keys, snap.InstructorOrder)
}

func orderedKeysCourses(snap Snapshot) []string {
	keys := make([]string, 0, len(snap.Courses))
	for id := range snap.Courses {
		keys = append(keys, id)
	}
	return orderKeys(keys, snap.CourseOrder)
}

// orderKeys returns keys arranged by the recorded order where available.
// Keys missing from the order array (documents written by other producers)
// follow in sorted order; order entries without a backing record are skipped.
func orderKeys(keys, order []string) []string {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	out := make([]string, 0, len(keys))
	taken := make(map[string]bool, len(keys))
	for _, k := range order {
		if present[k] && !taken[k] {
			out = append(out, k)
			taken[k] = true
		}
	}
	rest := make([]string, 0, len(keys)-len(out))
	for _, k := range keys {
		if !taken[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func appendMissing(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// ContainsID reports whether ids holds id.
func ContainsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
