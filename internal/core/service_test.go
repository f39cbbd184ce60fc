package core

import (
	"context"
	"errors"
	"testing"

	"rostercore/pkg/domain"
)

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func seedService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	svc := NewInMemoryService(nil)

	if _, _, err := svc.AddInstructor(ctx, Instructor{
		InstructorID: "PROF100",
		Person:       Person{Name: "Dana Hale", Age: 51, Email: "dana@example.edu"},
	}); err != nil {
		t.Fatalf("add instructor: %v", err)
	}
	if _, _, err := svc.AddStudent(ctx, Student{
		StudentID: "STU100",
		Person:    Person{Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu"},
	}); err != nil {
		t.Fatalf("add student: %v", err)
	}
	if _, _, err := svc.AddCourse(ctx, Course{
		CourseID:     "COURSE100",
		Name:         "Algorithms",
		InstructorID: strPtr("PROF100"),
		StudentIDs:   []string{"STU100"},
	}); err != nil {
		t.Fatalf("add course: %v", err)
	}
	return svc
}

func TestServiceRosterLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := seedService(t)

	course, ok := svc.GetCourse(ctx, "COURSE100")
	if !ok {
		t.Fatalf("expected course")
	}
	if course.InstructorID == nil || *course.InstructorID != "PROF100" {
		t.Fatalf("unexpected instructor: %v", course.InstructorID)
	}
	student, _ := svc.GetStudent(ctx, "STU100")
	if !domain.ContainsID(student.CourseIDs, "COURSE100") {
		t.Fatalf("registration missing: %v", student.CourseIDs)
	}
	instructor, _ := svc.GetInstructor(ctx, "PROF100")
	if !domain.ContainsID(instructor.CourseIDs, "COURSE100") {
		t.Fatalf("assignment missing: %v", instructor.CourseIDs)
	}

	if _, err := svc.Withdraw(ctx, "STU100", "COURSE100"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	course, _ = svc.GetCourse(ctx, "COURSE100")
	if len(course.StudentIDs) != 0 {
		t.Fatalf("expected empty roster after withdraw, got %v", course.StudentIDs)
	}

	if _, err := svc.UnassignInstructor(ctx, "COURSE100"); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	instructor, _ = svc.GetInstructor(ctx, "PROF100")
	if len(instructor.CourseIDs) != 0 {
		t.Fatalf("expected no assignments after unassign, got %v", instructor.CourseIDs)
	}

	if _, err := svc.DeleteCourse(ctx, "COURSE100"); err != nil {
		t.Fatalf("delete course: %v", err)
	}
	if _, ok := svc.GetCourse(ctx, "COURSE100"); ok {
		t.Fatalf("course should be gone")
	}
}

func TestServiceEditAppliesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	svc := seedService(t)

	updated, _, err := svc.EditStudent(ctx, "STU100", PersonUpdate{Age: intPtr(21)})
	if err != nil {
		t.Fatalf("edit student: %v", err)
	}
	if updated.Age != 21 {
		t.Fatalf("expected age updated, got %d", updated.Age)
	}
	if updated.Name != "Ann Ruiz" || updated.Email != "ann@example.edu" {
		t.Fatalf("untouched fields changed: %+v", updated.Person)
	}

	renamed, _, err := svc.EditCourse(ctx, "COURSE100", CourseUpdate{Name: strPtr("Advanced Algorithms")})
	if err != nil {
		t.Fatalf("edit course: %v", err)
	}
	if renamed.Name != "Advanced Algorithms" {
		t.Fatalf("expected rename, got %q", renamed.Name)
	}
	if renamed.InstructorID == nil || *renamed.InstructorID != "PROF100" {
		t.Fatalf("assignment must survive rename: %v", renamed.InstructorID)
	}
}

func TestServiceEditRejectsInvalidFields(t *testing.T) {
	ctx := context.Background()
	svc := seedService(t)

	_, _, err := svc.EditStudent(ctx, "STU100", PersonUpdate{Email: strPtr("nope")})
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	student, _ := svc.GetStudent(ctx, "STU100")
	if student.Email != "ann@example.edu" {
		t.Fatalf("rejected edit must not apply, got %q", student.Email)
	}
}

func TestServiceEditMissingEntity(t *testing.T) {
	ctx := context.Background()
	svc := seedService(t)

	_, _, err := svc.EditInstructor(ctx, "PROF404", PersonUpdate{Age: intPtr(40)})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestServiceDeleteMissingIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := seedService(t)

	if _, err := svc.DeleteStudent(ctx, "STU404"); err != nil {
		t.Fatalf("delete missing student: %v", err)
	}
	if _, err := svc.DeleteInstructor(ctx, "PROF404"); err != nil {
		t.Fatalf("delete missing instructor: %v", err)
	}
	if _, err := svc.DeleteCourse(ctx, "COURSE404"); err != nil {
		t.Fatalf("delete missing course: %v", err)
	}
	if got := len(svc.ListStudents(ctx)); got != 1 {
		t.Fatalf("state must be unchanged, got %d students", got)
	}
}

func TestServiceDeleteInstructorLeavesCourseUnassigned(t *testing.T) {
	ctx := context.Background()
	svc := seedService(t)

	if _, err := svc.DeleteInstructor(ctx, "PROF100"); err != nil {
		t.Fatalf("delete instructor: %v", err)
	}
	course, _ := svc.GetCourse(ctx, "COURSE100")
	if course.InstructorID != nil {
		t.Fatalf("expected unassigned course, got %v", *course.InstructorID)
	}
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := seedService(t)

	snapshot := svc.ExportState(ctx)
	restored := NewInMemoryService(nil)
	if err := restored.ImportState(ctx, snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}

	students := restored.ListStudents(ctx)
	if len(students) != 1 || students[0].StudentID != "STU100" {
		t.Fatalf("unexpected students after import: %+v", students)
	}
	course, _ := restored.GetCourse(ctx, "COURSE100")
	if course.InstructorID == nil || *course.InstructorID != "PROF100" {
		t.Fatalf("assignment lost across import: %v", course.InstructorID)
	}
}

func TestServiceImportDropsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(nil)

	if err := svc.ImportState(ctx, Snapshot{
		Students: map[string]domain.StudentRecord{
			"STU100": {Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu", Courses: []string{"COURSE404"}},
		},
		Courses: map[string]domain.CourseRecord{
			"COURSE100": {Name: "Databases", InstructorID: strPtr("PROF404"), Students: []string{"STU404"}},
		},
	}); err != nil {
		t.Fatalf("import: %v", err)
	}

	student, ok := svc.GetStudent(ctx, "STU100")
	if !ok {
		t.Fatalf("expected student imported")
	}
	if len(student.CourseIDs) != 0 {
		t.Fatalf("dangling course reference survived: %v", student.CourseIDs)
	}
	course, _ := svc.GetCourse(ctx, "COURSE100")
	if course.InstructorID != nil || len(course.StudentIDs) != 0 {
		t.Fatalf("dangling references survived: %+v", course)
	}
}

func TestServiceGeneratedIDsFollowPrefixes(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(nil)

	student, _, err := svc.AddStudent(ctx, Student{Person: Person{Name: "Ann", Age: 20, Email: "ann@example.edu"}})
	if err != nil {
		t.Fatalf("add student: %v", err)
	}
	if student.StudentID != "STU100" {
		t.Fatalf("unexpected generated id %q", student.StudentID)
	}
	course, _, err := svc.AddCourse(ctx, Course{Name: "Databases"})
	if err != nil {
		t.Fatalf("add course: %v", err)
	}
	if course.CourseID != "COURSE100" {
		t.Fatalf("unexpected generated id %q", course.CourseID)
	}
}

func TestServiceFindByNameReturnsFirstInsertion(t *testing.T) {
	ctx := context.Background()
	svc := seedService(t)

	if _, _, err := svc.AddStudent(ctx, Student{
		StudentID: "STU101",
		Person:    Person{Name: "Ann Ruiz", Age: 23, Email: "ann2@example.edu"},
	}); err != nil {
		t.Fatalf("add student: %v", err)
	}

	student, ok := svc.FindStudentByName(ctx, "Ann Ruiz")
	if !ok || student.StudentID != "STU100" {
		t.Fatalf("expected first Ann Ruiz (STU100), got %+v ok=%v", student, ok)
	}
	instructor, ok := svc.FindInstructorByName(ctx, "Dana Hale")
	if !ok || instructor.InstructorID != "PROF100" {
		t.Fatalf("expected PROF100, got %+v ok=%v", instructor, ok)
	}
	course, ok := svc.FindCourseByName(ctx, "Algorithms")
	if !ok || course.CourseID != "COURSE100" {
		t.Fatalf("expected COURSE100, got %+v ok=%v", course, ok)
	}
	if _, ok := svc.FindStudentByName(ctx, "Nobody"); ok {
		t.Fatal("expected no match for unknown name")
	}
}
