package memory_test

import (
	"context"
	"errors"
	"testing"

	"rostercore/internal/infra/persistence/memory"
	"rostercore/pkg/domain"
)

func strPtr(v string) *string {
	return &v
}

func must[T any](t *testing.T) func(T, error) T {
	return func(value T, err error) T {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return value
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func seedRoster(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_ = must[domain.Instructor](t)(tx.CreateInstructor(domain.Instructor{
			InstructorID: "PROF100",
			Person:       domain.Person{Name: "Dana Hale", Age: 51, Email: "dana@example.edu"},
		}))
		_ = must[domain.Student](t)(tx.CreateStudent(domain.Student{
			StudentID: "STU100",
			Person:    domain.Person{Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu"},
		}))
		_ = must[domain.Student](t)(tx.CreateStudent(domain.Student{
			StudentID: "STU101",
			Person:    domain.Person{Name: "Bo Lindqvist", Age: 23, Email: "bo@example.edu"},
		}))
		_ = must[domain.Course](t)(tx.CreateCourse(domain.Course{
			CourseID:     "COURSE100",
			Name:         "Algorithms",
			InstructorID: strPtr("PROF100"),
			StudentIDs:   []string{"STU100"},
		}))
		return nil
	}); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func TestStoreCreateSyncsBothSides(t *testing.T) {
	store := memory.NewStore(nil)
	seedRoster(t, store)

	course, ok := store.GetCourse("COURSE100")
	if !ok {
		t.Fatalf("expected course COURSE100")
	}
	if course.InstructorID == nil || *course.InstructorID != "PROF100" {
		t.Fatalf("unexpected course instructor: %v", course.InstructorID)
	}
	if len(course.StudentIDs) != 1 || course.StudentIDs[0] != "STU100" {
		t.Fatalf("unexpected course roster: %v", course.StudentIDs)
	}

	instructor, ok := store.GetInstructor("PROF100")
	if !ok {
		t.Fatalf("expected instructor PROF100")
	}
	if len(instructor.CourseIDs) != 1 || instructor.CourseIDs[0] != "COURSE100" {
		t.Fatalf("expected assignment list to mirror the course, got %v", instructor.CourseIDs)
	}

	student, _ := store.GetStudent("STU100")
	if len(student.CourseIDs) != 1 || student.CourseIDs[0] != "COURSE100" {
		t.Fatalf("expected registration list to mirror the course, got %v", student.CourseIDs)
	}
}

func TestStoreGeneratedIDs(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		st := must[domain.Student](t)(tx.CreateStudent(domain.Student{
			Person: domain.Person{Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu"},
		}))
		if st.StudentID != "STU100" {
			t.Fatalf("unexpected first generated id %q", st.StudentID)
		}
		in := must[domain.Instructor](t)(tx.CreateInstructor(domain.Instructor{
			Person: domain.Person{Name: "Dana Hale", Age: 51, Email: "dana@example.edu"},
		}))
		if in.InstructorID != "PROF100" {
			t.Fatalf("unexpected first generated id %q", in.InstructorID)
		}
		c := must[domain.Course](t)(tx.CreateCourse(domain.Course{Name: "Algorithms"}))
		if c.CourseID != "COURSE100" {
			t.Fatalf("unexpected first generated id %q", c.CourseID)
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction error: %v", err)
	}
}

func TestStoreGeneratedIDSkipsTakenSlots(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_ = must[domain.Student](t)(tx.CreateStudent(domain.Student{
			StudentID: "STU101",
			Person:    domain.Person{Name: "Bo Lindqvist", Age: 23, Email: "bo@example.edu"},
		}))
		// Probe starts at STU101 (one student present) which is taken.
		st := must[domain.Student](t)(tx.CreateStudent(domain.Student{
			Person: domain.Person{Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu"},
		}))
		if st.StudentID != "STU102" {
			t.Fatalf("expected probe past taken slot, got %q", st.StudentID)
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction error: %v", err)
	}
}

func TestStoreCreateRejectsDuplicateID(t *testing.T) {
	store := memory.NewStore(nil)
	seedRoster(t, store)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateStudent(domain.Student{
			StudentID: "STU100",
			Person:    domain.Person{Name: "Impostor", Age: 30, Email: "dup@example.edu"},
		})
		return err
	})
	if err == nil {
		t.Fatalf("expected duplicate id to be rejected")
	}
	st, _ := store.GetStudent("STU100")
	if st.Name != "Ann Ruiz" {
		t.Fatalf("duplicate create must not overwrite, got %q", st.Name)
	}
}

func TestStoreCreateDropsUnknownReferences(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		st := must[domain.Student](t)(tx.CreateStudent(domain.Student{
			Person:    domain.Person{Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu"},
			CourseIDs: []string{"COURSE404"},
		}))
		if len(st.CourseIDs) != 0 {
			t.Fatalf("expected unknown course reference to be dropped, got %v", st.CourseIDs)
		}
		c := must[domain.Course](t)(tx.CreateCourse(domain.Course{
			Name:         "Databases",
			InstructorID: strPtr("PROF404"),
			StudentIDs:   []string{"STU404", st.StudentID},
		}))
		if c.InstructorID != nil {
			t.Fatalf("expected unknown instructor reference to be dropped")
		}
		if len(c.StudentIDs) != 1 || c.StudentIDs[0] != st.StudentID {
			t.Fatalf("unexpected roster after filtering: %v", c.StudentIDs)
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction error: %v", err)
	}
}

func TestStoreUpdatePinsIdentityAndLinks(t *testing.T) {
	store := memory.NewStore(nil)
	seedRoster(t, store)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated := must[domain.Student](t)(tx.UpdateStudent("STU100", func(st *domain.Student) error {
			st.StudentID = "STU999"
			st.Name = "Ann Ruiz-Lem"
			st.CourseIDs = nil
			return nil
		}))
		if updated.StudentID != "STU100" {
			t.Fatalf("id must be immutable, got %q", updated.StudentID)
		}
		if updated.Name != "Ann Ruiz-Lem" {
			t.Fatalf("field edit lost: %q", updated.Name)
		}
		if len(updated.CourseIDs) != 1 || updated.CourseIDs[0] != "COURSE100" {
			t.Fatalf("registrations must be pinned across updates, got %v", updated.CourseIDs)
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction error: %v", err)
	}
}

func TestStoreUpdateValidates(t *testing.T) {
	store := memory.NewStore(nil)
	seedRoster(t, store)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateStudent("STU100", func(st *domain.Student) error {
			st.Email = "not-an-email"
			return nil
		})
		return err
	})
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	st, _ := store.GetStudent("STU100")
	if st.Email != "ann@example.edu" {
		t.Fatalf("failed transaction must not commit, got %q", st.Email)
	}
}

func TestStoreUpdateMissingReturnsNotFound(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateCourse("COURSE404", func(*domain.Course) error { return nil })
		return err
	})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestStoreTransactionRollbackOnError(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	boom := errors.New("boom")

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_ = must[domain.Student](t)(tx.CreateStudent(domain.Student{
			Person: domain.Person{Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu"},
		}))
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if got := store.ListStudents(); len(got) != 0 {
		t.Fatalf("aborted transaction must leave state untouched, got %d students", len(got))
	}
}

func TestStoreListPreservesInsertionOrder(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	names := []string{"Cara", "Ann", "Bo"}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, name := range names {
			_ = must[domain.Student](t)(tx.CreateStudent(domain.Student{
				Person: domain.Person{Name: name, Age: 20, Email: "x@example.edu"},
			}))
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction error: %v", err)
	}

	listed := store.ListStudents()
	if len(listed) != len(names) {
		t.Fatalf("expected %d students, got %d", len(names), len(listed))
	}
	for i, st := range listed {
		if st.Name != names[i] {
			t.Fatalf("position %d: expected %q, got %q", i, names[i], st.Name)
		}
	}
}

func TestStoreViewIsolation(t *testing.T) {
	store := memory.NewStore(nil)
	seedRoster(t, store)

	mustNoErr(t, store.View(context.Background(), func(view domain.TransactionView) error {
		st, ok := view.FindStudent("STU100")
		if !ok {
			t.Fatalf("expected student in view")
		}
		st.CourseIDs[0] = "COURSE666"
		return nil
	}))

	st, _ := store.GetStudent("STU100")
	if st.CourseIDs[0] != "COURSE100" {
		t.Fatalf("view mutation leaked into store: %v", st.CourseIDs)
	}
}

func TestStoreExportImportRoundTrip(t *testing.T) {
	store := memory.NewStore(nil)
	seedRoster(t, store)

	snap := store.ExportState()
	restored := memory.NewStore(nil)
	if err := restored.ImportState(snap); err != nil {
		t.Fatalf("import: %v", err)
	}

	wantStudents := store.ListStudents()
	gotStudents := restored.ListStudents()
	if len(gotStudents) != len(wantStudents) {
		t.Fatalf("expected %d students after import, got %d", len(wantStudents), len(gotStudents))
	}
	for i := range wantStudents {
		if gotStudents[i].StudentID != wantStudents[i].StudentID {
			t.Fatalf("order lost at %d: %q vs %q", i, gotStudents[i].StudentID, wantStudents[i].StudentID)
		}
	}
	course, ok := restored.GetCourse("COURSE100")
	if !ok {
		t.Fatalf("expected course after import")
	}
	if course.InstructorID == nil || *course.InstructorID != "PROF100" {
		t.Fatalf("assignment lost across round trip")
	}
	instructor, _ := restored.GetInstructor("PROF100")
	if !domain.ContainsID(instructor.CourseIDs, "COURSE100") {
		t.Fatalf("instructor side lost across round trip")
	}
}

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block-all" }

func (blockAllRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	if len(changes) == 0 {
		return domain.Result{}, nil
	}
	return domain.Result{Violations: []domain.Violation{{
		Rule:     "block-all",
		Severity: domain.SeverityBlock,
		Message:  "mutations are frozen",
	}}}, nil
}

func TestStoreBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := memory.NewStore(engine)

	result, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateStudent(domain.Student{
			Person: domain.Person{Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu"},
		})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if !result.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	if got := store.ListStudents(); len(got) != 0 {
		t.Fatalf("blocked transaction must not commit, got %d students", len(got))
	}
}
