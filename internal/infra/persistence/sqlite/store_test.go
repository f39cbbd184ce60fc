package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"rostercore/pkg/domain"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		instructor, err := tx.CreateInstructor(domain.Instructor{
			Person: domain.Person{Name: "Dana Hale", Age: 51, Email: "dana@example.edu"},
		})
		if err != nil {
			return err
		}
		student, err := tx.CreateStudent(domain.Student{
			Person: domain.Person{Name: "Ann Ruiz", Age: 20, Email: "ann@example.edu"},
		})
		if err != nil {
			return err
		}
		_, err = tx.CreateCourse(domain.Course{
			Name:         "Algorithms",
			InstructorID: &instructor.InstructorID,
			StudentIDs:   []string{student.StudentID},
		})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")

	store := newTestStore(t, path)
	seed(t, store)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := newTestStore(t, path)
	students := reopened.ListStudents()
	if len(students) != 1 || students[0].StudentID != "STU100" {
		t.Fatalf("unexpected students after reopen: %+v", students)
	}
	course, ok := reopened.GetCourse("COURSE100")
	if !ok {
		t.Fatalf("expected course after reopen")
	}
	if course.InstructorID == nil || *course.InstructorID != "PROF100" {
		t.Fatalf("assignment lost across reopen: %v", course.InstructorID)
	}
	if !domain.ContainsID(course.StudentIDs, "STU100") {
		t.Fatalf("roster lost across reopen: %v", course.StudentIDs)
	}
}

func TestStorePreservesInsertionOrderAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	store := newTestStore(t, path)

	names := []string{"Cara", "Ann", "Bo"}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for _, name := range names {
			if _, err := tx.CreateStudent(domain.Student{
				Person: domain.Person{Name: name, Age: 21, Email: "x@example.edu"},
			}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := newTestStore(t, path)
	listed := reopened.ListStudents()
	if len(listed) != len(names) {
		t.Fatalf("expected %d students, got %d", len(names), len(listed))
	}
	for i, st := range listed {
		if st.Name != names[i] {
			t.Fatalf("position %d: expected %q, got %q", i, names[i], st.Name)
		}
	}
}

func TestStoreFailedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	store := newTestStore(t, path)
	seed(t, store)

	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateStudent("STU100", func(st *domain.Student) error {
			st.Email = "broken"
			return nil
		})
		return err
	}); err == nil {
		t.Fatalf("expected validation failure")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := newTestStore(t, path)
	st, _ := reopened.GetStudent("STU100")
	if st.Email != "ann@example.edu" {
		t.Fatalf("rejected write leaked to disk: %q", st.Email)
	}
}

func TestStoreImportStateWritesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	store := newTestStore(t, path)

	snapshot := domain.Snapshot{
		Students: map[string]domain.StudentRecord{
			"STU500": {Name: "Maya Chen", Age: 27, Email: "maya@example.edu"},
		},
	}
	if err := store.ImportState(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := newTestStore(t, path)
	if _, ok := reopened.GetStudent("STU500"); !ok {
		t.Fatalf("imported state not persisted")
	}
}

func TestStoreImportStateReportsPersistFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	store := newTestStore(t, path)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	err := store.ImportState(domain.Snapshot{
		Students: map[string]domain.StudentRecord{
			"STU500": {Name: "Maya Chen", Age: 27, Email: "maya@example.edu"},
		},
	})
	if err == nil {
		t.Fatalf("expected import to surface the failed write-through")
	}
}
