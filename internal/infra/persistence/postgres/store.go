// Package postgres provides a Postgres-backed persistent store that mirrors
// the in-memory semantics. State is snapshotted to JSONB buckets after each
// successful transaction, and a relational mirror of the roster schema is
// maintained alongside for external reporting queries.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"rostercore/internal/infra/persistence/memory"
	"rostercore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenPersistentStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/rostercore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory implementation
// for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to
// defaultDSN). It applies the roster DDL, ensures the snapshot table exists,
// and hydrates the in-memory store from any existing snapshot.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applyRosterDDL(ctx, db); err != nil {
		return nil, err
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	if err := mem.ImportState(snapshot); err != nil {
		return nil, err
	}
	return &Store{Store: mem, db: db}, nil
}

// RunInTransaction applies the provided function within a transaction, then
// snapshots to Postgres if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if err := s.persist(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// ImportState replaces the in-memory state and writes it through to Postgres.
func (s *Store) ImportState(snapshot domain.Snapshot) error {
	if err := s.Store.ImportState(snapshot); err != nil {
		return err
	}
	if err := s.persist(context.Background()); err != nil {
		return fmt.Errorf("persist imported state: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

var rosterDDL = []string{
	`CREATE TABLE IF NOT EXISTS instructors (
		instructor_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		email TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		student_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		email TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		course_id TEXT PRIMARY KEY,
		course_name TEXT NOT NULL,
		instructor_id TEXT REFERENCES instructors(instructor_id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		student_id TEXT NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
		course_id TEXT NOT NULL REFERENCES courses(course_id) ON DELETE CASCADE,
		PRIMARY KEY (student_id, course_id)
	)`,
}

func applyRosterDDL(ctx context.Context, db *sql.DB) error {
	for _, stmt := range rosterDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

var postgresBuckets = []string{
	"students",
	"instructors",
	"courses",
	"student_order",
	"instructor_order",
	"course_order",
}

func loadSnapshot(ctx context.Context, db *sql.DB) (domain.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot domain.Snapshot
	targets := map[string]any{
		"students":         &snapshot.Students,
		"instructors":      &snapshot.Instructors,
		"courses":          &snapshot.Courses,
		"student_order":    &snapshot.StudentOrder,
		"instructor_order": &snapshot.InstructorOrder,
		"course_order":     &snapshot.CourseOrder,
	}

	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if target, ok := targets[bucket]; ok {
			if err := json.Unmarshal(payload, target); err != nil {
				return domain.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range postgresBuckets {
		var data []byte
		switch bucket {
		case "students":
			data, err = json.Marshal(snapshot.Students)
		case "instructors":
			data, err = json.Marshal(snapshot.Instructors)
		case "courses":
			data, err = json.Marshal(snapshot.Courses)
		case "student_order":
			data, err = json.Marshal(snapshot.StudentOrder)
		case "instructor_order":
			data, err = json.Marshal(snapshot.InstructorOrder)
		case "course_order":
			data, err = json.Marshal(snapshot.CourseOrder)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := syncMirror(ctx, tx, snapshot); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// syncMirror rewrites the relational mirror tables from the snapshot. The
// registrations table goes first so the child rows never orphan.
func syncMirror(ctx context.Context, tx *sql.Tx, snapshot domain.Snapshot) error {
	for _, stmt := range []string{
		`DELETE FROM registrations`,
		`DELETE FROM courses`,
		`DELETE FROM students`,
		`DELETE FROM instructors`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear mirror: %w", err)
		}
	}
	for id, record := range snapshot.Instructors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO instructors(instructor_id,name,age,email) VALUES($1,$2,$3,$4)`,
			id, record.Name, record.Age, record.Email); err != nil {
			return fmt.Errorf("mirror instructor %s: %w", id, err)
		}
	}
	for id, record := range snapshot.Students {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO students(student_id,name,age,email) VALUES($1,$2,$3,$4)`,
			id, record.Name, record.Age, record.Email); err != nil {
			return fmt.Errorf("mirror student %s: %w", id, err)
		}
	}
	for id, record := range snapshot.Courses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO courses(course_id,course_name,instructor_id) VALUES($1,$2,$3)`,
			id, record.Name, record.InstructorID); err != nil {
			return fmt.Errorf("mirror course %s: %w", id, err)
		}
		for _, studentID := range record.Students {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO registrations(student_id,course_id) VALUES($1,$2)`,
				studentID, id); err != nil {
				return fmt.Errorf("mirror registration %s/%s: %w", studentID, id, err)
			}
		}
	}
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
