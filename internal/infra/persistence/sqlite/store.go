// Package sqlite persists the in-memory roster state to a single SQLite
// table as JSON buckets. It snapshots the full state after every successful
// transaction, which is proportionate for roster-sized data sets.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"rostercore/internal/infra/persistence/memory"
	"rostercore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

type (
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// Result aliases domain.Result.
	Result = domain.Result
	// Snapshot aliases the id-keyed wire form of the store state.
	Snapshot = domain.Snapshot
)

// Store layers SQLite durability over the in-memory store.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *RulesEngine) (*Store, error) {
	if path == "" {
		path = "rostercore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"students", "instructors", "courses", "student_order", "instructor_order", "course_order"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	type raw struct {
		bucket  string
		payload []byte
	}
	var raws []raw
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.bucket, &r.payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(raws) == 0 {
		return nil
	}
	snapshot := Snapshot{}
	for _, r := range raws {
		switch r.bucket {
		case "students":
			if err := json.Unmarshal(r.payload, &snapshot.Students); err != nil {
				return fmt.Errorf("decode students: %w", err)
			}
		case "instructors":
			if err := json.Unmarshal(r.payload, &snapshot.Instructors); err != nil {
				return fmt.Errorf("decode instructors: %w", err)
			}
		case "courses":
			if err := json.Unmarshal(r.payload, &snapshot.Courses); err != nil {
				return fmt.Errorf("decode courses: %w", err)
			}
		case "student_order":
			if err := json.Unmarshal(r.payload, &snapshot.StudentOrder); err != nil {
				return fmt.Errorf("decode student order: %w", err)
			}
		case "instructor_order":
			if err := json.Unmarshal(r.payload, &snapshot.InstructorOrder); err != nil {
				return fmt.Errorf("decode instructor order: %w", err)
			}
		case "course_order":
			if err := json.Unmarshal(r.payload, &snapshot.CourseOrder); err != nil {
				return fmt.Errorf("decode course order: %w", err)
			}
		}
	}
	return s.ImportState(snapshot)
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
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
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then
// snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// ImportState replaces the in-memory state and writes it through to disk.
func (s *Store) ImportState(snapshot Snapshot) error {
	if err := s.Store.ImportState(snapshot); err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		return fmt.Errorf("persist imported state: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
