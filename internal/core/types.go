// Package core exposes the transactional roster service: validated CRUD for
// students, instructors and courses, bidirectional relationship maintenance,
// search, and snapshot import/export, instrumented with pluggable audit,
// metrics and tracing hooks.
package core

import (
	"rostercore/pkg/domain"
)

type (
	// Student aliases domain.Student.
	Student = domain.Student
	// Instructor aliases domain.Instructor.
	Instructor = domain.Instructor
	// Course aliases domain.Course.
	Course = domain.Course
	// Person aliases domain.Person.
	Person = domain.Person
	// Result aliases domain.Result.
	Result = domain.Result
	// Change aliases domain.Change.
	Change = domain.Change
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Rule aliases domain.Rule.
	Rule = domain.Rule
	// Violation aliases domain.Violation.
	Violation = domain.Violation
	// Snapshot aliases domain.Snapshot.
	Snapshot = domain.Snapshot
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)

// NewRulesEngine mirrors domain.NewRulesEngine for callers inside core.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
