package domain

import "testing"

func TestResultMerge(t *testing.T) {
	var combined Result
	combined.Merge(Result{})
	if len(combined.Violations) != 0 {
		t.Fatal("merging an empty result should not add violations")
	}
	combined.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	combined.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}})
	if len(combined.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(combined.Violations))
	}
}

func TestResultHasBlocking(t *testing.T) {
	warnOnly := Result{Violations: []Violation{{Severity: SeverityWarn}, {Severity: SeverityLog}}}
	if warnOnly.HasBlocking() {
		t.Fatal("warn/log severities must not block")
	}
	blocked := Result{Violations: []Violation{{Severity: SeverityBlock}}}
	if !blocked.HasBlocking() {
		t.Fatal("block severity must block")
	}
	if (RuleViolationError{Result: blocked}).Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}
