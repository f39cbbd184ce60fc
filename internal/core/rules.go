package core

// NewDefaultRulesEngine builds a rules engine with the built-in roster
// integrity policy set. Every rule blocks: the store must never commit a
// state where the two sides of a relationship disagree.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewEnrollmentSymmetryRule())
	engine.Register(NewAssignmentSymmetryRule())
	engine.Register(NewDuplicateMembershipRule())
	return engine
}
