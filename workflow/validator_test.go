package workflow

import "testing"

func hasFatal(issues []ValidationIssue) bool {
	for _, i := range issues {
		if i.Fatal {
			return true
		}
	}
	return false
}

func TestValidate_Clean(t *testing.T) {
	def := &Definition{
		StartAt: "A",
		States: map[string]*StateDef{
			"A": {Type: "Task", Agent: "x", Next: "B"},
			"B": {Type: "Succeed"},
		},
	}
	if issues := Validate(def); hasFatal(issues) {
		t.Fatalf("expected no fatal issues, got %v", issues)
	}
}

func TestValidate_MissingStartAt(t *testing.T) {
	def := &Definition{States: map[string]*StateDef{"A": {Type: "Succeed"}}}
	issues := Validate(def)
	if !hasFatal(issues) {
		t.Fatalf("expected a fatal issue for missing StartAt")
	}
}

func TestValidate_DanglingNext(t *testing.T) {
	def := &Definition{
		StartAt: "A",
		States:  map[string]*StateDef{"A": {Type: "Task", Agent: "x", Next: "Nowhere"}},
	}
	issues := Validate(def)
	if !hasFatal(issues) {
		t.Fatalf("expected a fatal issue for dangling Next")
	}
}

func TestValidate_TaskRequiresAgent(t *testing.T) {
	def := &Definition{
		StartAt: "A",
		States:  map[string]*StateDef{"A": {Type: "Task", End: true}},
	}
	issues := Validate(def)
	if !hasFatal(issues) {
		t.Fatalf("expected a fatal issue for Task missing Agent")
	}
}

func TestValidate_ChoiceRequiresChoices(t *testing.T) {
	def := &Definition{
		StartAt: "A",
		States:  map[string]*StateDef{"A": {Type: "Choice"}},
	}
	issues := Validate(def)
	if !hasFatal(issues) {
		t.Fatalf("expected a fatal issue for empty Choices")
	}
}

func TestValidate_DebateRequiresTwoParticipants(t *testing.T) {
	def := &Definition{
		StartAt: "A",
		States:  map[string]*StateDef{"A": {Type: "Debate", End: true, Participants: []string{"only-one"}}},
	}
	issues := Validate(def)
	if !hasFatal(issues) {
		t.Fatalf("expected a fatal issue for fewer than 2 participants")
	}
}

func TestValidate_UnreachableStateWarns(t *testing.T) {
	def := &Definition{
		StartAt: "A",
		States: map[string]*StateDef{
			"A":      {Type: "Succeed"},
			"Orphan": {Type: "Succeed"},
		},
	}
	issues := Validate(def)
	if hasFatal(issues) {
		t.Fatalf("unreachable state should warn, not fail: %v", issues)
	}
	found := false
	for _, i := range issues {
		if i.State == "Orphan" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning naming the orphan state")
	}
}

func TestValidate_RecursesIntoMapIteratorAndParallelBranches(t *testing.T) {
	def := &Definition{
		StartAt: "M",
		States: map[string]*StateDef{
			"M": {
				Type: "Map", ItemsPath: "$.items", End: true,
				Iterator: &Definition{
					StartAt: "Bad",
					States:  map[string]*StateDef{"Bad": {Type: "Task", Next: "Ghost"}},
				},
			},
		},
	}
	issues := Validate(def)
	if !hasFatal(issues) {
		t.Fatalf("expected Iterator's own problems to surface")
	}

	par := &Definition{
		StartAt: "P",
		States: map[string]*StateDef{
			"P": {
				Type: "Parallel", End: true,
				Branches: []*Definition{{
					StartAt: "Bad",
					States:  map[string]*StateDef{"Bad": {Type: "Task", Next: "Ghost"}},
				}},
			},
		},
	}
	if !hasFatal(Validate(par)) {
		t.Fatalf("expected a Branch's own problems to surface")
	}
}
