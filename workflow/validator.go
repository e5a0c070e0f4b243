package workflow

import "fmt"

// ValidationIssue is one problem (or warning) Validate found.
type ValidationIssue struct {
	State   string
	Message string
	Fatal   bool
}

func (i ValidationIssue) String() string {
	kind := "error"
	if !i.Fatal {
		kind = "warning"
	}
	if i.State != "" {
		return fmt.Sprintf("%s: state %q: %s", kind, i.State, i.Message)
	}
	return fmt.Sprintf("%s: %s", kind, i.Message)
}

// Validate runs the pre-flight structural checks of spec §4.7 against
// def, returning every issue found. Fatal issues (missing StartAt,
// dangling Next, a state lacking a terminal marker or Next) mean the
// definition cannot be run; unreachable-state issues are non-fatal
// warnings.
func Validate(def *Definition) []ValidationIssue {
	var issues []ValidationIssue

	if def.StartAt == "" {
		issues = append(issues, ValidationIssue{Message: "StartAt is not set", Fatal: true})
	} else if _, ok := def.States[def.StartAt]; !ok {
		issues = append(issues, ValidationIssue{Message: fmt.Sprintf("StartAt %q is not a defined state", def.StartAt), Fatal: true})
	}

	for name, s := range def.States {
		issues = append(issues, validateState(def, name, s)...)
	}

	issues = append(issues, unreachableStates(def)...)
	return issues
}

func validateState(def *Definition, name string, s *StateDef) []ValidationIssue {
	var issues []ValidationIssue
	fail := func(format string, args ...any) {
		issues = append(issues, ValidationIssue{State: name, Message: fmt.Sprintf(format, args...), Fatal: true})
	}

	switch s.Type {
	case "Task", "Pass", "Wait", "Map", "Parallel", "Approval", "Checkpoint", "Debate", "Choice", "Succeed", "Fail":
	default:
		fail("unknown Type %q", s.Type)
	}

	if s.Type != "Choice" && s.Type != "Succeed" && s.Type != "Fail" {
		if !s.End && s.Next == "" {
			fail("must set either Next or End")
		}
		if s.Next != "" {
			if _, ok := def.States[s.Next]; !ok {
				fail("Next references undefined state %q", s.Next)
			}
		}
	}

	switch s.Type {
	case "Task":
		if s.Agent == "" {
			fail("Task requires Agent")
		}
	case "Choice":
		if len(s.Choices) == 0 {
			fail("Choice requires a non-empty Choices list")
		}
		for _, rule := range s.Choices {
			if rule.Next == "" {
				fail("Choice rule has no Next")
			} else if _, ok := def.States[rule.Next]; !ok {
				fail("Choice rule Next references undefined state %q", rule.Next)
			}
		}
		if s.Default != "" {
			if _, ok := def.States[s.Default]; !ok {
				fail("Default references undefined state %q", s.Default)
			}
		}
	case "Wait":
		if s.Seconds == nil && s.SecondsPath == "" && s.Timestamp == "" && s.TimestampPath == "" {
			fail("Wait requires one of Seconds, SecondsPath, Timestamp, TimestampPath")
		}
	case "Map":
		if s.ItemsPath == "" {
			fail("Map requires ItemsPath")
		}
		if s.Iterator == nil {
			fail("Map requires Iterator")
		} else {
			for _, sub := range Validate(s.Iterator) {
				sub.Message = "Iterator: " + sub.Message
				issues = append(issues, sub)
			}
		}
	case "Parallel":
		if len(s.Branches) == 0 {
			fail("Parallel requires a non-empty Branches list")
		}
		for i, branch := range s.Branches {
			for _, sub := range Validate(branch) {
				sub.Message = fmt.Sprintf("Branch[%d]: %s", i, sub.Message)
				issues = append(issues, sub)
			}
		}
	case "Debate":
		if len(s.Participants) < 2 {
			fail("Debate requires at least two Participants")
		}
		if s.RequireConsensus && s.Arbiter == "" {
			fail("Debate with RequireConsensus requires an Arbiter")
		}
	case "Checkpoint":
		if s.Name == "" {
			fail("Checkpoint requires Name")
		}
	}

	return issues
}

// unreachableStates warns (non-fatally) about states no Next/Choice/
// Default/Catch edge and not StartAt ever points at.
func unreachableStates(def *Definition) []ValidationIssue {
	reachable := map[string]bool{def.StartAt: true}
	changed := true
	for changed {
		changed = false
		for name, s := range def.States {
			if !reachable[name] {
				continue
			}
			for _, next := range outEdges(s) {
				if !reachable[next] {
					reachable[next] = true
					changed = true
				}
			}
		}
	}

	var issues []ValidationIssue
	for name := range def.States {
		if !reachable[name] {
			issues = append(issues, ValidationIssue{State: name, Message: "unreachable from StartAt", Fatal: false})
		}
	}
	return issues
}

func outEdges(s *StateDef) []string {
	var out []string
	if s.Next != "" {
		out = append(out, s.Next)
	}
	if s.Default != "" {
		out = append(out, s.Default)
	}
	for _, rule := range s.Choices {
		if rule.Next != "" {
			out = append(out, rule.Next)
		}
	}
	for _, rule := range s.Catch {
		if rule.Next != "" {
			out = append(out, rule.Next)
		}
	}
	return out
}
