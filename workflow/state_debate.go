package workflow

import (
	"context"

	"github.com/lyzr-oss/statelang/value"
)

// execDebate implements spec §4.4.11: each of at least two Participants
// takes a turn per round, seeing the accumulated history of every prior
// turn; after all rounds, an optional Arbiter renders a decision when
// RequireConsensus is set. The arbiter's output is passed through as
// Decision without requiring any particular shape; consensus is
// best-effort, true only when that output is a mapping carrying a
// truthy "consensus" key — an unstructured or silent arbiter reply
// never counts as consensus on its own (see DESIGN.md).
func execDebate(ctx context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, rt *Runtime) (kindResult, error) {
	if len(def.Participants) < 2 {
		return kindResult{}, &EngineError{Message: "Debate state requires at least two Participants", Code: CodeValidationError, StateName: ec.CurrentState}
	}

	topic, err := resolveParams(def.Topic, shapedInput, ec)
	if err != nil {
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
	}

	rounds := def.Rounds
	if rounds <= 0 {
		rounds = 1
	}

	var tokens, cost float64
	history := make(value.Array, 0, rounds*len(def.Participants))

	for round := 1; round <= rounds; round++ {
		for _, name := range def.Participants {
			agent, err := rt.Registry.Lookup(name)
			if err != nil {
				return kindResult{}, err
			}
			turnInput := value.Map{
				"topic":       topic,
				"round":       float64(round),
				"participant": name,
				"history":     history,
			}
			res, err := agent.Invoke(ctx, turnInput)
			if err != nil {
				return kindResult{}, classifyDebateError(err, ec.CurrentState)
			}
			tokens += res.Tokens
			cost += res.Cost
			history = append(history, value.Map{
				"round":       float64(round),
				"participant": name,
				"response":    res.Output,
			})
		}
	}

	var decision value.Value
	consensus := false
	if def.RequireConsensus && def.Arbiter != "" {
		arbiter, err := rt.Registry.Lookup(def.Arbiter)
		if err != nil {
			return kindResult{}, err
		}
		res, err := arbiter.Invoke(ctx, value.Map{"topic": topic, "history": history})
		if err != nil {
			return kindResult{}, classifyDebateError(err, ec.CurrentState)
		}
		tokens += res.Tokens
		cost += res.Cost
		decision = res.Output
		if m, ok := value.AsMap(res.Output); ok {
			if c, present := m["consensus"]; present {
				consensus, _ = value.AsBool(c)
			}
		}
	}

	participants := make(value.Array, len(def.Participants))
	for i, p := range def.Participants {
		participants[i] = p
	}

	result := value.Map{
		"topic":        topic,
		"rounds":       float64(rounds),
		"participants": participants,
		"history":      history,
		"decision":     decision,
		"consensus":    consensus,
	}
	return kindResult{Raw: result, Tokens: tokens, Cost: cost}, nil
}

func classifyDebateError(err error, stateName string) error {
	if ee, ok := err.(*EngineError); ok {
		ee.StateName = stateName
		return ee
	}
	return &EngineError{Message: err.Error(), Code: CodeTaskFailed, StateName: stateName, Cause: err}
}
