// Package workflow implements the declarative workflow interpreter: the
// state-machine execution loop, retry/catch handling, the composite
// (Map/Parallel/Debate) and human-in-the-loop (Approval/Checkpoint)
// states, and the collaborator interfaces (Agent, ApprovalHandler,
// CheckpointStore) the core consumes without depending on their concrete
// implementations.
//
// Grounded on the teacher's graph.Engine: a reducer-driven execution loop
// with pluggable emit/store/metrics collaborators, generalized here from
// an arbitrary generic state type to the single dynamic value.Value the
// spec requires.
package workflow

import "github.com/lyzr-oss/statelang/value"

// Definition is a parsed workflow document (spec §3, §6): a StartAt state
// name and the named State Definitions reachable from it. A Definition
// also describes a Map Iterator or a Parallel branch, both of which are
// themselves complete sub-machines.
type Definition struct {
	Comment string             `json:"Comment,omitempty"`
	Version string             `json:"Version,omitempty"`
	StartAt string             `json:"StartAt"`
	States  map[string]*StateDef `json:"States"`
}

// StateDef is every field any state kind may carry. Using one flat
// struct (discriminated by Type) rather than per-kind types mirrors the
// JSON document itself, which is exactly this shape, and avoids a
// json.RawMessage decode-then-redecode step when loading a workflow.
type StateDef struct {
	Type    string `json:"Type"`
	Comment string `json:"Comment,omitempty"`

	// Transition
	Next string `json:"Next,omitempty"`
	End  bool   `json:"End,omitempty"`

	// Path shaping — nil means "default $", a pointer to the literal
	// string "null" means "discard" (spec §4.1's ResultPath sentinel).
	InputPath      *string     `json:"InputPath,omitempty"`
	OutputPath     *string     `json:"OutputPath,omitempty"`
	ResultPath     *string     `json:"ResultPath,omitempty"`
	Parameters     value.Value `json:"Parameters,omitempty"`
	ResultSelector value.Value `json:"ResultSelector,omitempty"`

	// Error handling
	Retry []RetryRule `json:"Retry,omitempty"`
	Catch []CatchRule `json:"Catch,omitempty"`

	// Task
	Agent            string  `json:"Agent,omitempty"`
	TimeoutSeconds   float64 `json:"TimeoutSeconds,omitempty"`
	HeartbeatSeconds float64 `json:"HeartbeatSeconds,omitempty"`

	// Pass
	Result value.Value `json:"Result,omitempty"`

	// Choice
	Choices []ChoiceRule `json:"Choices,omitempty"`
	Default string       `json:"Default,omitempty"`

	// Wait
	Seconds       *float64 `json:"Seconds,omitempty"`
	SecondsPath   string   `json:"SecondsPath,omitempty"`
	Timestamp     string   `json:"Timestamp,omitempty"`
	TimestampPath string   `json:"TimestampPath,omitempty"`

	// Fail
	Error string `json:"Error,omitempty"`
	Cause string `json:"Cause,omitempty"`

	// Map
	ItemsPath      string      `json:"ItemsPath,omitempty"`
	ItemSelector   value.Value `json:"ItemSelector,omitempty"`
	MaxConcurrency int         `json:"MaxConcurrency,omitempty"`
	Iterator       *Definition `json:"Iterator,omitempty"`

	// Parallel
	Branches []*Definition `json:"Branches,omitempty"`

	// Approval (Choices, above, is reused for post-approval routing)
	Prompt   value.Value `json:"Prompt,omitempty"`
	Options  value.Value `json:"Options,omitempty"`
	Editable bool        `json:"Editable,omitempty"`

	// Checkpoint
	Name       string  `json:"Name,omitempty"`
	TTLSeconds float64 `json:"TTLSeconds,omitempty"`

	// Debate
	Topic            value.Value `json:"Topic,omitempty"`
	Participants     []string    `json:"Participants,omitempty"`
	Arbiter          string      `json:"Arbiter,omitempty"`
	Rounds           int         `json:"Rounds,omitempty"`
	RequireConsensus bool        `json:"RequireConsensus,omitempty"`
}

// RetryRule is one entry of a state's Retry list (spec §4.5).
type RetryRule struct {
	ErrorEquals     []string `json:"ErrorEquals"`
	IntervalSeconds float64  `json:"IntervalSeconds,omitempty"`
	MaxAttempts     int      `json:"MaxAttempts,omitempty"`
	BackoffRate     float64  `json:"BackoffRate,omitempty"`
	MaxDelaySeconds float64  `json:"MaxDelaySeconds,omitempty"`
	JitterStrategy  string   `json:"JitterStrategy,omitempty"`
}

// CatchRule is one entry of a state's Catch list (spec §4.5).
type CatchRule struct {
	ErrorEquals []string `json:"ErrorEquals"`
	ResultPath  *string  `json:"ResultPath,omitempty"`
	Next        string   `json:"Next"`
}

// ChoiceRule is one rule in a Choice state's ordered list (spec §4.4.3).
type ChoiceRule struct {
	Variable string `json:"Variable,omitempty"`
	Next     string `json:"Next,omitempty"`

	StringEquals          *string `json:"StringEquals,omitempty"`
	StringEqualsPath       string  `json:"StringEqualsPath,omitempty"`
	StringLessThan         *string `json:"StringLessThan,omitempty"`
	StringLessThanEquals   *string `json:"StringLessThanEquals,omitempty"`
	StringGreaterThan      *string `json:"StringGreaterThan,omitempty"`
	StringGreaterThanEquals *string `json:"StringGreaterThanEquals,omitempty"`
	StringMatches          *string `json:"StringMatches,omitempty"`

	NumericEquals              *float64 `json:"NumericEquals,omitempty"`
	NumericLessThan            *float64 `json:"NumericLessThan,omitempty"`
	NumericLessThanEquals      *float64 `json:"NumericLessThanEquals,omitempty"`
	NumericGreaterThan         *float64 `json:"NumericGreaterThan,omitempty"`
	NumericGreaterThanEquals   *float64 `json:"NumericGreaterThanEquals,omitempty"`

	BooleanEquals *bool `json:"BooleanEquals,omitempty"`

	TimestampEquals     *string `json:"TimestampEquals,omitempty"`
	TimestampLessThan   *string `json:"TimestampLessThan,omitempty"`
	TimestampGreaterThan *string `json:"TimestampGreaterThan,omitempty"`

	IsNull     *bool `json:"IsNull,omitempty"`
	IsPresent  *bool `json:"IsPresent,omitempty"`
	IsString   *bool `json:"IsString,omitempty"`
	IsNumeric  *bool `json:"IsNumeric,omitempty"`
	IsBoolean  *bool `json:"IsBoolean,omitempty"`
	IsTimestamp *bool `json:"IsTimestamp,omitempty"`

	And []ChoiceRule `json:"And,omitempty"`
	Or  []ChoiceRule `json:"Or,omitempty"`
	Not *ChoiceRule  `json:"Not,omitempty"`
}
