package workflow

import (
	"errors"
	"strings"

	"github.com/lyzr-oss/statelang/value"
)

// The closed error taxonomy (spec §6). States.ALL is a matcher-only
// sentinel; States.ExecutionPaused is internal signalling, never surfaced
// to a user workflow's own Catch/Retry rules.
const (
	CodeAll                  = "States.ALL"
	CodeError                = "States.Error"
	CodeValidationError      = "States.ValidationError"
	CodeStateNotFound        = "States.StateNotFound"
	CodeAgentNotFound        = "States.AgentNotFound"
	CodeTaskFailed           = "States.TaskFailed"
	CodeTimeout              = "States.Timeout"
	CodeIntrinsicFailure     = "States.IntrinsicFailure"
	CodeParameterPathFailure = "States.ParameterPathFailure"
	CodeResultPathMatchFailure = "States.ResultPathMatchFailure"
	CodeBudgetExceeded       = "States.BudgetExceeded"
	CodeExecutionPaused      = "States.ExecutionPaused"
	CodeNoChoiceMatched      = "States.NoChoiceMatched"
	CodeFailed               = "States.Failed" // default Fail-state error
)

// EngineError is the one error type every non-recoverable interpreter
// failure takes (spec §7), grounded on the teacher's NodeError: a
// human-readable message, a taxonomy Code the Retry/Catch matcher keys
// on, the state that produced it, and an optional wrapped cause.
type EngineError struct {
	Message   string
	Code      string
	StateName string
	Cause     error
}

func (e *EngineError) Error() string {
	if e.StateName != "" {
		return e.Code + " in state " + e.StateName + ": " + e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *EngineError) Unwrap() error { return e.Cause }

// ErrorCode extracts the taxonomy code from err: an *EngineError's Code
// field, a type implementing the unexported `Code() string` contract
// (e.g. intrinsics.Failure), or States.Error as a fallback for anything
// else.
func ErrorCode(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return CodeError
}

// ErrorCause extracts a human-readable cause string from err.
func ErrorCause(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// MatchesPattern reports whether pattern matches code per spec §4.5's
// Retry/Catch rule: verbatim equality, the States.ALL wildcard, or a
// trailing-dot prefix (e.g. "Agent." matches "Agent.NetworkError").
func MatchesPattern(pattern, code string) bool {
	if pattern == CodeAll {
		return true
	}
	if pattern == code {
		return true
	}
	if strings.HasSuffix(pattern, ".") && strings.HasPrefix(code, pattern) {
		return true
	}
	return false
}

// MatchesAny reports whether any pattern in patterns matches code.
func MatchesAny(patterns []string, code string) bool {
	for _, p := range patterns {
		if MatchesPattern(p, code) {
			return true
		}
	}
	return false
}

// errPause is the internal pause signal (spec §4.5's "pause signal"):
// raised by Approval when it defers to an external resume, and recognized
// only by the interpreter's own loop, never by a workflow's Catch rules
// (hence the States.ExecutionPaused code is documented as a sentinel, not
// a matchable taxonomy entry in practice).
type errPause struct {
	StateName      string
	CheckpointData value.Value
	PendingInput   map[string]any
}

func (e *errPause) Error() string { return CodeExecutionPaused }
