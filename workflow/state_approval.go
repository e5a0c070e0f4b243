package workflow

import (
	"context"
	"time"

	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
)

// execApproval implements spec §4.4.9: resolve the Prompt, resolve a
// decision (resume data first, then the configured ApprovalHandler,
// raising the interpreter's pause signal if the handler reports
// pending), write the decision envelope, and route via Choices if
// present, falling back to Next/End.
//
// Choices are evaluated against a routing view built here: the shaped
// input with the decision envelope placed at $.approval, whatever the
// state's configured ResultPath is. The real ResultPath merge happens
// afterwards in executeState and is not visible to this function.
func execApproval(_ context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, _ *Runtime) (kindResult, error) {
	prompt, err := resolveParams(def.Prompt, shapedInput, ec)
	if err != nil {
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
	}

	var decision ApprovalDecision
	var pending bool

	if ec.ResumeData != nil {
		decision, err = decisionFromResumeData(ec.ResumeData)
		ec.ResumeData = nil
	} else {
		handler := ec.ApprovalHandler
		if handler == nil {
			handler = AutoApproveHandler{}
		}
		decision, pending, err = handler.Decide(ApprovalRequest{
			Prompt:   prompt,
			Options:  def.Options,
			State:    ec.CurrentState,
			Timeout:  def.TimeoutSeconds,
			Input:    shapedInput,
			Editable: def.Editable,
		})
	}
	if err != nil {
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeTaskFailed, StateName: ec.CurrentState, Cause: err}
	}
	if pending {
		pendingInput := value.Map{
			"type":     "approval",
			"prompt":   prompt,
			"options":  def.Options,
			"editable": def.Editable,
			"timeout":  def.TimeoutSeconds,
		}
		return kindResult{}, &errPause{StateName: ec.CurrentState, CheckpointData: ec.CheckpointData, PendingInput: pendingInput}
	}

	result := value.Map{
		"approval":  decision.Approval,
		"approver":  decision.Approver,
		"timestamp": time.Now().Format(time.RFC3339),
		"prompt":    prompt,
	}
	if decision.HasComment {
		result["comment"] = decision.Comment
	}
	if decision.HasEdited {
		result["edited_content"] = decision.EditedContent
	}

	kr := kindResult{Raw: result}

	if len(def.Choices) == 0 {
		return kr, nil
	}

	routingData, err := path.Set("$.approval", shapedInput, result)
	if err != nil {
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeResultPathMatchFailure, StateName: ec.CurrentState}
	}
	for _, rule := range def.Choices {
		matched, err := evalRule(rule, routingData, ec)
		if err != nil {
			return kindResult{}, err
		}
		if matched {
			kr.HasOverride = true
			kr.NextOverride = rule.Next
			return kr, nil
		}
	}
	if def.Default != "" {
		kr.HasOverride = true
		kr.NextOverride = def.Default
	}
	return kr, nil
}

// decisionFromResumeData extracts an ApprovalDecision from the resume
// payload handed to RunInput.ResumeData (spec §6): an {approval,
// approver, comment, edited_content} mapping.
func decisionFromResumeData(data value.Value) (ApprovalDecision, error) {
	m, ok := value.AsMap(data)
	if !ok {
		return ApprovalDecision{}, &EngineError{Message: "resume data must be a mapping with an \"approval\" field", Code: CodeValidationError}
	}
	approval, _ := value.AsString(m["approval"])
	if approval == "" {
		return ApprovalDecision{}, &EngineError{Message: "resume data is missing the \"approval\" field", Code: CodeValidationError}
	}
	d := ApprovalDecision{Approval: approval}
	if approver, ok := value.AsString(m["approver"]); ok {
		d.Approver = approver
	}
	if comment, ok := value.AsString(m["comment"]); ok {
		d.Comment = comment
		d.HasComment = true
	}
	if edited, exists := m["edited_content"]; exists {
		d.EditedContent = edited
		d.HasEdited = true
	}
	return d, nil
}
