package workflow

import "github.com/lyzr-oss/statelang/value"

// ApprovalRequest is what the Approval state hands to an ApprovalHandler
// (spec §4.4.9 step 2).
type ApprovalRequest struct {
	Prompt   value.Value
	Options  value.Value
	State    string
	Timeout  float64
	Input    value.Value
	Editable bool
}

// ApprovalDecision is a resolved human decision, written through
// ResultPath as {approval, approver, timestamp, prompt[, comment]
// [, edited_content]} (spec §4.4.9).
type ApprovalDecision struct {
	Approval      string
	Approver      string
	Comment       string
	EditedContent value.Value
	HasComment    bool
	HasEdited     bool
}

// ApprovalHandler is the human-in-the-loop boundary (spec §4.6): given a
// request, it either returns a decision (resume immediately) or reports
// Pending (defer to an external resume, which raises the interpreter's
// pause signal).
type ApprovalHandler interface {
	Decide(req ApprovalRequest) (decision ApprovalDecision, pending bool, err error)
}

// AutoApproveHandler always approves the first offered option — the spec
// §4.4.9 step-3 test default behavior when no handler is configured, and
// a concrete no-op implementation when one is wanted explicitly.
type AutoApproveHandler struct{}

func (AutoApproveHandler) Decide(req ApprovalRequest) (ApprovalDecision, bool, error) {
	first := "approved"
	if opts, ok := value.AsArray(req.Options); ok && len(opts) > 0 {
		if s, ok := value.AsString(opts[0]); ok {
			first = s
		}
	}
	return ApprovalDecision{Approval: first, Approver: "auto"}, false, nil
}
