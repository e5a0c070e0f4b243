package workflow

import (
	"context"

	"github.com/lyzr-oss/statelang/value"
)

// execSucceed implements spec §4.4.7: terminal, passes the shaped input
// through as the final output. Letting it flow through the generic
// ResultPath/OutputPath pipeline with Raw == shapedInput and no
// Parameters/ResultSelector configured on a Succeed state reproduces
// exactly that pass-through.
func execSucceed(_ context.Context, _ *ExecutionContext, _ *StateDef, shapedInput value.Value, _ *Runtime) (kindResult, error) {
	return kindResult{Raw: shapedInput}, nil
}
