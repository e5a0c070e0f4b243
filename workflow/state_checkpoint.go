package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr-oss/statelang/value"
)

// execCheckpoint implements spec §4.4.10: snapshot the run so far (input,
// trace, accumulators) through the configured CheckpointStore if one is
// set, record a checkpoint_created trace entry, and surface the
// checkpoint's identity in the data.
func execCheckpoint(ctx context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, rt *Runtime) (kindResult, error) {
	id := uuid.NewString()
	createdAt := time.Now()

	if rt.Checkpoints != nil {
		snapshot := CheckpointSnapshot{
			ID:         id,
			Name:       def.Name,
			ExecID:     ec.ID,
			CreatedAt:  createdAt,
			Input:      shapedInput,
			Trace:      ec.Trace,
			Tokens:     ec.Tokens,
			Cost:       ec.Cost,
			TTLSeconds: def.TTLSeconds,
		}
		if err := rt.Checkpoints.Save(ctx, snapshot); err != nil {
			return kindResult{}, &EngineError{Message: err.Error(), Code: CodeTaskFailed, StateName: ec.CurrentState, Cause: err}
		}
	}

	ec.RecordCheckpointCreated(ec.CurrentState, def.Name, id)

	result := value.Map{
		"checkpoint": value.Map{
			"name":      def.Name,
			"id":        id,
			"createdAt": createdAt.Format(time.RFC3339),
		},
	}
	return kindResult{Raw: result}, nil
}
