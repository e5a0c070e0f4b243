package workflow

import (
	"context"
	"time"

	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
)

// execWait implements spec §4.4.6: delay for a duration derived from one
// of Seconds/SecondsPath/Timestamp/TimestampPath, then pass the shaped
// input through unchanged.
func execWait(ctx context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, _ *Runtime) (kindResult, error) {
	d, err := waitDuration(def, shapedInput, ec)
	if err != nil {
		return kindResult{}, err
	}
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return kindResult{}, &EngineError{Message: "wait cancelled", Code: CodeTimeout, StateName: ec.CurrentState, Cause: ctx.Err()}
		}
	}
	return kindResult{Raw: shapedInput}, nil
}

func waitDuration(def *StateDef, data value.Value, ec *ExecutionContext) (time.Duration, error) {
	switch {
	case def.Seconds != nil:
		return secondsToDuration(*def.Seconds), nil

	case def.SecondsPath != "":
		v, err := path.Evaluate(def.SecondsPath, data, ec.View())
		if err != nil {
			return 0, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
		}
		n, ok := value.AsNumber(v)
		if !ok {
			return 0, &EngineError{Message: "SecondsPath did not resolve to a number", Code: CodeParameterPathFailure, StateName: ec.CurrentState}
		}
		return secondsToDuration(n), nil

	case def.Timestamp != "":
		return untilTimestamp(def.Timestamp, ec)

	case def.TimestampPath != "":
		v, err := path.Evaluate(def.TimestampPath, data, ec.View())
		if err != nil {
			return 0, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
		}
		s, ok := value.AsString(v)
		if !ok {
			return 0, &EngineError{Message: "TimestampPath did not resolve to a string", Code: CodeParameterPathFailure, StateName: ec.CurrentState}
		}
		return untilTimestamp(s, ec)

	default:
		return 0, nil
	}
}

func secondsToDuration(s float64) time.Duration {
	if s < 0 {
		s = 0
	}
	return time.Duration(s * float64(time.Second))
}

func untilTimestamp(ts string, ec *ExecutionContext) (time.Duration, error) {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return 0, &EngineError{Message: "invalid ISO-8601 timestamp: " + err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
	}
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	return d, nil
}
