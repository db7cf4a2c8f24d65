package delivery

import (
	"context"

	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// OutcomeSink receives every finished task. Sinks run on the worker goroutine
// and must not block for long; their errors are logged and ignored.
type OutcomeSink interface {
	Record(ctx context.Context, task domain.EmailTask, out domain.DeliveryOutcome) error
}

// FailuresOnly forwards only failed outcomes to the wrapped sink.
type FailuresOnly struct {
	Sink OutcomeSink
}

func (f FailuresOnly) Record(ctx context.Context, task domain.EmailTask, out domain.DeliveryOutcome) error {
	if out.Success {
		return nil
	}
	return f.Sink.Record(ctx, task, out)
}
