package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xzajyb/MXacc-sub002/internal/domain"
	"github.com/xzajyb/MXacc-sub002/internal/pkg/id"
	"golang.org/x/time/rate"
)

// TaskDispatcher delivers a single task.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, kind domain.TemplateKind, to string, data map[string]string) domain.DeliveryOutcome
}

const sinkTimeout = 5 * time.Second

// Queue is an in-process FIFO drained by at most one worker goroutine.
// Enqueue never blocks on delivery. Tasks are dropped after one attempt and
// do not survive a restart.
type Queue struct {
	dispatcher TaskDispatcher
	pacer      *rate.Limiter
	sinks      []OutcomeSink
	metrics    *Metrics
	log        *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	tasks   []domain.EmailTask
	running bool
	closed  bool
	done    chan struct{} // closed when the current worker exits

	// stop aborts pacing waits once Close gives up on draining.
	stopCtx context.Context
	stop    context.CancelFunc
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithPacing sets the minimum gap between two dispatches.
func WithPacing(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d <= 0 {
			q.pacer = rate.NewLimiter(rate.Inf, 1)
			return
		}
		q.pacer = rate.NewLimiter(rate.Every(d), 1)
	}
}

func WithSinks(sinks ...OutcomeSink) QueueOption {
	return func(q *Queue) { q.sinks = append(q.sinks, sinks...) }
}

func WithMetrics(m *Metrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

func WithLogger(l *slog.Logger) QueueOption {
	return func(q *Queue) { q.log = l }
}

func NewQueue(d TaskDispatcher, opts ...QueueOption) *Queue {
	q := &Queue{
		dispatcher: d,
		pacer:      rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		log:        slog.Default(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(q)
	}
	if q.metrics == nil {
		q.metrics = NewMetrics(nil)
	}
	q.stopCtx, q.stop = context.WithCancel(context.Background())
	return q
}

// Enqueue appends task and wakes the worker. ID and EnqueuedAt are filled in
// when empty.
func (q *Queue) Enqueue(task domain.EmailTask) (string, error) {
	if _, err := domain.ParseTemplateKind(string(task.Kind)); err != nil {
		return "", err
	}
	if task.Recipient == "" {
		return "", fmt.Errorf("recipient required: %w", domain.ErrBadRequest)
	}
	if task.ID == "" {
		task.ID = id.New()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = q.now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", domain.ErrQueueClosed
	}
	q.tasks = append(q.tasks, task)
	q.metrics.depth.Set(float64(len(q.tasks)))
	if !q.running {
		q.running = true
		q.done = make(chan struct{})
		go q.run(q.done)
	}
	return task.ID, nil
}

// Len returns the number of tasks waiting for the worker.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close stops accepting tasks and waits for the worker to drain the queue.
// If ctx ends first, the task in flight still completes but the remaining
// tasks are dropped and ctx's error is returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	done := q.done
	running := q.running
	q.mu.Unlock()

	if !running {
		q.stop()
		return nil
	}
	select {
	case <-done:
		q.stop()
		return nil
	case <-ctx.Done():
	}

	q.mu.Lock()
	dropped := len(q.tasks)
	q.tasks = nil
	q.metrics.depth.Set(0)
	q.mu.Unlock()
	q.stop()

	q.metrics.dropped.Add(float64(dropped))
	q.log.Warn("delivery queue closed before drain", "dropped", dropped)
	return ctx.Err()
}

func (q *Queue) run(done chan struct{}) {
	defer close(done)
	for {
		task, ok := q.next()
		if !ok {
			return
		}
		if err := q.pacer.Wait(q.stopCtx); err != nil {
			q.log.Warn("email task dropped during shutdown", "task_id", task.ID, "kind", task.Kind)
			q.metrics.dropped.Inc()
			continue
		}
		q.deliver(task)
	}
}

func (q *Queue) next() (domain.EmailTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		q.running = false
		return domain.EmailTask{}, false
	}
	task := q.tasks[0]
	q.tasks[0] = domain.EmailTask{}
	q.tasks = q.tasks[1:]
	q.metrics.depth.Set(float64(len(q.tasks)))
	return task, true
}

func (q *Queue) deliver(task domain.EmailTask) {
	start := time.Now()
	out := q.dispatcher.Dispatch(context.Background(), task.Kind, task.Recipient, task.Data)
	q.metrics.observe(task, out, time.Since(start))

	if out.Success {
		q.log.Info("email delivered",
			"task_id", task.ID, "kind", task.Kind, "recipient", task.Recipient,
			"channel", out.Channel, "message_id", out.MessageID)
	} else {
		q.log.Error("email delivery failed",
			"task_id", task.ID, "kind", task.Kind, "recipient", task.Recipient,
			"channel", out.Channel, "err", out.Err)
	}

	if len(q.sinks) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	for _, s := range q.sinks {
		if err := s.Record(ctx, task, out); err != nil {
			q.log.Warn("outcome sink failed", "task_id", task.ID, "err", err)
		}
	}
}
