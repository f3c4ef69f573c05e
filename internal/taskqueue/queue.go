// Package taskqueue serializes economy affecting mutations: a single driver executes at
// most one queued task per tick.
package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/coincard/internal/domain"
	"github.com/go-petr/coincard/pkg/metricspkg"
)

// Task is a unit of work executed by the queue.
type Task func() error

// Queue is an unbounded FIFO of tasks drained one at a time.
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool

	// exec is held while a task runs so two drains never overlap.
	exec sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once

	logger zerolog.Logger
}

// New returns an empty Queue.
func New(logger zerolog.Logger) *Queue {
	return &Queue{
		stop:   make(chan struct{}),
		logger: logger.With().Str("component", "queue").Logger(),
	}
}

// Enqueue appends task to the queue. Nil tasks are ignored.
func (q *Queue) Enqueue(task Task) error {
	if task == nil {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return domain.ErrShutdown
	}

	q.tasks = append(q.tasks, task)
	metricspkg.QueueDepth.Set(float64(len(q.tasks)))

	return nil
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

func (q *Queue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.tasks) == 0 {
		return nil, false
	}

	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	metricspkg.QueueDepth.Set(float64(len(q.tasks)))

	return task, true
}

// DrainOne pops and runs the oldest task. It reports whether a task was run. Errors and
// panics raised by the task are logged and swallowed.
func (q *Queue) DrainOne() bool {
	q.exec.Lock()
	defer q.exec.Unlock()

	task, ok := q.pop()
	if !ok {
		return false
	}

	if err := q.run(task); err != nil {
		q.logger.Warn().Err(err).Msg("task failed")
	}

	return true
}

func (q *Queue) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metricspkg.QueueTasks.WithLabelValues(metricspkg.OutcomePanic).Inc()
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	err = task()
	if err != nil {
		metricspkg.QueueTasks.WithLabelValues(metricspkg.OutcomeError).Inc()
		return err
	}

	metricspkg.QueueTasks.WithLabelValues(metricspkg.OutcomeOK).Inc()

	return nil
}

// Run drives the queue, draining one task per tick until ctx is done or Shutdown is called.
func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	q.logger.Info().Dur("interval", interval).Msg("queue driver started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stop:
			return
		case <-ticker.C:
			q.DrainOne()
		}
	}
}

// Shutdown stops the driver and drops every pending task.
func (q *Queue) Shutdown() {
	q.stopOnce.Do(func() { close(q.stop) })

	q.mu.Lock()
	defer q.mu.Unlock()

	if n := len(q.tasks); n > 0 {
		q.logger.Warn().Int("dropped", n).Msg("dropping queued tasks on shutdown")
	}

	q.closed = true
	q.tasks = nil
	metricspkg.QueueDepth.Set(0)
}
