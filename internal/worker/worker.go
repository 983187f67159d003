// Package worker runs frame processing on one dedicated goroutine so the
// pipeline's vote window is only ever touched by a single thread of control.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/signroute/internal/pipeline"
)

// DefaultQueueSize bounds how many frames may wait behind the one in flight.
// Camera frames are cheap to drop and stale ones are worthless.
const DefaultQueueSize = 2

var (
	// ErrQueueFull is returned by Submit when the queue is at capacity. The
	// caller should drop the frame.
	ErrQueueFull = errors.New("frame queue full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("worker stopped")
	// ErrPanic is reported in a Result when a task panicked.
	ErrPanic = errors.New("frame processing panicked")
)

// Task processes one frame on the worker goroutine.
type Task func() (pipeline.Prediction, error)

// Result is the outcome of one submitted task. Frame results are delivered
// in submission order.
type Result struct {
	Seq        uint64
	Prediction pipeline.Prediction
	Err        error
	Duration   time.Duration
}

// Config configures a Worker.
type Config struct {
	// QueueSize is the number of tasks that may wait (default DefaultQueueSize).
	QueueSize int
	// Logger receives per-frame failures.
	Logger *slog.Logger
	// OnResult, if set, is called on the worker goroutine after every task,
	// before the submitter receives the result.
	OnResult func(Result)
}

type job struct {
	seq  uint64
	task Task
	done chan Result
}

// Worker executes tasks one at a time. Frames run in submission order.
type Worker struct {
	config Config
	logger *slog.Logger
	queue   chan job
	control chan job
	done    chan struct{}
	stopCh  chan struct{}

	mu      sync.Mutex
	seq     uint64
	started bool
	stopped bool
}

// New creates a Worker. Call Start to begin processing.
func New(config Config) *Worker {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config: config,
		logger: logger,
		queue:   make(chan job, config.QueueSize),
		control: make(chan job),
		done:    make(chan struct{}),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling it more than once is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.run()
}

// Submit enqueues task without blocking. The returned channel receives
// exactly one Result and is never closed.
func (w *Worker) Submit(task Task) (<-chan Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil, ErrStopped
	}

	j := job{
		seq:  w.seq + 1,
		task: task,
		done: make(chan Result, 1),
	}

	select {
	case w.queue <- j:
		w.seq++
		return j.done, nil
	default:
		return nil, ErrQueueFull
	}
}

// SubmitControl hands task to the worker outside the frame queue, waiting for
// the task in flight to finish instead of failing with ErrQueueFull. Control
// tasks run before frames still waiting in the queue.
func (w *Worker) SubmitControl(ctx context.Context, task Task) (<-chan Result, error) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil, ErrStopped
	}
	w.seq++
	j := job{
		seq:  w.seq,
		task: task,
		done: make(chan Result, 1),
	}
	w.mu.Unlock()

	select {
	case w.control <- j:
		return j.done, nil
	case <-w.stopCh:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop refuses new tasks, lets queued ones finish and waits for the
// goroutine to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	close(w.stopCh)
	started := w.started
	w.mu.Unlock()

	if started {
		<-w.done
	}
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		// Control tasks go first.
		select {
		case j := <-w.control:
			w.handle(j)
			continue
		default:
		}

		select {
		case j := <-w.control:
			w.handle(j)
		case j, ok := <-w.queue:
			if !ok {
				return
			}
			w.handle(j)
		}
	}
}

func (w *Worker) handle(j job) {
	res := w.execute(j)
	if w.config.OnResult != nil {
		w.notify(res)
	}
	j.done <- res
}

func (w *Worker) execute(j job) (res Result) {
	start := time.Now()
	res.Seq = j.seq

	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Prediction = pipeline.Prediction{Index: -1, LabelIndex: -1}
			res.Err = fmt.Errorf("%w: %v", ErrPanic, r)
			w.logger.Error("frame processing panicked", "seq", j.seq, "panic", r)
		}
	}()

	res.Prediction, res.Err = j.task()
	if res.Err != nil {
		w.logger.Warn("frame processing failed", "seq", j.seq, "error", res.Err)
	}
	return res
}

func (w *Worker) notify(res Result) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("result observer panicked", "seq", res.Seq, "panic", r)
		}
	}()
	w.config.OnResult(res)
}
