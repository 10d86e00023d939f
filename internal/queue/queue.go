// Package queue runs helper CLI jobs strictly one at a time.
//
// The queue is a FIFO list plus a single active-job slot, so concurrency is
// capped at 1 by construction. Jobs compose the spawner, the error
// classifier, and the retry executor, and emit started/progress/completed
// lifecycle events to synchronous subscribers.
package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/featherline/quill/internal/core"
	"github.com/featherline/quill/internal/launch"
	"github.com/featherline/quill/internal/retry"
)

// Status is a job's terminal state.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusError     Status = "error"
)

// BatchMetadata correlates the jobs produced from one planning call. It is
// immutable once attached to a job.
type BatchMetadata struct {
	BatchID    string
	BatchSize  int
	SkillNames []string
	Scope      core.Scope
	Agents     []string
}

// Job is one queued helper CLI invocation. Identity is OperationID,
// caller-generated and unique per job.
type Job struct {
	OperationID string
	Operation   core.Operation
	SkillLabel  string
	Args        []string
	Dir         string
	Metadata    *BatchMetadata
}

// Result is a job's terminal record, emitted exactly once per job.
type Result struct {
	OperationID  string
	Operation    core.Operation
	SkillLabel   string
	Status       Status
	ErrorMessage string
	// Failure carries the classified error detail, including any
	// remediation action. Nil unless Status is StatusError.
	Failure  *launch.Error
	Metadata *BatchMetadata
}

// StartedEvent fires when a job begins executing.
type StartedEvent struct {
	OperationID string
	Operation   core.Operation
	SkillLabel  string
	Metadata    *BatchMetadata
}

// ProgressEvent fires once per retry attempt.
type ProgressEvent struct {
	OperationID string
	Message     string
	Metadata    *BatchMetadata
}

// Options tunes the queue's retry behavior.
type Options struct {
	MaxRetries int           // default 3
	BaseDelay  time.Duration // default 1s
	Logger     *slog.Logger
	// Sleep overrides the retry backoff delay function in tests.
	Sleep func(time.Duration)
}

// Queue executes jobs sequentially in enqueue order. No job starts before
// the previous one reaches a terminal state.
type Queue struct {
	spawner launch.Spawner
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	pending  []*Job
	active   *activeJob
	draining bool
	disposed bool

	startedHandlers   []func(StartedEvent)
	progressHandlers  []func(ProgressEvent)
	completedHandlers []func(Result)
}

// activeJob tracks the in-flight job's cancellation state and process.
type activeJob struct {
	job       *Job
	handle    launch.ProcessHandle
	cancelled bool
}

// New creates a Queue draining jobs through the given spawner.
func New(spawner launch.Spawner, opts Options) *Queue {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{spawner: spawner, opts: opts, logger: logger}
}

// OnStarted registers a started handler. Handlers are invoked synchronously
// and in registration order within a single event.
func (q *Queue) OnStarted(fn func(StartedEvent)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.startedHandlers = append(q.startedHandlers, fn)
}

// OnProgress registers a progress handler.
func (q *Queue) OnProgress(fn func(ProgressEvent)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.progressHandlers = append(q.progressHandlers, fn)
}

// OnCompleted registers a completion handler.
func (q *Queue) OnCompleted(fn func(Result)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completedHandlers = append(q.completedHandlers, fn)
}

// Enqueue appends a job and starts draining if the queue is idle.
func (q *Queue) Enqueue(job *Job) {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, job)
	startDrain := !q.draining
	if startDrain {
		q.draining = true
	}
	q.mu.Unlock()

	if startDrain {
		go q.drain()
	}
}

// Cancel cancels a queued or in-flight job. A job still in the pending list
// is spliced out and a synthetic cancelled result is emitted immediately,
// without ever touching the spawner. The active job's process is killed and
// its own completion handling emits the terminal result once the process
// actually exits. Returns false when the id is unknown.
func (q *Queue) Cancel(operationID string) bool {
	q.mu.Lock()
	for i, job := range q.pending {
		if job.OperationID != operationID {
			continue
		}
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		q.mu.Unlock()
		q.emitCompleted(Result{
			OperationID: job.OperationID,
			Operation:   job.Operation,
			SkillLabel:  job.SkillLabel,
			Status:      StatusCancelled,
			Metadata:    job.Metadata,
		})
		return true
	}

	if q.active != nil && q.active.job.OperationID == operationID {
		q.active.cancelled = true
		handle := q.active.handle
		q.mu.Unlock()
		if handle != nil {
			handle.Kill()
		}
		return true
	}

	q.mu.Unlock()
	return false
}

// Idle reports whether the queue has no pending or active work.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.draining && q.active == nil && len(q.pending) == 0
}

// Dispose kills any active job and clears the pending list. No further
// events are emitted.
func (q *Queue) Dispose() {
	q.mu.Lock()
	q.disposed = true
	q.pending = nil
	var handle launch.ProcessHandle
	if q.active != nil {
		q.active.cancelled = true
		handle = q.active.handle
	}
	q.mu.Unlock()

	if handle != nil {
		handle.Kill()
	}
}

// drain executes jobs one at a time until the pending list is empty.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if q.disposed || len(q.pending) == 0 {
			q.draining = false
			q.active = nil
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending = q.pending[1:]
		a := &activeJob{job: job}
		q.active = a
		q.mu.Unlock()

		q.emitStarted(StartedEvent{
			OperationID: job.OperationID,
			Operation:   job.Operation,
			SkillLabel:  job.SkillLabel,
			Metadata:    job.Metadata,
		})

		err := q.execute(a)

		q.mu.Lock()
		q.active = nil
		disposed := q.disposed
		q.mu.Unlock()
		if disposed {
			return
		}

		q.emitCompleted(buildResult(job, err))
	}
}

// execute wraps the single-attempt executor with retry. Only errors the
// classifier marks retryable are retried; everything else surfaces on the
// first occurrence.
func (q *Queue) execute(a *activeJob) error {
	_, err := retry.Do(func() (struct{}, error) {
		return struct{}{}, q.runAttempt(a)
	}, retry.Options{
		MaxRetries: q.opts.MaxRetries,
		BaseDelay:  q.opts.BaseDelay,
		Sleep:      q.opts.Sleep,
		ShouldRetry: func(err error) bool {
			var le *launch.Error
			return errors.As(err, &le) && le.Retryable
		},
		OnRetry: func(attempt, maxRetries int) {
			q.logger.Warn("retrying operation",
				"operationId", a.job.OperationID,
				"attempt", attempt,
				"maxRetries", maxRetries)
			q.emitProgress(ProgressEvent{
				OperationID: a.job.OperationID,
				Message:     fmt.Sprintf("Retrying %s (%d/%d)...", a.job.SkillLabel, attempt, maxRetries),
				Metadata:    a.job.Metadata,
			})
		},
	})
	return err
}

// runAttempt spawns the helper once, waits for completion, and classifies
// any failure.
func (q *Queue) runAttempt(a *activeJob) error {
	q.mu.Lock()
	if q.disposed || a.cancelled {
		q.mu.Unlock()
		return &launch.Error{Category: launch.CategoryCancelled, Message: "operation cancelled"}
	}
	q.mu.Unlock()

	handle, err := q.spawner.Spawn(a.job.Args, launch.SpawnOptions{
		Dir:         a.job.Dir,
		OperationID: a.job.OperationID,
	})
	if err != nil {
		// Argument validation failure: nothing was spawned.
		return &launch.Error{Category: launch.CategoryGeneric, Message: err.Error()}
	}

	q.mu.Lock()
	a.handle = handle
	if a.cancelled {
		// Cancel raced with the spawn; kill the fresh process.
		handle.Kill()
	}
	q.mu.Unlock()

	completion := handle.Wait()

	q.mu.Lock()
	a.handle = nil
	q.mu.Unlock()

	if completion.ExitCode == 0 && completion.Signal == "" {
		return nil
	}
	return launch.Classify(completion.Stderr, completion.ExitCode, completion.Signal)
}

// buildResult maps the terminal error (or nil) to a Result.
func buildResult(job *Job, err error) Result {
	result := Result{
		OperationID: job.OperationID,
		Operation:   job.Operation,
		SkillLabel:  job.SkillLabel,
		Metadata:    job.Metadata,
	}
	if err == nil {
		result.Status = StatusCompleted
		return result
	}

	var le *launch.Error
	if errors.As(err, &le) && le.Category == launch.CategoryCancelled {
		result.Status = StatusCancelled
		return result
	}

	result.Status = StatusError
	result.ErrorMessage = err.Error()
	result.Failure = le
	return result
}

func (q *Queue) emitStarted(event StartedEvent) {
	q.mu.Lock()
	handlers := append([]func(StartedEvent){}, q.startedHandlers...)
	q.mu.Unlock()
	for _, fn := range handlers {
		fn(event)
	}
}

func (q *Queue) emitProgress(event ProgressEvent) {
	q.mu.Lock()
	handlers := append([]func(ProgressEvent){}, q.progressHandlers...)
	q.mu.Unlock()
	for _, fn := range handlers {
		fn(event)
	}
}

func (q *Queue) emitCompleted(result Result) {
	q.mu.Lock()
	handlers := append([]func(Result){}, q.completedHandlers...)
	q.mu.Unlock()
	for _, fn := range handlers {
		fn(result)
	}
}
