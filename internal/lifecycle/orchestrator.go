// Package lifecycle is the top-level façade over the operation pipeline:
// it plans batches, enqueues jobs, verifies install outcomes, and drives
// the offer-to-repair loop.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/featherline/quill/internal/core"
	"github.com/featherline/quill/internal/launch"
	"github.com/featherline/quill/internal/plan"
	"github.com/featherline/quill/internal/queue"
	"github.com/featherline/quill/internal/verify"
)

// ErrUnavailable is returned when mutations are attempted while the helper
// CLI is known to be unavailable.
var ErrUnavailable = errors.New("the skills CLI is unavailable")

// Notifier is the UI port for user-facing notices.
type Notifier interface {
	Info(message string)
	Warn(message string)
	Error(message string, action *launch.Action)
	// ConfirmRepair asks whether a possibly corrupted skill should be
	// reinstalled. Returning true triggers a repair for that skill.
	ConfirmRepair(skillName, detail string) bool
}

// ProgressHandle tracks a UI progress indicator for one operation.
type ProgressHandle interface {
	Dispose()
}

// ProgressSink creates progress handles. May be nil when the UI has no
// progress surface.
type ProgressSink interface {
	Begin(label string) ProgressHandle
}

// Options configures an Orchestrator.
type Options struct {
	WorkspaceRoot string
	Capabilities  plan.Capabilities
	Logger        *slog.Logger
}

// Orchestrator accepts user intents and runs them through the planner and
// the queue. All mutation is gated behind a health flag acting as a circuit
// breaker while the helper CLI is known unavailable.
type Orchestrator struct {
	queue    *queue.Queue
	verifier *verify.Verifier
	notifier Notifier
	progress ProgressSink
	opts     Options
	logger   *slog.Logger

	mu      sync.Mutex
	healthy bool
	// tracked is the arena of in-flight operations, keyed by operation id
	// and cleared on every terminal transition.
	tracked map[string]*trackedOperation
}

type trackedOperation struct {
	progress ProgressHandle
}

// New creates an Orchestrator wired to the given queue. The orchestrator
// subscribes to the queue's lifecycle events; UI layers subscribe through
// On* to receive them republished unchanged.
func New(q *queue.Queue, verifier *verify.Verifier, notifier Notifier, progress ProgressSink, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		queue:    q,
		verifier: verifier,
		notifier: notifier,
		progress: progress,
		opts:     opts,
		logger:   logger,
		healthy:  true,
		tracked:  make(map[string]*trackedOperation),
	}
	q.OnStarted(o.handleStarted)
	q.OnCompleted(o.handleCompleted)
	return o
}

// OnStarted republishes queue started events to a subscriber.
func (o *Orchestrator) OnStarted(fn func(queue.StartedEvent)) { o.queue.OnStarted(fn) }

// OnProgress republishes queue progress events to a subscriber.
func (o *Orchestrator) OnProgress(fn func(queue.ProgressEvent)) { o.queue.OnProgress(fn) }

// OnCompleted republishes queue completion events to a subscriber.
func (o *Orchestrator) OnCompleted(fn func(queue.Result)) { o.queue.OnCompleted(fn) }

// SetHealthy flips the circuit breaker gating all mutations.
func (o *Orchestrator) SetHealthy(healthy bool) {
	o.mu.Lock()
	o.healthy = healthy
	o.mu.Unlock()
}

// InstallMany installs skills for the given agents and scope hint.
func (o *Orchestrator) InstallMany(skills, agents []string, scope core.Scope) (*plan.InvocationPlan, error) {
	return o.run(plan.BatchSelection{
		Action: core.OperationInstall,
		Skills: skills,
		Agents: agents,
		Scope:  scope,
	})
}

// RemoveMany removes skills for the given agents and scope hint.
func (o *Orchestrator) RemoveMany(skills, agents []string, scope core.Scope) (*plan.InvocationPlan, error) {
	return o.run(plan.BatchSelection{
		Action: core.OperationRemove,
		Skills: skills,
		Agents: agents,
		Scope:  scope,
	})
}

// UpdateMany updates the given skills, or everything when updateAll is set.
func (o *Orchestrator) UpdateMany(skills []string, updateAll bool) (*plan.InvocationPlan, error) {
	return o.run(plan.BatchSelection{
		Action:    core.OperationUpdate,
		Skills:    skills,
		Scope:     core.ScopeAuto,
		UpdateAll: updateAll,
	})
}

// RepairMany force-reinstalls skills for the given agents and scope hint.
func (o *Orchestrator) RepairMany(skills, agents []string, scope core.Scope) (*plan.InvocationPlan, error) {
	return o.run(plan.BatchSelection{
		Action: core.OperationRepair,
		Skills: skills,
		Agents: agents,
		Scope:  scope,
	})
}

// Cancel cancels a queued or in-flight operation and disposes any progress
// handle tracking it.
func (o *Orchestrator) Cancel(operationID string) bool {
	o.clearTracked(operationID)
	return o.queue.Cancel(operationID)
}

// run plans one batch, enqueues the resulting invocations, and returns the
// plan so callers can correlate completion events by batch id.
func (o *Orchestrator) run(selection plan.BatchSelection) (*plan.InvocationPlan, error) {
	o.mu.Lock()
	healthy := o.healthy
	o.mu.Unlock()
	if !healthy {
		o.notifier.Error("The skills CLI is unavailable; install it and reload.", nil)
		return nil, ErrUnavailable
	}

	p, err := plan.Batch(selection, o.opts.Capabilities)
	if err != nil {
		return nil, err
	}

	for _, inv := range p.Invocations {
		o.queue.Enqueue(&queue.Job{
			OperationID: uuid.NewString(),
			Operation:   inv.Operation,
			SkillLabel:  skillLabel(inv),
			Args:        inv.Args,
			Dir:         o.workingDir(inv.Scope),
			Metadata: &queue.BatchMetadata{
				BatchID:    p.BatchID,
				BatchSize:  len(p.Invocations),
				SkillNames: inv.SkillNames,
				Scope:      inv.Scope,
				Agents:     inv.Agents,
			},
		})
	}
	return p, nil
}

// workingDir resolves the helper CLI's working directory from the scope:
// the workspace root for local, a home-directory fallback otherwise.
func (o *Orchestrator) workingDir(scope core.Scope) string {
	if scope == core.ScopeLocal && o.opts.WorkspaceRoot != "" {
		return o.opts.WorkspaceRoot
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func (o *Orchestrator) handleStarted(event queue.StartedEvent) {
	if o.progress == nil {
		return
	}
	handle := o.progress.Begin(fmt.Sprintf("%s %s", event.Operation, event.SkillLabel))
	o.mu.Lock()
	o.tracked[event.OperationID] = &trackedOperation{progress: handle}
	o.mu.Unlock()
}

func (o *Orchestrator) handleCompleted(result queue.Result) {
	o.clearTracked(result.OperationID)

	switch result.Status {
	case queue.StatusCompleted:
		o.handleSuccess(result)
	case queue.StatusCancelled:
		o.notifier.Info(fmt.Sprintf("Cancelled %s of %s.", result.Operation, result.SkillLabel))
	case queue.StatusError:
		var action *launch.Action
		if result.Failure != nil {
			action = result.Failure.Action
		}
		o.notifier.Error(fmt.Sprintf("Failed to %s %s: %s",
			result.Operation, result.SkillLabel, result.ErrorMessage), action)
	}
}

// handleSuccess verifies install/repair outcomes and offers a repair when
// marker files are missing. Corruption suppresses the generic success
// notice; it is a verification outcome, not a failure.
func (o *Orchestrator) handleSuccess(result queue.Result) {
	meta := result.Metadata
	verifiable := result.Operation == core.OperationInstall || result.Operation == core.OperationRepair
	if !verifiable || meta == nil || o.verifier == nil {
		o.notifier.Info(fmt.Sprintf("Finished %s of %s.", result.Operation, result.SkillLabel))
		return
	}

	var corruptedSkills []string
	for _, skill := range meta.SkillNames {
		v := o.verifier.Verify(skill, meta.Agents, meta.Scope, o.opts.WorkspaceRoot)
		if v.OK {
			continue
		}
		corruptedSkills = append(corruptedSkills, skill)
		o.logger.Warn("post-install verification failed",
			"skill", skill, "missing", len(v.Corrupted))

		detail := describeCorruption(v)
		if o.notifier.ConfirmRepair(skill, detail) {
			if _, err := o.RepairMany([]string{skill}, meta.Agents, meta.Scope); err != nil {
				o.notifier.Error(fmt.Sprintf("Could not start repair of %s: %s", skill, err), nil)
			}
		}
	}

	if len(corruptedSkills) == 0 {
		o.notifier.Info(fmt.Sprintf("Finished %s of %s.", result.Operation, result.SkillLabel))
	}
}

func (o *Orchestrator) clearTracked(operationID string) {
	o.mu.Lock()
	op := o.tracked[operationID]
	delete(o.tracked, operationID)
	o.mu.Unlock()
	if op != nil && op.progress != nil {
		op.progress.Dispose()
	}
}

// skillLabel is the human-readable subject of an invocation.
func skillLabel(inv plan.Invocation) string {
	if len(inv.SkillNames) == 0 {
		return "all skills"
	}
	if len(inv.SkillNames) == 1 {
		return inv.SkillNames[0]
	}
	return fmt.Sprintf("%d skills", len(inv.SkillNames))
}

// describeCorruption summarizes which locations are missing their marker.
func describeCorruption(v verify.Result) string {
	var locations []string
	for _, c := range v.Corrupted {
		locations = append(locations, fmt.Sprintf("%s (%s)", c.Agent, c.Scope))
	}
	return fmt.Sprintf("may be corrupted: marker file missing for %s", strings.Join(locations, ", "))
}
