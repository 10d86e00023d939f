package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/featherline/quill/internal/core"
	"github.com/featherline/quill/internal/launch"
	"github.com/featherline/quill/internal/lifecycle"
	"github.com/featherline/quill/internal/logging"
	"github.com/featherline/quill/internal/plan"
	"github.com/featherline/quill/internal/queue"
	"github.com/featherline/quill/internal/scopes"
	"github.com/featherline/quill/internal/verify"
)

// app wires the full operation stack for one CLI invocation.
type app struct {
	settings      core.Settings
	agents        []core.AgentDef
	workspaceRoot string
	policy        scopes.Evaluation
	queue         *queue.Queue
	orchestrator  *lifecycle.Orchestrator
	logger        *slog.Logger
}

// newApp builds the stack: settings, agent definitions, spawner, queue,
// verifier, and orchestrator. The working directory is the workspace root.
func newApp(autoRepair bool) (*app, error) {
	workspaceRoot, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	settings, err := core.LoadSettings(workspaceRoot)
	if err != nil {
		return nil, err
	}

	agents, err := core.LoadAgents()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(logging.WithLevel(level), logging.WithOutput(os.Stderr))

	spawner := launch.NewExecSpawner(settings.Launcher, settings.CLIPackage)
	q := queue.New(spawner, queue.Options{Logger: logger})
	verifier := verify.New(agents, logger)
	notifier := &consoleNotifier{autoRepair: autoRepair}

	orch := lifecycle.New(q, verifier, notifier, nil, lifecycle.Options{
		WorkspaceRoot: workspaceRoot,
		// skills-cli has a bare `update` verb but takes one -s skill per
		// call, so multi-skill updates are split by the planner.
		Capabilities: plan.Capabilities{UpdateAllSupported: true},
		Logger:       logger,
	})
	if _, err := exec.LookPath(settings.Launcher); err != nil {
		orch.SetHealthy(false)
	}

	policy := scopes.Evaluate(scopes.Input{
		AllowedScopes:      settings.AllowedScopes,
		IsWorkspaceTrusted: true,
		HasWorkspaceFolder: workspaceRoot != "",
	})

	return &app{
		settings:      settings,
		agents:        agents,
		workspaceRoot: workspaceRoot,
		policy:        policy,
		queue:         q,
		orchestrator:  orch,
		logger:        logger,
	}, nil
}

// checkScope rejects scope hints the policy does not currently allow.
func (a *app) checkScope(scope core.Scope) error {
	if a.policy.BlockedReason != "" {
		return fmt.Errorf("no scope is available: %s", blockedReasonMessage(a.policy.BlockedReason))
	}
	if scope == core.ScopeAuto || scope == core.ScopeAll {
		return nil
	}
	for _, s := range a.policy.EffectiveScopes {
		if s == scope {
			return nil
		}
	}
	return fmt.Errorf("scope %q is not allowed by the current settings (allowed: %s)",
		scope, a.settings.AllowedScopes)
}

func blockedReasonMessage(reason scopes.BlockedReason) string {
	switch reason {
	case scopes.BlockedSettingNone:
		return "skill management is disabled by the allowedScopes setting"
	case scopes.BlockedWorkspaceUntrusted:
		return "the workspace is not trusted"
	case scopes.BlockedWorkspaceMissing:
		return "no workspace folder is open"
	case scopes.BlockedLocalUnavailable:
		return "only workspace installs are allowed and no workspace is available"
	default:
		return string(reason)
	}
}

// runBatch invokes an orchestrator façade method and waits for every job in
// the returned plan to reach a terminal state. Repairs triggered by
// verification run in follow-up batches, so after the batch itself finishes
// we keep draining until the queue is idle.
func (a *app) runBatch(start func() (*plan.InvocationPlan, error)) error {
	results := make(chan queue.Result, 64)
	a.orchestrator.OnCompleted(func(r queue.Result) { results <- r })

	p, err := start()
	if err != nil {
		return err
	}

	var failed int
	for seen := 0; seen < len(p.Invocations); {
		r := <-results
		if r.Metadata == nil || r.Metadata.BatchID != p.BatchID {
			if r.Status == queue.StatusError {
				failed++
			}
			continue
		}
		seen++
		if r.Status == queue.StatusError {
			failed++
		}
	}

	// Drain any follow-up repair jobs before exiting.
	for !a.queue.Idle() {
		select {
		case r := <-results:
			if r.Status == queue.StatusError {
				failed++
			}
		case <-time.After(50 * time.Millisecond):
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d operations failed", failed, len(p.Invocations))
	}
	return nil
}

// consoleNotifier prints lifecycle notices to the terminal.
type consoleNotifier struct {
	autoRepair bool
}

func (n *consoleNotifier) Info(message string) {
	fmt.Println(message)
}

func (n *consoleNotifier) Warn(message string) {
	fmt.Fprintf(os.Stderr, "Warning: %s\n", message)
}

func (n *consoleNotifier) Error(message string, action *launch.Action) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	if action != nil {
		fmt.Fprintf(os.Stderr, "Hint: %s: %s\n", action.Label, action.Command)
	}
}

func (n *consoleNotifier) ConfirmRepair(skillName, detail string) bool {
	fmt.Fprintf(os.Stderr, "Warning: %s %s\n", skillName, detail)
	if n.autoRepair {
		fmt.Fprintf(os.Stderr, "Repairing %s...\n", skillName)
		return true
	}
	fmt.Fprintf(os.Stderr, "Run 'quill repair -s %s' to reinstall it.\n", skillName)
	return false
}

// parseScope validates a --scope flag value.
func parseScope(value string) (core.Scope, error) {
	switch core.Scope(value) {
	case core.ScopeLocal, core.ScopeGlobal, core.ScopeAuto, core.ScopeAll:
		return core.Scope(value), nil
	default:
		return "", fmt.Errorf("invalid scope %q (expected local, global, auto, or all)", value)
	}
}
