// Package plan translates a user-facing batch selection into the concrete
// helper CLI invocations that realize it.
package plan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/featherline/quill/internal/core"
)

// Mode signals whether one call covers the whole batch or the planner had
// to split it to emulate missing batch support in the helper CLI.
type Mode string

const (
	ModeNativeBatch   Mode = "native-batch"
	ModeEmulatedBatch Mode = "emulated-batch"
)

// BatchSelection is a user-facing batch request.
type BatchSelection struct {
	Action    core.Operation
	Skills    []string
	Agents    []string
	Scope     core.Scope // scope hint; ScopeAll expands to local then global
	UpdateAll bool       // update everything, ignoring Skills
}

// Capabilities describes the helper CLI's feature set. Flags are injected
// rather than hard-coded so the planner adapts when the tool changes.
type Capabilities struct {
	UpdateAllSupported   bool
	UpdateVariadicSkills bool
}

// Invocation is one concrete helper CLI call. It maps 1:1 to a future
// queued job.
type Invocation struct {
	Operation  core.Operation
	Args       []string
	Scope      core.Scope // local, global or auto
	Agents     []string
	SkillNames []string
}

// InvocationPlan is the ordered list of invocations for one batch.
type InvocationPlan struct {
	BatchID     string
	Mode        Mode
	Invocations []Invocation
	Notes       []string
}

// Batch turns a selection into an invocation plan. It is pure and
// deterministic apart from the generated batch id.
func Batch(selection BatchSelection, caps Capabilities) (*InvocationPlan, error) {
	p := &InvocationPlan{
		BatchID: uuid.NewString(),
		Mode:    ModeNativeBatch,
	}

	switch selection.Action {
	case core.OperationInstall, core.OperationRemove:
		if len(selection.Skills) == 0 {
			return nil, fmt.Errorf("%s requires at least one skill", selection.Action)
		}
		verb := "install"
		if selection.Action == core.OperationRemove {
			verb = "remove"
		}
		for _, scope := range expandScope(selection.Scope) {
			p.Invocations = append(p.Invocations, buildInvocation(
				selection.Action, []string{verb}, scope, selection))
		}

	case core.OperationUpdate:
		if err := planUpdate(p, selection, caps); err != nil {
			return nil, err
		}

	case core.OperationRepair:
		if len(selection.Skills) == 0 {
			return nil, fmt.Errorf("repair requires at least one skill")
		}
		// Repair is a forced re-install.
		for _, scope := range expandScope(selection.Scope) {
			p.Invocations = append(p.Invocations, buildInvocation(
				core.OperationRepair, []string{"install", "-f"}, scope, selection))
		}

	default:
		return nil, fmt.Errorf("unknown action %q", selection.Action)
	}

	return p, nil
}

// planUpdate handles the update action, emulating per-skill invocations
// when the helper CLI cannot take multiple skills in one call.
func planUpdate(p *InvocationPlan, selection BatchSelection, caps Capabilities) error {
	if selection.UpdateAll {
		if !caps.UpdateAllSupported {
			return fmt.Errorf("the helper CLI does not support updating everything at once")
		}
		p.Invocations = append(p.Invocations, Invocation{
			Operation: core.OperationUpdate,
			Args:      []string{"update"},
			Scope:     selection.Scope,
		})
		return nil
	}

	if len(selection.Skills) == 0 {
		return fmt.Errorf("update requires at least one skill or the update-all flag")
	}

	if len(selection.Skills) > 1 && !caps.UpdateVariadicSkills {
		// The helper CLI has no native multi-skill update; emit one
		// sequential call per skill instead.
		p.Mode = ModeEmulatedBatch
		p.Notes = append(p.Notes, fmt.Sprintf(
			"helper CLI updates one skill per call; splitting %d skills into sequential invocations",
			len(selection.Skills)))
		for _, skill := range selection.Skills {
			p.Invocations = append(p.Invocations, Invocation{
				Operation:  core.OperationUpdate,
				Args:       []string{"update", "-s", skill},
				Scope:      selection.Scope,
				SkillNames: []string{skill},
			})
		}
		return nil
	}

	args := append([]string{"update", "-s"}, selection.Skills...)
	p.Invocations = append(p.Invocations, Invocation{
		Operation:  core.OperationUpdate,
		Args:       args,
		Scope:      selection.Scope,
		SkillNames: selection.Skills,
	})
	return nil
}

// buildInvocation assembles one install-shaped invocation: the verb prefix,
// skill selection, agent selection, and a -g flag for the global scope.
func buildInvocation(op core.Operation, verb []string, scope core.Scope, selection BatchSelection) Invocation {
	args := append([]string{}, verb...)
	args = append(args, "-s")
	args = append(args, selection.Skills...)
	if len(selection.Agents) > 0 {
		args = append(args, "-a")
		args = append(args, selection.Agents...)
	}
	if scope == core.ScopeGlobal {
		args = append(args, "-g")
	}
	return Invocation{
		Operation:  op,
		Args:       args,
		Scope:      scope,
		Agents:     selection.Agents,
		SkillNames: selection.Skills,
	}
}

// expandScope resolves a scope hint into concrete invocation scopes.
// ScopeAll becomes local then global; everything else passes through.
func expandScope(scope core.Scope) []core.Scope {
	if scope == core.ScopeAll {
		return []core.Scope{core.ScopeLocal, core.ScopeGlobal}
	}
	if scope == "" {
		return []core.Scope{core.ScopeAuto}
	}
	return []core.Scope{scope}
}
