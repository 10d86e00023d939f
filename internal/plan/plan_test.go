package plan

import (
	"reflect"
	"testing"

	"github.com/featherline/quill/internal/core"
)

func TestBatchInstall(t *testing.T) {
	selection := BatchSelection{
		Action: core.OperationInstall,
		Skills: []string{"seo", "access"},
		Agents: []string{"cursor"},
		Scope:  core.ScopeLocal,
	}

	p, err := Batch(selection, Capabilities{})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if p.BatchID == "" {
		t.Error("expected a batch id")
	}
	if p.Mode != ModeNativeBatch {
		t.Errorf("mode = %q, want native", p.Mode)
	}
	if len(p.Invocations) != 1 {
		t.Fatalf("invocations = %d, want 1", len(p.Invocations))
	}

	want := []string{"install", "-s", "seo", "access", "-a", "cursor"}
	if !reflect.DeepEqual(p.Invocations[0].Args, want) {
		t.Errorf("args = %v, want %v", p.Invocations[0].Args, want)
	}
}

func TestBatchInstallGlobalAppendsFlag(t *testing.T) {
	p, err := Batch(BatchSelection{
		Action: core.OperationInstall,
		Skills: []string{"seo", "access"},
		Agents: []string{"cursor"},
		Scope:  core.ScopeGlobal,
	}, Capabilities{})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	want := []string{"install", "-s", "seo", "access", "-a", "cursor", "-g"}
	if !reflect.DeepEqual(p.Invocations[0].Args, want) {
		t.Errorf("args = %v, want %v", p.Invocations[0].Args, want)
	}
}

func TestBatchScopeAllExpandsToLocalThenGlobal(t *testing.T) {
	p, err := Batch(BatchSelection{
		Action: core.OperationInstall,
		Skills: []string{"seo"},
		Scope:  core.ScopeAll,
	}, Capabilities{})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(p.Invocations) != 2 {
		t.Fatalf("invocations = %d, want 2", len(p.Invocations))
	}
	if p.Invocations[0].Scope != core.ScopeLocal || p.Invocations[1].Scope != core.ScopeGlobal {
		t.Errorf("scopes = %v, %v; want local then global",
			p.Invocations[0].Scope, p.Invocations[1].Scope)
	}
	if got := p.Invocations[1].Args[len(p.Invocations[1].Args)-1]; got != "-g" {
		t.Errorf("global invocation must end with -g, got %v", p.Invocations[1].Args)
	}
}

func TestBatchRemove(t *testing.T) {
	p, err := Batch(BatchSelection{
		Action: core.OperationRemove,
		Skills: []string{"seo"},
		Scope:  core.ScopeLocal,
	}, Capabilities{})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	want := []string{"remove", "-s", "seo"}
	if !reflect.DeepEqual(p.Invocations[0].Args, want) {
		t.Errorf("args = %v, want %v", p.Invocations[0].Args, want)
	}
}

func TestBatchRepairForcesReinstall(t *testing.T) {
	p, err := Batch(BatchSelection{
		Action: core.OperationRepair,
		Skills: []string{"seo"},
		Agents: []string{"cursor"},
		Scope:  core.ScopeLocal,
	}, Capabilities{})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	want := []string{"install", "-f", "-s", "seo", "-a", "cursor"}
	if !reflect.DeepEqual(p.Invocations[0].Args, want) {
		t.Errorf("args = %v, want %v", p.Invocations[0].Args, want)
	}
	if p.Invocations[0].Operation != core.OperationRepair {
		t.Errorf("operation = %q, want repair", p.Invocations[0].Operation)
	}
}

func TestBatchUpdateEmulatesPerSkillCalls(t *testing.T) {
	p, err := Batch(BatchSelection{
		Action: core.OperationUpdate,
		Skills: []string{"seo", "access"},
		Scope:  core.ScopeAuto,
	}, Capabilities{UpdateVariadicSkills: false})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	if p.Mode != ModeEmulatedBatch {
		t.Errorf("mode = %q, want emulated", p.Mode)
	}
	if len(p.Notes) == 0 {
		t.Error("expected a note explaining the split")
	}
	if len(p.Invocations) != 2 {
		t.Fatalf("invocations = %d, want 2", len(p.Invocations))
	}
	for i, skill := range []string{"seo", "access"} {
		want := []string{"update", "-s", skill}
		if !reflect.DeepEqual(p.Invocations[i].Args, want) {
			t.Errorf("invocation %d args = %v, want %v", i, p.Invocations[i].Args, want)
		}
	}
}

func TestBatchUpdateVariadic(t *testing.T) {
	p, err := Batch(BatchSelection{
		Action: core.OperationUpdate,
		Skills: []string{"seo", "access"},
	}, Capabilities{UpdateVariadicSkills: true})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	if p.Mode != ModeNativeBatch {
		t.Errorf("mode = %q, want native", p.Mode)
	}
	want := []string{"update", "-s", "seo", "access"}
	if !reflect.DeepEqual(p.Invocations[0].Args, want) {
		t.Errorf("args = %v, want %v", p.Invocations[0].Args, want)
	}
}

func TestBatchUpdateAll(t *testing.T) {
	p, err := Batch(BatchSelection{
		Action:    core.OperationUpdate,
		UpdateAll: true,
	}, Capabilities{UpdateAllSupported: true})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(p.Invocations) != 1 || !reflect.DeepEqual(p.Invocations[0].Args, []string{"update"}) {
		t.Errorf("invocations = %+v, want a single bare update", p.Invocations)
	}

	if _, err := Batch(BatchSelection{
		Action:    core.OperationUpdate,
		UpdateAll: true,
	}, Capabilities{}); err == nil {
		t.Error("expected an error when update-all is unsupported")
	}
}

func TestBatchValidation(t *testing.T) {
	tests := []struct {
		name      string
		selection BatchSelection
	}{
		{"install without skills", BatchSelection{Action: core.OperationInstall}},
		{"remove without skills", BatchSelection{Action: core.OperationRemove}},
		{"repair without skills", BatchSelection{Action: core.OperationRepair}},
		{"update without skills or all", BatchSelection{Action: core.OperationUpdate}},
		{"unknown action", BatchSelection{Action: core.Operation("upgrade")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Batch(tt.selection, Capabilities{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
