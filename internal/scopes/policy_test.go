package scopes

import (
	"reflect"
	"testing"

	"github.com/featherline/quill/internal/core"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		input         Input
		wantEffective []core.Scope
		wantBlocked   BlockedReason
	}{
		{
			name:          "all scopes in a trusted workspace",
			input:         Input{AllowedScopes: core.ScopeSettingAll, IsWorkspaceTrusted: true, HasWorkspaceFolder: true},
			wantEffective: []core.Scope{core.ScopeLocal, core.ScopeGlobal},
		},
		{
			name:          "untrusted workspace drops local",
			input:         Input{AllowedScopes: core.ScopeSettingAll, IsWorkspaceTrusted: false, HasWorkspaceFolder: true},
			wantEffective: []core.Scope{core.ScopeGlobal},
		},
		{
			name:          "no workspace folder drops local",
			input:         Input{AllowedScopes: core.ScopeSettingAll, IsWorkspaceTrusted: true, HasWorkspaceFolder: false},
			wantEffective: []core.Scope{core.ScopeGlobal},
		},
		{
			name:          "global-only setting",
			input:         Input{AllowedScopes: core.ScopeSettingGlobal, IsWorkspaceTrusted: true, HasWorkspaceFolder: true},
			wantEffective: []core.Scope{core.ScopeGlobal},
		},
		{
			name:          "local-only in a trusted workspace",
			input:         Input{AllowedScopes: core.ScopeSettingLocal, IsWorkspaceTrusted: true, HasWorkspaceFolder: true},
			wantEffective: []core.Scope{core.ScopeLocal},
		},
		{
			name:        "local-only in an untrusted workspace is blocked for trust",
			input:       Input{AllowedScopes: core.ScopeSettingLocal, IsWorkspaceTrusted: false, HasWorkspaceFolder: true},
			wantBlocked: BlockedWorkspaceUntrusted,
		},
		{
			name:        "local-only without a workspace is blocked for presence",
			input:       Input{AllowedScopes: core.ScopeSettingLocal, IsWorkspaceTrusted: true, HasWorkspaceFolder: false},
			wantBlocked: BlockedWorkspaceMissing,
		},
		{
			// Trust is the more actionable explanation, so it is reported
			// even when the workspace is also missing.
			name:        "trust outranks presence in the blocked reason",
			input:       Input{AllowedScopes: core.ScopeSettingLocal, IsWorkspaceTrusted: false, HasWorkspaceFolder: false},
			wantBlocked: BlockedWorkspaceUntrusted,
		},
		{
			name:        "setting none blocks everything",
			input:       Input{AllowedScopes: core.ScopeSettingNone, IsWorkspaceTrusted: true, HasWorkspaceFolder: true},
			wantBlocked: BlockedSettingNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := Evaluate(tt.input)
			if !reflect.DeepEqual(eval.EffectiveScopes, tt.wantEffective) {
				t.Errorf("effective = %v, want %v", eval.EffectiveScopes, tt.wantEffective)
			}
			if eval.BlockedReason != tt.wantBlocked {
				t.Errorf("blocked = %q, want %q", eval.BlockedReason, tt.wantBlocked)
			}
			if len(eval.EffectiveScopes) > 0 && eval.BlockedReason != "" {
				t.Error("blocked reason must be empty when scopes are available")
			}
		})
	}
}

func TestEvaluateEnvironmentScopes(t *testing.T) {
	eval := Evaluate(Input{AllowedScopes: core.ScopeSettingNone, IsWorkspaceTrusted: true, HasWorkspaceFolder: true})
	want := []core.Scope{core.ScopeLocal, core.ScopeGlobal}
	if !reflect.DeepEqual(eval.EnvironmentScopes, want) {
		t.Errorf("environment = %v, want %v regardless of the setting", eval.EnvironmentScopes, want)
	}
}
