// Package scopes combines the user's scope-allow setting with environment
// facts into the effective set of scopes mutations may target.
package scopes

import "github.com/featherline/quill/internal/core"

// BlockedReason explains why no scope is currently usable.
type BlockedReason string

const (
	// BlockedSettingNone means the user explicitly disabled all scopes.
	BlockedSettingNone BlockedReason = "setting-none"
	// BlockedWorkspaceUntrusted means local-only was requested but the
	// workspace is not trusted.
	BlockedWorkspaceUntrusted BlockedReason = "workspace-untrusted"
	// BlockedWorkspaceMissing means local-only was requested but no
	// workspace folder is open.
	BlockedWorkspaceMissing BlockedReason = "workspace-missing"
	// BlockedLocalUnavailable means local-only was requested but the
	// environment disallows local writes for another reason.
	BlockedLocalUnavailable BlockedReason = "local-unavailable"
)

// Input carries the user setting and host-supplied environment facts.
type Input struct {
	AllowedScopes      core.ScopeSetting
	IsWorkspaceTrusted bool
	HasWorkspaceFolder bool
}

// Evaluation is the recomputed policy outcome. EffectiveScopes is always a
// subset of both EnvironmentScopes and the scopes implied by the setting.
type Evaluation struct {
	AllowedScopes     core.ScopeSetting
	EnvironmentScopes []core.Scope
	EffectiveScopes   []core.Scope
	BlockedReason     BlockedReason // empty unless EffectiveScopes is empty
}

// Evaluate computes the effective scopes. Untrusted or missing workspaces
// may never be written to locally, so the environment allows local only
// when the workspace is both trusted and present.
func Evaluate(input Input) Evaluation {
	envScopes := []core.Scope{core.ScopeGlobal}
	if input.IsWorkspaceTrusted && input.HasWorkspaceFolder {
		envScopes = []core.Scope{core.ScopeLocal, core.ScopeGlobal}
	}

	allowed := impliedScopes(input.AllowedScopes)
	effective := intersect(envScopes, allowed)

	eval := Evaluation{
		AllowedScopes:     input.AllowedScopes,
		EnvironmentScopes: envScopes,
		EffectiveScopes:   effective,
	}
	if len(effective) == 0 {
		eval.BlockedReason = blockedReason(input)
	}
	return eval
}

// impliedScopes maps the setting to the scopes it permits.
func impliedScopes(setting core.ScopeSetting) []core.Scope {
	switch setting {
	case core.ScopeSettingGlobal:
		return []core.Scope{core.ScopeGlobal}
	case core.ScopeSettingLocal:
		return []core.Scope{core.ScopeLocal}
	case core.ScopeSettingNone:
		return nil
	default:
		return []core.Scope{core.ScopeLocal, core.ScopeGlobal}
	}
}

// blockedReason derives the most precise explanation for an empty effective
// set. Trust is checked before presence.
func blockedReason(input Input) BlockedReason {
	if input.AllowedScopes == core.ScopeSettingNone {
		return BlockedSettingNone
	}
	if !input.IsWorkspaceTrusted {
		return BlockedWorkspaceUntrusted
	}
	if !input.HasWorkspaceFolder {
		return BlockedWorkspaceMissing
	}
	return BlockedLocalUnavailable
}

// intersect keeps the scopes of a that also appear in b, preserving a's order.
func intersect(a, b []core.Scope) []core.Scope {
	inB := make(map[core.Scope]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	var out []core.Scope
	for _, s := range a {
		if inB[s] {
			out = append(out, s)
		}
	}
	return out
}
