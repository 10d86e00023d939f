// Package verify checks that an install or repair actually left the
// expected marker files on disk.
package verify

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/featherline/quill/internal/core"
)

// Corruption names one agent/scope location whose marker file is missing.
type Corruption struct {
	Agent        string
	Scope        core.Scope
	ExpectedPath string
}

// Result is the outcome of one verification pass. It is computed fresh
// after every install/repair and never persisted.
type Result struct {
	OK        bool
	Corrupted []Corruption
}

// Verifier resolves expected marker paths from agent definitions.
type Verifier struct {
	agents map[string]core.AgentDef
	logger *slog.Logger
}

// New creates a Verifier for the given agent definitions.
func New(agents []core.AgentDef, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]core.AgentDef, len(agents))
	for _, a := range agents {
		byName[a.Name] = a
	}
	return &Verifier{agents: byName, logger: logger}
}

// Verify checks that the marker file exists at every targeted agent/scope
// location for the skill. A missing file is confirmed corruption; any other
// filesystem error is logged but not counted, to avoid false positives from
// transient I/O issues.
func (v *Verifier) Verify(skillName string, agents []string, scope core.Scope, workspaceRoot string) Result {
	result := Result{OK: true}

	for _, scope := range expandVerifyScope(scope, workspaceRoot) {
		for _, agentName := range agents {
			agent, ok := v.agents[agentName]
			if !ok {
				v.logger.Warn("skipping verification for unknown agent", "agent", agentName)
				continue
			}

			expectedPath, ok := v.expectedMarkerPath(agent, scope, skillName, workspaceRoot)
			if !ok {
				continue
			}

			_, err := os.Stat(expectedPath)
			switch {
			case err == nil:
				// marker present
			case os.IsNotExist(err):
				result.Corrupted = append(result.Corrupted, Corruption{
					Agent:        agentName,
					Scope:        scope,
					ExpectedPath: expectedPath,
				})
			default:
				v.logger.Warn("could not verify skill installation",
					"skill", skillName,
					"agent", agentName,
					"path", expectedPath,
					"error", err)
			}
		}
	}

	result.OK = len(result.Corrupted) == 0
	return result
}

// expectedMarkerPath resolves where the marker file should live. Local
// verification requires a workspace root and is skipped with a warning when
// it is absent.
func (v *Verifier) expectedMarkerPath(agent core.AgentDef, scope core.Scope, skillName, workspaceRoot string) (string, bool) {
	switch scope {
	case core.ScopeLocal:
		if workspaceRoot == "" {
			v.logger.Warn("skipping local verification without a workspace root",
				"skill", skillName, "agent", agent.Name)
			return "", false
		}
		return filepath.Join(core.ResolveAgentSkillsDir(agent, workspaceRoot), skillName, core.MarkerFile), true
	default:
		return filepath.Join(core.ResolveAgentGlobalSkillsDir(agent), skillName, core.MarkerFile), true
	}
}

// expandVerifyScope resolves which scopes to check. The "all" hint covers
// both; "auto" follows the helper's own default: local inside a workspace,
// global otherwise.
func expandVerifyScope(scope core.Scope, workspaceRoot string) []core.Scope {
	switch scope {
	case core.ScopeAll:
		return []core.Scope{core.ScopeLocal, core.ScopeGlobal}
	case core.ScopeAuto, "":
		if workspaceRoot != "" {
			return []core.Scope{core.ScopeLocal}
		}
		return []core.Scope{core.ScopeGlobal}
	default:
		return []core.Scope{scope}
	}
}
