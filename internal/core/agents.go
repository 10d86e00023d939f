package core

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed agents.yaml
var embeddedAgentsYAML []byte

// LoadAgents parses the embedded agent definitions.
func LoadAgents() ([]AgentDef, error) {
	var agents []AgentDef
	if err := yaml.Unmarshal(embeddedAgentsYAML, &agents); err != nil {
		return nil, fmt.Errorf("parsing agent definitions: %w", err)
	}
	return agents, nil
}

// DetectAgents returns the agents detected on this system.
// Detection checks whether agent-specific config directories exist.
func DetectAgents(agents []AgentDef) []AgentDef {
	var detected []AgentDef
	for _, agent := range agents {
		if isAgentDetected(agent) {
			detected = append(detected, agent)
		}
	}
	return detected
}

// ResolveAgentsByNames returns agents matching the given names.
// Returns an error if any name doesn't match a known agent.
func ResolveAgentsByNames(agents []AgentDef, names []string) ([]AgentDef, error) {
	agentMap := make(map[string]AgentDef, len(agents))
	for _, a := range agents {
		agentMap[a.Name] = a
	}

	var resolved []AgentDef
	for _, name := range names {
		agent, ok := agentMap[name]
		if !ok {
			var valid []string
			for _, a := range agents {
				valid = append(valid, a.Name)
			}
			return nil, fmt.Errorf("unknown agent %q; available: %s", name, strings.Join(valid, ", "))
		}
		resolved = append(resolved, agent)
	}
	return resolved, nil
}

// ResolveAgentSkillsDir resolves the project-level skill directory for an
// agent, relative to the given workspace root.
func ResolveAgentSkillsDir(agent AgentDef, workspaceRoot string) string {
	return filepath.Join(workspaceRoot, agent.SkillsDir)
}

// ResolveAgentGlobalSkillsDir resolves the global skill directory for an
// agent, expanding ~ and environment variables.
func ResolveAgentGlobalSkillsDir(agent AgentDef) string {
	return expandPath(agent.GlobalSkillsDir)
}

func isAgentDetected(agent AgentDef) bool {
	for _, p := range agent.DetectPaths {
		if dirExists(expandPath(p)) {
			return true
		}
	}
	return false
}
