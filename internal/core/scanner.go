package core

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkerFile is the file whose presence at the expected path confirms a
// skill is correctly installed for a given agent and scope.
const MarkerFile = "SKILL.md"

// Scanner scans agent skill directories for installed skills.
type Scanner struct {
	agents []AgentDef
}

// NewScanner creates a Scanner with the given agent definitions.
func NewScanner(agents []AgentDef) *Scanner {
	return &Scanner{agents: agents}
}

// ScanOptions restricts a scan to specific scopes.
type ScanOptions struct {
	IncludeLocal  bool
	IncludeGlobal bool
}

// Scan walks every agent's skill directories and returns the installed
// skills keyed by name. Local directories are resolved relative to
// workspaceRoot and skipped when it is empty. A skill directory whose
// SKILL.md cannot be parsed is recorded with a nil entry so callers can
// still see that something occupies the name.
func (s *Scanner) Scan(workspaceRoot string, opts ScanOptions) (InstalledSkillsMap, error) {
	installed := make(InstalledSkillsMap)

	for _, agent := range s.agents {
		if opts.IncludeLocal && workspaceRoot != "" {
			dir := ResolveAgentSkillsDir(agent, workspaceRoot)
			if err := s.scanDir(installed, agent, ScopeLocal, dir); err != nil {
				return nil, fmt.Errorf("scanning %s local skills: %w", agent.DisplayName, err)
			}
		}
		if opts.IncludeGlobal {
			dir := ResolveAgentGlobalSkillsDir(agent)
			if err := s.scanDir(installed, agent, ScopeGlobal, dir); err != nil {
				return nil, fmt.Errorf("scanning %s global skills: %w", agent.DisplayName, err)
			}
		}
	}

	return installed, nil
}

// scanDir reads one agent skill directory and merges findings into installed.
func (s *Scanner) scanDir(installed InstalledSkillsMap, agent AgentDef, scope Scope, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // agent has no skills here
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()

		metadata, err := ParseSkillMd(filepath.Join(dir, name, MarkerFile))
		if err != nil {
			if _, seen := installed[name]; !seen {
				installed[name] = nil
			}
			continue
		}

		skill := installed[name]
		if skill == nil {
			skill = &InstalledSkill{
				Name:        name,
				Description: metadata.Description,
				Version:     metadata.Metadata.Version,
			}
			installed[name] = skill
		}
		skill.Agents = appendUnique(skill.Agents, agent.Name)
		skill.Scopes = appendUniqueScope(skill.Scopes, scope)
	}
	return nil
}

// ParseSkillMd reads and parses the YAML frontmatter from a SKILL.md file.
func ParseSkillMd(path string) (*SkillMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	// Look for opening ---
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty file: %s", path)
	}
	if strings.TrimSpace(scanner.Text()) != "---" {
		return nil, fmt.Errorf("no frontmatter in %s", path)
	}

	// Collect frontmatter lines until closing ---
	var frontmatter strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			break
		}
		frontmatter.WriteString(line)
		frontmatter.WriteString("\n")
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var metadata SkillMetadata
	if err := yaml.Unmarshal([]byte(frontmatter.String()), &metadata); err != nil {
		return nil, fmt.Errorf("parsing frontmatter in %s: %w", path, err)
	}

	if metadata.Name == "" {
		return nil, fmt.Errorf("SKILL.md missing name field: %s", path)
	}

	return &metadata, nil
}

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}

func appendUniqueScope(list []Scope, v Scope) []Scope {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}
