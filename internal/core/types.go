// Package core provides the shared domain types for Quill.
// It has zero UI dependencies and is independently testable.
package core

// Operation is a mutating action performed through the helper CLI.
type Operation string

const (
	OperationInstall Operation = "install"
	OperationRemove  Operation = "remove"
	OperationUpdate  Operation = "update"
	OperationRepair  Operation = "repair"
)

// Scope is an installation target.
type Scope string

const (
	// ScopeLocal installs into a project-specific directory.
	ScopeLocal Scope = "local"
	// ScopeGlobal installs into the user-wide directory.
	ScopeGlobal Scope = "global"
	// ScopeAuto lets the helper CLI pick the target.
	ScopeAuto Scope = "auto"
	// ScopeAll is a selection hint that expands to local plus global.
	ScopeAll Scope = "all"
)

// ScopeSetting is the user-facing scope-allow setting.
type ScopeSetting string

const (
	ScopeSettingAll    ScopeSetting = "all"
	ScopeSettingGlobal ScopeSetting = "global"
	ScopeSettingLocal  ScopeSetting = "local"
	ScopeSettingNone   ScopeSetting = "none"
)

// AgentDef defines an AI coding agent and its skill directory conventions.
type AgentDef struct {
	Name            string   `yaml:"name"`
	DisplayName     string   `yaml:"displayName"`
	SkillsDir       string   `yaml:"skillsDir"`       // Project-relative skill directory (e.g. ".cursor/skills")
	GlobalSkillsDir string   `yaml:"globalSkillsDir"` // Global skill directory (e.g. "~/.cursor/skills")
	DetectPaths     []string `yaml:"detectPaths"`     // Paths whose presence indicates the agent is used
}

// SkillMetadata is the YAML frontmatter parsed from a SKILL.md file.
type SkillMetadata struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	License     string               `yaml:"license,omitempty"`
	Metadata    SkillMetadataDetails `yaml:"metadata,omitempty"`
}

// SkillMetadataDetails holds optional metadata fields from SKILL.md frontmatter.
type SkillMetadataDetails struct {
	Author  string `yaml:"author,omitempty"`
	Version string `yaml:"version,omitempty"`
}

// InstalledSkill describes one skill found on disk.
type InstalledSkill struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Agents      []string `json:"agents"` // Agent names that have this skill
	Scopes      []Scope  `json:"scopes"` // Scopes the skill was found in
}

// InstalledSkillsMap maps skill name to installation info. A nil entry means
// the skill directory exists but its SKILL.md could not be parsed.
type InstalledSkillsMap map[string]*InstalledSkill
