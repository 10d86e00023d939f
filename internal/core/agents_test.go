package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAgents(t *testing.T) {
	agents, err := LoadAgents()
	if err != nil {
		t.Fatalf("LoadAgents: %v", err)
	}
	if len(agents) == 0 {
		t.Fatal("no agents loaded")
	}

	byName := make(map[string]AgentDef)
	for _, a := range agents {
		if a.Name == "" || a.SkillsDir == "" || a.GlobalSkillsDir == "" {
			t.Errorf("incomplete definition: %+v", a)
		}
		if _, dup := byName[a.Name]; dup {
			t.Errorf("duplicate agent name %q", a.Name)
		}
		byName[a.Name] = a
	}

	cursor, ok := byName["cursor"]
	if !ok {
		t.Fatal("cursor agent missing")
	}
	if cursor.SkillsDir != ".cursor/skills" {
		t.Errorf("cursor skillsDir = %q", cursor.SkillsDir)
	}
}

func TestResolveAgentsByNames(t *testing.T) {
	agents, err := LoadAgents()
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := ResolveAgentsByNames(agents, []string{"cursor", "claude-code"})
	if err != nil {
		t.Fatalf("ResolveAgentsByNames: %v", err)
	}
	if len(resolved) != 2 || resolved[0].Name != "cursor" {
		t.Errorf("resolved = %+v", resolved)
	}

	if _, err := ResolveAgentsByNames(agents, []string{"vim"}); err == nil {
		t.Error("expected an error for an unknown agent")
	}
}

func TestDetectAgents(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	agents := []AgentDef{
		{Name: "present", SkillsDir: ".p/skills", GlobalSkillsDir: "~/.p/skills", DetectPaths: []string{"~/.p"}},
		{Name: "absent", SkillsDir: ".a/skills", GlobalSkillsDir: "~/.a/skills", DetectPaths: []string{"~/.a"}},
	}
	if err := os.MkdirAll(filepath.Join(home, ".p"), 0o755); err != nil {
		t.Fatal(err)
	}

	detected := DetectAgents(agents)
	if len(detected) != 1 || detected[0].Name != "present" {
		t.Errorf("detected = %+v, want only the present agent", detected)
	}
}

func TestResolveAgentGlobalSkillsDirExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CODEX_HOME", "/opt/codex")

	tests := []struct {
		dir  string
		want string
	}{
		{"~/.cursor/skills", filepath.Join(home, ".cursor/skills")},
		{"$CODEX_HOME/skills", "/opt/codex/skills"},
	}
	for _, tt := range tests {
		agent := AgentDef{Name: "x", GlobalSkillsDir: tt.dir}
		if got := ResolveAgentGlobalSkillsDir(agent); got != tt.want {
			t.Errorf("ResolveAgentGlobalSkillsDir(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}
