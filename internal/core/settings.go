package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/tailscale/hujson"
)

const (
	configFileName = "config.json"

	// workspaceSettingsFile is the editor settings file checked for
	// per-workspace overrides. It is JSONC, so it goes through hujson.
	workspaceSettingsFile = ".vscode/settings.json"
)

// Settings holds user preferences for the operation lifecycle core.
type Settings struct {
	AllowedScopes ScopeSetting `json:"allowedScopes"`
	Launcher      string       `json:"launcher"`    // process launcher, e.g. "npx"
	CLIPackage    string       `json:"cliPackage"`  // helper CLI package invoked via the launcher
	RegistryURL   string       `json:"registryUrl"` // CDN catalog endpoint
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		AllowedScopes: ScopeSettingAll,
		Launcher:      "npx",
		CLIPackage:    "skills-cli",
		RegistryURL:   "https://registry.quill.dev/catalog.json",
	}
}

// ConfigDir returns the directory holding the global config file.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "quill")
}

// LoadSettings reads the global config and overlays any workspace
// settings.json values on top. Missing files yield defaults; a malformed
// file is an error rather than a silent fallback.
func LoadSettings(workspaceRoot string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(filepath.Join(ConfigDir(), configFileName))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return settings, fmt.Errorf("reading config: %w", err)
	}

	if workspaceRoot != "" {
		if err := overlayWorkspaceSettings(&settings, workspaceRoot); err != nil {
			return settings, err
		}
	}

	return settings, nil
}

// SaveSettings writes the global config, creating the directory if needed.
func SaveSettings(settings Settings) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Write atomically: write to temp file then rename
	path := filepath.Join(dir, configFileName)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// overlayWorkspaceSettings applies quill.* keys from the workspace's
// .vscode/settings.json. The file is JSONC (comments, trailing commas), so
// it is standardized through hujson before unmarshaling.
func overlayWorkspaceSettings(settings *Settings, workspaceRoot string) error {
	path := filepath.Join(workspaceRoot, workspaceSettingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading workspace settings: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("parsing workspace settings: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(standardized, &raw); err != nil {
		return fmt.Errorf("parsing workspace settings: %w", err)
	}

	overlayString := func(key string, dst *string) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("workspace setting %q: %w", key, err)
		}
		*dst = s
		return nil
	}

	var allowed string
	if err := overlayString("quill.allowedScopes", &allowed); err != nil {
		return err
	}
	if allowed != "" {
		settings.AllowedScopes = ScopeSetting(allowed)
	}
	if err := overlayString("quill.launcher", &settings.Launcher); err != nil {
		return err
	}
	if err := overlayString("quill.cliPackage", &settings.CLIPackage); err != nil {
		return err
	}
	return overlayString("quill.registryUrl", &settings.RegistryURL)
}
