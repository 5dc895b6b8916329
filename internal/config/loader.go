package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// loadSettingsFile parses settings.toml. Unknown keys warn rather than
// error, matching Harvx's forward-compatibility stance.
func loadSettingsFile(path string) (*settingsFile, error) {
	var f settingsFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	warnUndecodedKeys(meta, path)
	return &f, nil
}

// loadFiletypesFile parses filetypes.toml.
func loadFiletypesFile(path string) (*filetypesFile, error) {
	var f filetypesFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("parse filetypes %s: %w", path, err)
	}
	warnUndecodedKeys(meta, path)
	return &f, nil
}

func warnUndecodedKeys(meta toml.MetaData, source string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	slog.Warn("unknown config keys will be ignored", "source", source, "keys", strings.Join(keys, ", "))
}

// ensureConfigExists materializes the embedded default settings.toml and
// filetypes.toml into configDir if they're not already present. Ported from
// original_source/core/config.py's _ensure_config_exists, which copies
// package-bundled defaults into the user's config directory on first run.
func ensureConfigExists(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	defaults := map[string][]byte{
		"settings.toml":  defaultSettingsTOML,
		"filetypes.toml": defaultFiletypesTOML,
	}
	for name, contents := range defaults {
		dest := filepath.Join(configDir, name)
		if _, err := os.Stat(dest); err == nil {
			continue // already present
		}
		if err := os.WriteFile(dest, contents, 0o644); err != nil {
			return fmt.Errorf("write default %s: %w", name, err)
		}
	}
	return nil
}

// Load builds a Settings value by merging, in increasing precedence:
// built-in defaults, settings.toml, filetypes.toml, then overrides. It is
// explicit and safe to call again later (hot-reload); it must not be called
// concurrently with a running pass (spec.md §4.7).
func Load(configDir string, overrides Overrides) (Settings, SourceMap, error) {
	settings := Default()
	sources := make(SourceMap)
	for _, field := range []string{"max_workers", "batch_size", "hashing_chunk_size", "fast_hash_size",
		"hashing_timeout", "categorization_timeout", "categories", "ignore", "atomic_markers", "cache_dir"} {
		sources[field] = SourceDefault
	}
	settings.ConfigDir = configDir

	if err := ensureConfigExists(configDir); err != nil {
		return Settings{}, nil, err
	}

	settingsPath := filepath.Join(configDir, "settings.toml")
	if _, err := os.Stat(settingsPath); err == nil {
		sf, err := loadSettingsFile(settingsPath)
		if err != nil {
			return Settings{}, nil, err
		}
		mergeSettingsFile(&settings, sf, sources)
	}

	filetypesPath := filepath.Join(configDir, "filetypes.toml")
	if _, err := os.Stat(filetypesPath); err == nil {
		ff, err := loadFiletypesFile(filetypesPath)
		if err != nil {
			return Settings{}, nil, err
		}
		mergeFiletypesFile(&settings, ff, sources)
	}

	mergeOverrides(&settings, overrides, sources)
	settings.applyDerived()

	return settings, sources, nil
}
