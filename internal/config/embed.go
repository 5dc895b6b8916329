package config

import _ "embed"

// Embedded default config files, materialized into ~/.config/sortomatic/ on
// first run by ensureConfigExists. Values mirror Default()/defaultCategories
// so a fresh install's files document exactly what's already in effect.

//go:embed defaultconfig/settings.toml
var defaultSettingsTOML []byte

//go:embed defaultconfig/filetypes.toml
var defaultFiletypesTOML []byte
