// Package config loads sortomatic's typed settings and category rules from
// two layered files, with explicit hot-reload and CLI-flag overrides taking
// highest precedence. Grounded on Harvx's internal/config package (TOML via
// BurntSushi/toml, field-by-field merge, a Source enum for precedence
// tracking); option names and defaults are ported from
// original_source/core/config.py's Settings class.
package config

import "time"

// Settings is the typed settings record. Treated as immutable for the
// duration of a pass (spec.md §5's shared-resource policy).
type Settings struct {
	// Concurrency
	MaxWorkers int `toml:"max_workers"`
	BatchSize  int `toml:"batch_size"`

	// Hashing
	HashingChunkSize     int64         `toml:"hashing_chunk_size"`
	FastHashSize         int64         `toml:"fast_hash_size"`
	HashingTimeout       time.Duration `toml:"-"`
	HashingTimeoutSecs   float64       `toml:"hashing_timeout"`

	// Categorization
	CategorizationTimeout     time.Duration `toml:"-"`
	CategorizationTimeoutSecs float64       `toml:"categorization_timeout"`
	Categories                map[string][]string `toml:"categories"`
	Ignore                    []string             `toml:"ignore"`
	AtomicMarkers             []string             `toml:"atomic_markers"`

	// Paths
	CacheDir  string `toml:"cache_dir"`
	ConfigDir string `toml:"config_dir"`

	// ResetDB requests a fresh catalog on the next run; only ever set by a
	// CLI override (--reset), never by a file, mirroring the original's
	// reset_db flag.
	ResetDB bool `toml:"reset_db"`
}

// settingsFile is the TOML shape of settings.toml (a subset of Settings:
// category rules live in filetypes.toml instead).
type settingsFile struct {
	MaxWorkers                *int     `toml:"max_workers"`
	BatchSize                 *int     `toml:"batch_size"`
	HashingChunkSize          *int64   `toml:"hashing_chunk_size"`
	FastHashSize              *int64   `toml:"fast_hash_size"`
	HashingTimeoutSecs        *float64 `toml:"hashing_timeout"`
	CategorizationTimeoutSecs *float64 `toml:"categorization_timeout"`
	CacheDir                  *string  `toml:"cache_dir"`
}

// filetypesFile is the TOML shape of filetypes.toml.
type filetypesFile struct {
	Categories    map[string][]string `toml:"categories"`
	Ignore        []string            `toml:"ignore"`
	AtomicMarkers []string            `toml:"atomic_markers"`
}

// Overrides carries explicit CLI-flag values; a nil pointer field means
// "not specified on the command line" and does not override anything.
type Overrides struct {
	MaxWorkers *int
	Reset      *bool
}
