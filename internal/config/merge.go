package config

// mergeSettingsFile applies settings.toml values over the current Settings,
// field by field, recording provenance in sources. Only present (non-nil)
// fields override — absent fields leave the lower-precedence value in
// place. Adapted from Harvx's mergeProfile field helpers.
func mergeSettingsFile(s *Settings, f *settingsFile, sources SourceMap) {
	mergeIntPtr(&s.MaxWorkers, f.MaxWorkers, sources, "max_workers")
	mergeIntPtr(&s.BatchSize, f.BatchSize, sources, "batch_size")
	mergeInt64Ptr(&s.HashingChunkSize, f.HashingChunkSize, sources, "hashing_chunk_size")
	mergeInt64Ptr(&s.FastHashSize, f.FastHashSize, sources, "fast_hash_size")
	mergeFloat64Ptr(&s.HashingTimeoutSecs, f.HashingTimeoutSecs, sources, "hashing_timeout")
	mergeFloat64Ptr(&s.CategorizationTimeoutSecs, f.CategorizationTimeoutSecs, sources, "categorization_timeout")
	mergeStringPtr(&s.CacheDir, f.CacheDir, sources, "cache_dir")
}

// mergeFiletypesFile applies filetypes.toml values over the current
// Settings. Unlike settings.toml's scalar fields, these are map/slice
// fields: presence of the key (non-nil/non-empty) replaces the whole
// collection, matching the original's `data.get("categories",
// self.categories)` replace-not-merge semantics.
func mergeFiletypesFile(s *Settings, f *filetypesFile, sources SourceMap) {
	if len(f.Categories) > 0 {
		s.Categories = f.Categories
		sources["categories"] = SourceFile
	}
	if len(f.Ignore) > 0 {
		s.Ignore = f.Ignore
		sources["ignore"] = SourceFile
	}
	if len(f.AtomicMarkers) > 0 {
		s.AtomicMarkers = f.AtomicMarkers
		sources["atomic_markers"] = SourceFile
	}
}

// mergeOverrides applies explicit CLI-flag values, the highest-precedence
// layer.
func mergeOverrides(s *Settings, o Overrides, sources SourceMap) {
	if o.MaxWorkers != nil {
		s.MaxWorkers = *o.MaxWorkers
		sources["max_workers"] = SourceFlag
	}
	if o.Reset != nil {
		s.ResetDB = *o.Reset
		sources["reset_db"] = SourceFlag
	}
}

func mergeIntPtr(dst *int, src *int, sources SourceMap, field string) {
	if src != nil {
		*dst = *src
		sources[field] = SourceFile
	}
}

func mergeInt64Ptr(dst *int64, src *int64, sources SourceMap, field string) {
	if src != nil {
		*dst = *src
		sources[field] = SourceFile
	}
}

func mergeFloat64Ptr(dst *float64, src *float64, sources SourceMap, field string) {
	if src != nil {
		*dst = *src
		sources[field] = SourceFile
	}
}

func mergeStringPtr(dst *string, src *string, sources SourceMap, field string) {
	if src != nil && *src != "" {
		*dst = *src
		sources[field] = SourceFile
	}
}
