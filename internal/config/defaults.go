package config

import (
	"runtime"
	"time"

	sstrings "github.com/sortomatic/sortomatic/internal/strings"
)

// Default builds the built-in fallback Settings, used before any file is
// read. Values are ported from original_source/core/config.py's
// Settings.__init__ defaults.
func Default() Settings {
	s := Settings{
		MaxWorkers:                max(1, (runtime.NumCPU()+1)/2),
		BatchSize:                 1000,
		HashingChunkSize:          1 << 20, // 1 MiB
		FastHashSize:              4 << 10, // 4 KiB
		HashingTimeoutSecs:        60.0,
		CategorizationTimeoutSecs: 1.0,
		Categories:                defaultCategories(),
		Ignore:                    []string{".git", "__pycache__", ".DS_Store", "node_modules", ".venv", ".sortomatic"},
		AtomicMarkers:             []string{".git", ".hg", "Makefile", "package.json", "requirements.txt", "venv"},
	}
	s.applyDerived()
	return s
}

// applyDerived recomputes the time.Duration fields from their float-seconds
// counterparts. Called after any field assignment that might have changed
// *TimeoutSecs (file load, override).
func (s *Settings) applyDerived() {
	s.HashingTimeout = time.Duration(s.HashingTimeoutSecs * float64(time.Second))
	s.CategorizationTimeout = time.Duration(s.CategorizationTimeoutSecs * float64(time.Second))
}

func defaultCategories() map[string][]string {
	return map[string][]string{
		sstrings.CatImage:    {"jpg", "jpeg", "png", "gif", "bmp", "tiff", "heic", "svg"},
		sstrings.CatVideo:    {"mp4", "mkv", "avi", "mov", "wmv", "flv", "webm"},
		sstrings.CatDocument: {"pdf", "doc", "docx", "txt", "md", "xls", "xlsx", "ppt", "pptx"},
		sstrings.CatMusic:    {"mp3", "wav", "flac", "aac", "ogg", "m4a"},
		sstrings.CatArchive:  {"zip", "rar", "7z", "tar", "gz"},
		sstrings.CatCode:     {"py", "js", "html", "css", "json", "xml", "c", "cpp", "h", "java", "go", "rs", "sh", "bat", "ps1"},
		sstrings.Cat3D:       {"obj", "stl", "fbx", "blend", "dae", "3ds", "step", "stp"},
		sstrings.CatSoftware: {"exe", "msi", "app", "deb", "rpm", "dmg", "iso", "bin"},
	}
}
