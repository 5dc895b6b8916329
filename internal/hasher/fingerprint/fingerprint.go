// Package fingerprint is the acoustic-fingerprint capability seam for Music
// category files. No fingerprint library is grounded anywhere in the
// retrieval pack (searched for goimagehash, dhowden/tag, go-audio,
// mewkiz/flac, faiface/beep, Chromaprint bindings — none present), so this
// build always reports the capability unavailable. The Hasher degrades to
// its generic fast-hash path for Music files in that case, which is
// exactly the behavior original_source/core/pipeline/passes/hashing.py
// falls back to when its own `import acoustid` fails.
package fingerprint

// Available reports whether acoustic fingerprinting is wired into this
// build.
func Available() bool { return false }

// Fingerprint computes an acoustic fingerprint for path. Never called when
// Available() is false; exists so a future build that does wire in a
// Chromaprint binding has a stable call site to target.
func Fingerprint(path string) (string, error) {
	return "", errUnavailable
}

type unavailableError struct{}

func (unavailableError) Error() string { return "fingerprint: no acoustic fingerprint backend is wired in this build" }

var errUnavailable = unavailableError{}
