package numexpr

// version is the engine release; buildDate/gitCommit are normally
// overridden at link time via -ldflags, the same build-stamping shape
// as the CLI's own version constant and buildDate variable.
const version = "0.1.0"

var (
	buildDate = "unknown"
	gitCommit = "unknown"
)

// Version returns the engine release string, e.g. "0.1.0
// (abc1234, 2026-07-29)" when build-stamped, or just "0.1.0" otherwise.
func Version() string {
	if gitCommit == "unknown" && buildDate == "unknown" {
		return version
	}
	return version + " (" + gitCommit + ", " + buildDate + ")"
}

// LastError returns the most recent diagnostic message set by a
// compile/evaluate call on the current process, and whether one is
// set. It is a thin re-export of internal/errors' last-message slot so
// callers never need to import internal/errors directly.
func LastError() (string, bool) {
	return lastError()
}
