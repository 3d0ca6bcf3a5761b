// Package subprocess launches external tools and streams their merged
// stdout/stderr line by line.
//
// Runner.Execute owns exactly one OS process per call. It forwards each line to
// the caller synchronously, polls a cancellation token between lines, and
// terminates the whole process group (SIGTERM, then SIGKILL after a grace
// period) once the token trips. Non-zero exits are reported as a typed
// ExitStatus rather than an error so callers can word failures per stage.
package subprocess
