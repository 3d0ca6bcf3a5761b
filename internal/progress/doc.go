// Package progress turns tool-specific progress output into a normalized
// (percent, detail) update.
//
// Both interpreters are pure and tolerant: malformed input yields "no update"
// rather than an error.
package progress
