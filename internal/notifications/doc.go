// Package notifications pushes run outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// the pipeline can always call it unconditionally.
package notifications
