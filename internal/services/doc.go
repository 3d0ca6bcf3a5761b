// Package services defines shared utilities consumed by the pipeline stages and
// the external tool integrations under it.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (configuration vs external tool vs transient) without string
//     matching.
//
// Integrations live in subpackages (deepseek, ytdlp, whisper) and return
// errors wrapped with these markers.
package services
