// Command vidsub downloads a YouTube video or its audio and, for videos,
// produces a copy with machine-translated subtitles burned in.
//
// Subcommands:
//
//	vidsub run URL          process one URL in the foreground
//	vidsub history list     show recent runs
//	vidsub history clear    forget every recorded run
//	vidsub status           report dependencies and preflight checks
//	vidsub serve            expose runs over HTTP and WebSocket
//	vidsub config init|show manage the configuration file
//	vidsub test-notify      send a test notification
//
// A run and a server share a lock file under the state directory, so only
// one of them can drive the pipeline at a time.
package main
