// Package ytdlp wraps the yt-dlp command line: metadata lookup, URL cleanup,
// and the argument lists used for audio and video downloads.
//
// Downloads themselves are run by the pipeline through the subprocess
// executor so cancellation and progress parsing stay in one place; this
// package only builds the commands.
package ytdlp
