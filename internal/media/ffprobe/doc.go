// Package ffprobe reads container duration and video bitrate from media files
// so the encoder can match the source quality and report progress.
package ffprobe
