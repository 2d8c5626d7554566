// Package ffmpeg wraps the ffmpeg CLI behind a small client: audio
// concatenation with per-segment trims, video normalization,
// stream-copy concatenation, and container tag rewrites. Command
// execution sits behind an Executor so tests can run without the
// binary.
package ffmpeg
