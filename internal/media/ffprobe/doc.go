// Package ffprobe shells out to ffprobe and decodes the JSON payload
// into durations and embedded tags. It is the read side of the media
// boundary: the combiner asks it for segment durations, the resolver for
// title/artist metadata.
package ffprobe
