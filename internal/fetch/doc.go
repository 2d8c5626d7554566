// Package fetch is the network boundary of the pipeline: probing a
// remote reference for its retrievable items and downloading each item
// as audio or video. The production implementation drives yt-dlp; the
// resolver only sees the Client interface, so tests substitute a
// deterministic double.
package fetch
