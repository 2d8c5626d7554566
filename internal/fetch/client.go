package fetch

import "context"

// Item is one retrievable entry of a remote reference.
type Item struct {
	ID       string
	Title    string
	Uploader string
	URL      string
}

// Probe is the result of enumerating a remote reference without
// downloading anything.
type Probe struct {
	IsCollection bool
	Items        []Item
}

// Options carries per-run retrieval settings.
type Options struct {
	// CookiesPath points at a cookies file for authenticated access to
	// private or restricted content. Empty means anonymous.
	CookiesPath string
}

// Client enumerates and retrieves remote media items.
type Client interface {
	// Probe classifies the reference and lists its items. Items with an
	// empty ID are unretrievable and count as failures downstream.
	Probe(ctx context.Context, location string, opts Options) (Probe, error)
	// FetchAudio downloads one item as encoded audio into destDir and
	// returns the local path.
	FetchAudio(ctx context.Context, item Item, destDir string, opts Options) (string, error)
	// FetchVideo downloads one item as video into destDir and returns
	// the local path.
	FetchVideo(ctx context.Context, item Item, destDir string, opts Options) (string, error)
}
