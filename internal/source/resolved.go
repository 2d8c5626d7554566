package source

import "sort"

// Metadata is the per-file tag data carried through to the merger. An
// empty Artist means absent.
type Metadata struct {
	Title  string
	Artist string
}

// Resolved is the frozen result of resolving one descriptor. It is
// immutable after construction; accessors return copies.
type Resolved struct {
	kind        Kind
	location    string
	index       int
	audioFiles  []string
	videoFiles  []string
	metadata    map[string]Metadata
	failedCount int
	cachedCount int
}

// Kind returns the descriptor classification.
func (r Resolved) Kind() Kind { return r.kind }

// Location returns the original descriptor location.
func (r Resolved) Location() string { return r.location }

// Index returns the 1-based descriptor index.
func (r Resolved) Index() int { return r.index }

// AudioFiles returns the ordered audio file paths.
func (r Resolved) AudioFiles() []string {
	return append([]string(nil), r.audioFiles...)
}

// VideoFiles returns the ordered video file paths.
func (r Resolved) VideoFiles() []string {
	return append([]string(nil), r.videoFiles...)
}

// MetadataFor returns tag metadata for one of the resolved files.
func (r Resolved) MetadataFor(path string) (Metadata, bool) {
	meta, ok := r.metadata[path]
	return meta, ok
}

// FailedCount returns how many remote items could not be retrieved.
func (r Resolved) FailedCount() int { return r.failedCount }

// CachedCount returns how many files were satisfied from the cache.
func (r Resolved) CachedCount() int { return r.cachedCount }

// Empty reports whether resolution produced no usable files of any
// kind. An empty Resolved is a resolution failure and must be excluded
// from rotation.
func (r Resolved) Empty() bool {
	return len(r.audioFiles) == 0 && len(r.videoFiles) == 0
}

// builder accumulates resolution results and freezes them into a
// Resolved value exactly once.
type builder struct {
	kind        Kind
	location    string
	index       int
	audioFiles  []string
	videoFiles  []string
	metadata    map[string]Metadata
	failedCount int
	cachedCount int
}

func newBuilder(desc Descriptor) *builder {
	return &builder{
		kind:     desc.Kind(),
		location: desc.Location,
		index:    desc.Index,
		metadata: make(map[string]Metadata),
	}
}

func (b *builder) addAudio(path string, meta Metadata) {
	b.audioFiles = append(b.audioFiles, path)
	b.metadata[path] = meta
}

func (b *builder) addVideo(path string, meta Metadata) {
	b.videoFiles = append(b.videoFiles, path)
	b.metadata[path] = meta
}

func (b *builder) markFailed() { b.failedCount++ }

func (b *builder) markCached() { b.cachedCount++ }

// freeze produces the immutable Resolved. Local enumerations are sorted
// lexicographically (the rotation determinism contract); remote lists
// keep item-enumeration order.
func (b *builder) freeze(sortFiles bool) Resolved {
	if sortFiles {
		sort.Strings(b.audioFiles)
		sort.Strings(b.videoFiles)
	}
	return Resolved{
		kind:        b.kind,
		location:    b.location,
		index:       b.index,
		audioFiles:  b.audioFiles,
		videoFiles:  b.videoFiles,
		metadata:    b.metadata,
		failedCount: b.failedCount,
		cachedCount: b.cachedCount,
	}
}
