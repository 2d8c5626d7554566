package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mixwheel/internal/contentcache"
	"mixwheel/internal/fetch"
	"mixwheel/internal/fileutil"
	"mixwheel/internal/logging"
	"mixwheel/internal/media/ffprobe"
	"mixwheel/internal/services"
)

// Options control one resolution pass.
type Options struct {
	// Recurse scans local directories recursively. Remote sources
	// ignore it.
	Recurse bool
	// IncludeVideo enables the independent video retrieval pass.
	IncludeVideo bool
	// CookiesPath is passed through to remote retrieval; local sources
	// ignore it.
	CookiesPath string
}

// probeFunc matches ffprobe.Inspect and is swappable in tests.
type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Resolver turns descriptors into Resolved values, consulting the
// content cache before fetching remote items.
type Resolver struct {
	cache       contentcache.Store
	client      fetch.Client
	ffprobeBin  string
	itemTimeout time.Duration
	logger      *slog.Logger
	probe       probeFunc
}

// ResolverOption configures the resolver.
type ResolverOption func(*Resolver)

// WithProbe injects a tag-probe implementation (primarily for tests).
func WithProbe(probe probeFunc) ResolverOption {
	return func(r *Resolver) {
		if probe != nil {
			r.probe = probe
		}
	}
}

// NewResolver builds a resolver. A nil cache disables cache consults.
func NewResolver(cache contentcache.Store, client fetch.Client, ffprobeBin string, itemTimeout time.Duration, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if cache == nil {
		cache = contentcache.Nop{}
	}
	resolver := &Resolver{
		cache:       cache,
		client:      client,
		ffprobeBin:  ffprobeBin,
		itemTimeout: itemTimeout,
		logger:      logging.NewComponentLogger(logger, "resolver"),
		probe:       ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver
}

// Resolve normalizes one descriptor into a frozen Resolved. workDir is
// the run scratch root; remote downloads land in a per-source subtree.
//
// Audio and video enumerations are independent: a local directory with
// MP4s but no MP3s participates only in the video rotation, and no
// audio is derived from video files.
func (r *Resolver) Resolve(ctx context.Context, desc Descriptor, workDir string, opts Options) (Resolved, error) {
	if desc.IsRemote() {
		return r.resolveRemote(ctx, desc, workDir, opts)
	}
	return r.resolveLocal(ctx, desc, opts)
}

func (r *Resolver) resolveLocal(ctx context.Context, desc Descriptor, opts Options) (Resolved, error) {
	info, err := os.Stat(desc.Location)
	if err != nil {
		return Resolved{}, services.Wrap(services.ErrNotFound, "resolver", "scan", desc.Location, err)
	}
	if !info.IsDir() {
		return Resolved{}, services.Wrap(services.ErrValidation, "resolver", "scan",
			fmt.Sprintf("%s is not a directory", desc.Location), nil)
	}

	audio, err := enumerate(desc.Location, ".mp3", opts.Recurse)
	if err != nil {
		return Resolved{}, services.Wrap(services.ErrTransient, "resolver", "scan", desc.Location, err)
	}

	var video []string
	if opts.IncludeVideo {
		video, err = enumerate(desc.Location, ".mp4", opts.Recurse)
		if err != nil {
			return Resolved{}, services.Wrap(services.ErrTransient, "resolver", "scan", desc.Location, err)
		}
	}

	b := newBuilder(desc)
	for _, path := range audio {
		b.addAudio(path, r.localMetadata(ctx, path))
	}
	for _, path := range video {
		b.addVideo(path, Metadata{Title: fileutil.Stem(path)})
	}

	resolved := b.freeze(true)
	r.logger.Info("resolved local directory",
		logging.Int(logging.FieldSourceIndex, desc.Index),
		logging.String(logging.FieldSource, desc.Location),
		logging.Int("audio_files", len(resolved.audioFiles)),
		logging.Int("video_files", len(resolved.videoFiles)))
	return resolved, nil
}

// localMetadata extracts embedded title/artist tags, falling back to the
// filename stem when tags are missing or the probe fails.
func (r *Resolver) localMetadata(ctx context.Context, path string) Metadata {
	result, err := r.probe(ctx, r.ffprobeBin, path)
	if err != nil {
		r.logger.Debug("tag probe failed, using filename",
			logging.String("file", filepath.Base(path)),
			logging.Error(err))
		return Metadata{Title: fileutil.Stem(path)}
	}
	meta := Metadata{Title: result.Title(), Artist: result.Artist()}
	if meta.Title == "" {
		meta.Title = fileutil.Stem(path)
	}
	return meta
}

func (r *Resolver) resolveRemote(ctx context.Context, desc Descriptor, workDir string, opts Options) (Resolved, error) {
	scratch := filepath.Join(workDir, fmt.Sprintf("source_%d", desc.Index))
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return Resolved{}, services.Wrap(services.ErrTransient, "resolver", "scratch", scratch, err)
	}

	fetchOpts := fetch.Options{CookiesPath: opts.CookiesPath}
	probe, err := r.client.Probe(ctx, desc.Location, fetchOpts)
	if err != nil {
		return Resolved{}, services.Wrap(services.ErrExternalTool, "resolver", "probe", desc.Location, err)
	}

	b := newBuilder(desc)
	singleItem := !probe.IsCollection && len(probe.Items) == 1

	for _, item := range probe.Items {
		if item.ID == "" {
			b.markFailed()
			continue
		}
		meta := itemMetadata(item)

		if cached, ok := r.cache.Lookup(item.ID, scratch); ok {
			b.markCached()
			b.addAudio(cached, meta)
			continue
		}

		path, err := r.fetchWithTimeout(ctx, item, scratch, fetchOpts, false)
		if err != nil {
			b.markFailed()
			level := r.logger.Warn
			if singleItem {
				level = r.logger.Error
			}
			level("item retrieval failed",
				logging.Int(logging.FieldSourceIndex, desc.Index),
				logging.String("item_id", item.ID),
				logging.Error(err))
			continue
		}
		r.cache.Store(item.ID, path)
		b.addAudio(path, meta)
	}

	if opts.IncludeVideo {
		// Independent pass: video failures never invalidate a
		// successful audio pass, and vice versa.
		for _, item := range probe.Items {
			if item.ID == "" {
				continue
			}
			path, err := r.fetchWithTimeout(ctx, item, scratch, fetchOpts, true)
			if err != nil {
				r.logger.Warn("video retrieval failed",
					logging.Int(logging.FieldSourceIndex, desc.Index),
					logging.String("item_id", item.ID),
					logging.Error(err))
				continue
			}
			b.addVideo(path, itemMetadata(item))
		}
	}

	resolved := b.freeze(false)
	r.logger.Info("resolved remote source",
		logging.Int(logging.FieldSourceIndex, desc.Index),
		logging.String("kind", resolved.kind.String()),
		logging.Int("audio_files", len(resolved.audioFiles)),
		logging.Int("video_files", len(resolved.videoFiles)),
		logging.Int("failed", resolved.failedCount),
		logging.Int("cached", resolved.cachedCount))
	return resolved, nil
}

// fetchWithTimeout bounds a single item retrieval. A timeout is an item
// failure, never a fatal resolution error.
func (r *Resolver) fetchWithTimeout(ctx context.Context, item fetch.Item, destDir string, opts fetch.Options, video bool) (string, error) {
	if r.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.itemTimeout)
		defer cancel()
	}
	if video {
		return r.client.FetchVideo(ctx, item, destDir, opts)
	}
	return r.client.FetchAudio(ctx, item, destDir, opts)
}

func itemMetadata(item fetch.Item) Metadata {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = item.ID
	}
	return Metadata{Title: title, Artist: strings.TrimSpace(item.Uploader)}
}

// enumerate matches extensions case-sensitively in both modes, so a
// directory scans identically with and without recursion.
func enumerate(dir, ext string, recurse bool) ([]string, error) {
	if !recurse {
		return filepath.Glob(filepath.Join(dir, "*"+ext))
	}
	var matches []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ext {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, err
}
