// Package mix orchestrates a full run: resolve every source, plan the
// rotation, combine each step into a track, merge metadata, and record
// the run in the history ledger.
package mix

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mixwheel/internal/combine"
	"mixwheel/internal/config"
	"mixwheel/internal/contentcache"
	"mixwheel/internal/fileutil"
	"mixwheel/internal/history"
	"mixwheel/internal/logging"
	"mixwheel/internal/media/ffmpeg"
	"mixwheel/internal/rotation"
	"mixwheel/internal/services"
	"mixwheel/internal/source"
	"mixwheel/internal/tags"
	"mixwheel/internal/truncation"
)

// Options describe one requested run.
type Options struct {
	// Sources are the input locations in user order: remote references
	// or local directories.
	Sources []string
	// Album names the output collection; it becomes the output
	// directory name and the album tag.
	Album string
	// IncludeVideo enables the parallel video rotation.
	IncludeVideo bool
	// Recurse scans local directories recursively.
	Recurse bool
	// DryRun previews the plan without retrieving content or writing
	// any output.
	DryRun bool
	// Window is the oversized-segment truncation policy.
	Window truncation.Window
	// CookiesPath is forwarded to remote retrieval.
	CookiesPath string
}

// Validate rejects option combinations before any work starts.
func (o Options) Validate() error {
	if len(o.Sources) == 0 {
		return services.Wrap(services.ErrConfiguration, "mix", "validate", "at least one source required", nil)
	}
	if strings.TrimSpace(o.Album) == "" {
		return services.Wrap(services.ErrConfiguration, "mix", "validate", "album name required", nil)
	}
	if err := o.Window.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "mix", "validate", err.Error(), nil)
	}
	return nil
}

// SourceSummary is the per-source slice of a run report.
type SourceSummary struct {
	Index      int
	Location   string
	Kind       string
	AudioFiles int
	VideoFiles int
	Failed     int
	Cached     int
}

// Report is the outcome of a run, dry or real.
type Report struct {
	RunID        string
	Album        string
	OutputDir    string
	DryRun       bool
	AudioTracks  int
	VideoTracks  int
	FailedTracks int
	FailedItems  int
	CachedItems  int
	SweptEntries int
	Sources      []SourceSummary
	Warnings     []string
	Elapsed      time.Duration
}

// StepHook observes per-track progress, called before each step runs.
type StepHook func(kind rotation.MediaKind, step, total int)

// PipelineOption configures the pipeline.
type PipelineOption func(*Pipeline)

// WithStepHook installs a progress observer.
func WithStepHook(hook StepHook) PipelineOption {
	return func(p *Pipeline) { p.stepHook = hook }
}

// Pipeline wires the run stages together.
type Pipeline struct {
	cfg      *config.Config
	cache    contentcache.Store
	resolver *source.Resolver
	combiner *combine.Combiner
	history  *history.Store
	logger   *slog.Logger
	stepHook StepHook
}

// New builds a pipeline. history may be nil when the ledger is disabled.
func New(cfg *config.Config, cache contentcache.Store, resolver *source.Resolver, combiner *combine.Combiner, ledger *history.Store, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if cache == nil {
		cache = contentcache.Nop{}
	}
	pipeline := &Pipeline{
		cfg:      cfg,
		cache:    cache,
		resolver: resolver,
		combiner: combiner,
		history:  ledger,
		logger:   logging.NewComponentLogger(logger, "mix"),
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline
}

// Run executes one mix. No output directory is created unless at least
// one source resolves to usable content.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	report := &Report{
		RunID:  uuid.NewString(),
		Album:  strings.TrimSpace(opts.Album),
		DryRun: opts.DryRun,
	}

	window, warning := opts.Window.Normalize()
	if warning != "" {
		p.logger.Warn(warning)
		report.Warnings = append(report.Warnings, warning)
	}
	opts.Window = window

	if opts.DryRun {
		if err := p.preview(ctx, opts, report); err != nil {
			return nil, err
		}
		report.Elapsed = time.Since(started)
		return report, nil
	}

	report.SweptEntries = p.cache.SweepExpired()

	scratch := filepath.Join(p.cfg.Paths.WorkDir, "run_"+report.RunID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "mix", "prepare", scratch, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			p.logger.Warn("scratch cleanup failed",
				logging.String("dir", scratch),
				logging.Error(err))
		}
	}()

	resolved, err := p.resolveAll(ctx, opts, scratch, report)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		// No output directory is created for a run that found nothing.
		return nil, services.Wrap(services.ErrNotFound, "mix", "resolve", "no source produced usable content", nil)
	}

	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mix", "prepare", "create directories", err)
	}
	outputDir, err := fileutil.UniqueDir(p.cfg.Paths.OutputDir, report.Album)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "mix", "prepare", "output directory", err)
	}
	report.OutputDir = outputDir
	p.logger.Info("run started",
		logging.String(logging.FieldRunID, report.RunID),
		logging.String("output_dir", outputDir),
		logging.Int("sources", len(resolved)))

	metadata := collectMetadata(resolved)
	rotSources := make([]rotation.Source, 0, len(resolved))
	for _, r := range resolved {
		rotSources = append(rotSources, r)
	}

	if err := p.runAudio(ctx, opts, rotSources, metadata, outputDir, report); err != nil {
		return nil, err
	}
	if opts.IncludeVideo {
		if err := p.runVideo(ctx, rotSources, outputDir, scratch, report); err != nil {
			return nil, err
		}
	}

	report.Elapsed = time.Since(started)
	p.record(ctx, started, report)

	p.logger.Info("run finished",
		logging.String(logging.FieldRunID, report.RunID),
		logging.Int("audio_tracks", report.AudioTracks),
		logging.Int("video_tracks", report.VideoTracks),
		logging.Int("failed_tracks", report.FailedTracks),
		logging.Duration("elapsed", report.Elapsed))
	return report, nil
}

// resolveAll resolves every descriptor sequentially in user order.
// Sources that fail to resolve or resolve empty are dropped with a
// warning; the run proceeds with what remains.
func (p *Pipeline) resolveAll(ctx context.Context, opts Options, scratch string, report *Report) ([]source.Resolved, error) {
	resolveOpts := source.Options{
		Recurse:      opts.Recurse,
		IncludeVideo: opts.IncludeVideo,
		CookiesPath:  opts.CookiesPath,
	}

	var usable []source.Resolved
	for i, location := range opts.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		desc := source.Descriptor{Location: location, Index: i + 1}

		resolved, err := p.resolver.Resolve(ctx, desc, scratch, resolveOpts)
		if err != nil {
			warning := fmt.Sprintf("source %d (%s) failed to resolve: %v", desc.Index, location, err)
			p.logger.Warn("dropping source",
				logging.Int(logging.FieldSourceIndex, desc.Index),
				logging.String(logging.FieldSource, location),
				logging.Error(err))
			report.Warnings = append(report.Warnings, warning)
			continue
		}
		if resolved.Empty() {
			warning := fmt.Sprintf("source %d (%s) produced no usable files", desc.Index, location)
			p.logger.Warn("dropping empty source",
				logging.Int(logging.FieldSourceIndex, desc.Index),
				logging.String(logging.FieldSource, location))
			report.Warnings = append(report.Warnings, warning)
			report.FailedItems += resolved.FailedCount()
			continue
		}

		report.FailedItems += resolved.FailedCount()
		report.CachedItems += resolved.CachedCount()
		report.Sources = append(report.Sources, SourceSummary{
			Index:      resolved.Index(),
			Location:   resolved.Location(),
			Kind:       resolved.Kind().Label(),
			AudioFiles: len(resolved.AudioFiles()),
			VideoFiles: len(resolved.VideoFiles()),
			Failed:     resolved.FailedCount(),
			Cached:     resolved.CachedCount(),
		})
		usable = append(usable, resolved)
	}
	return usable, nil
}

func (p *Pipeline) runAudio(ctx context.Context, opts Options, sources []rotation.Source, metadata map[string]source.Metadata, outputDir string, report *Report) error {
	schedule := rotation.Plan(sources, rotation.Audio)
	audioOpts := combine.AudioOptions{
		Window:      opts.Window,
		BitrateKbps: p.cfg.Audio.BitrateKbps,
	}

	for _, step := range schedule.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.stepHook != nil {
			p.stepHook(rotation.Audio, step.Number, schedule.Len())
		}

		outputPath := filepath.Join(outputDir, fmt.Sprintf("track-%02d.mp3", step.Number))
		used, err := p.combiner.AudioTrack(ctx, step.Number, step.Files, outputPath, audioOpts)
		if err != nil {
			p.logger.Error("audio step failed",
				logging.Int(logging.FieldStep, step.Number),
				logging.Error(err))
			report.FailedTracks++
			continue
		}

		set := deriveTags(used, metadata, step.Number, schedule.Len(), report.Album)
		if err := set.Apply(outputPath); err != nil {
			// A missing tag never invalidates a produced track.
			p.logger.Warn("tag write failed",
				logging.Int(logging.FieldStep, step.Number),
				logging.Error(err))
		}
		report.AudioTracks++
	}
	return nil
}

func (p *Pipeline) runVideo(ctx context.Context, sources []rotation.Source, outputDir, scratch string, report *Report) error {
	schedule := rotation.Plan(sources, rotation.Video)
	if schedule.Len() == 0 {
		p.logger.Info("no video content, skipping video rotation")
		return nil
	}
	spec := ffmpeg.VideoSpec{
		Width:            p.cfg.Video.Width,
		Height:           p.cfg.Video.Height,
		FPS:              p.cfg.Video.FPS,
		Preset:           p.cfg.Video.Preset,
		CRF:              p.cfg.Video.CRF,
		AudioBitrateKbps: p.cfg.Video.AudioBitrateKbps,
	}

	for _, step := range schedule.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.stepHook != nil {
			p.stepHook(rotation.Video, step.Number, schedule.Len())
		}

		outputPath := filepath.Join(outputDir, fmt.Sprintf("track-%02d.mp4", step.Number))
		if err := p.combiner.VideoTrack(ctx, step.Number, step.Files, outputPath, scratch, spec); err != nil {
			p.logger.Error("video step failed",
				logging.Int(logging.FieldStep, step.Number),
				logging.Error(err))
			report.FailedTracks++
			continue
		}
		report.VideoTracks++
	}
	return nil
}

// preview plans without retrieving anything: remote sources are probed
// for item counts, local directories enumerated.
func (p *Pipeline) preview(ctx context.Context, opts Options, report *Report) error {
	previewOpts := source.Options{
		Recurse:      opts.Recurse,
		IncludeVideo: opts.IncludeVideo,
		CookiesPath:  opts.CookiesPath,
	}

	maxAudio, maxVideo := 0, 0
	for i, location := range opts.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		desc := source.Descriptor{Location: location, Index: i + 1}
		preview, err := p.resolver.Preview(ctx, desc, previewOpts)
		if err != nil {
			warning := fmt.Sprintf("source %d (%s) preview failed: %v", desc.Index, location, err)
			p.logger.Warn("dropping source from preview",
				logging.Int(logging.FieldSourceIndex, desc.Index),
				logging.String(logging.FieldSource, location),
				logging.Error(err))
			report.Warnings = append(report.Warnings, warning)
			continue
		}
		if preview.AudioCount == 0 && preview.VideoCount == 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("source %d (%s) has no usable files", desc.Index, location))
			continue
		}
		report.Sources = append(report.Sources, SourceSummary{
			Index:      preview.Index,
			Location:   preview.Location,
			Kind:       preview.Kind.Label(),
			AudioFiles: preview.AudioCount,
			VideoFiles: preview.VideoCount,
		})
		if preview.AudioCount > maxAudio {
			maxAudio = preview.AudioCount
		}
		if preview.VideoCount > maxVideo {
			maxVideo = preview.VideoCount
		}
	}

	if len(report.Sources) == 0 {
		return services.Wrap(services.ErrNotFound, "mix", "preview", "no source produced usable content", nil)
	}
	report.AudioTracks = maxAudio
	if opts.IncludeVideo {
		report.VideoTracks = maxVideo
	}
	return nil
}

// record writes the run to the ledger; ledger failures are logged, not
// returned.
func (p *Pipeline) record(ctx context.Context, started time.Time, report *Report) {
	if p.history == nil {
		return
	}
	status := history.StatusCompleted
	if report.AudioTracks == 0 && report.VideoTracks == 0 {
		status = history.StatusFailed
	}
	run := history.Run{
		ID:          report.RunID,
		Album:       report.Album,
		OutputDir:   report.OutputDir,
		Status:      status,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		SourceCount: len(report.Sources),
		AudioTracks: report.AudioTracks,
		VideoTracks: report.VideoTracks,
		FailedItems: report.FailedItems,
	}
	if err := p.history.Record(ctx, run); err != nil {
		p.logger.Warn("history record failed",
			logging.String(logging.FieldRunID, report.RunID),
			logging.Error(err))
	}
}

func collectMetadata(resolved []source.Resolved) map[string]source.Metadata {
	metadata := make(map[string]source.Metadata)
	for _, r := range resolved {
		for _, path := range r.AudioFiles() {
			if meta, ok := r.MetadataFor(path); ok {
				metadata[path] = meta
			}
		}
	}
	return metadata
}

func deriveTags(used []string, metadata map[string]source.Metadata, step, total int, album string) tags.Set {
	titles := make([]string, 0, len(used))
	artists := make([]string, 0, len(used))
	for _, path := range used {
		meta, ok := metadata[path]
		if !ok {
			meta = source.Metadata{Title: fileutil.Stem(path)}
		}
		titles = append(titles, meta.Title)
		artists = append(artists, meta.Artist)
	}
	return tags.Derive(titles, artists, len(used), step, total, album)
}
