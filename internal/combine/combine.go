// Package combine turns the file selections of a rotation step into a
// single output artifact, audio or video.
package combine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"mixwheel/internal/logging"
	"mixwheel/internal/media/ffmpeg"
	"mixwheel/internal/media/ffprobe"
	"mixwheel/internal/services"
	"mixwheel/internal/truncation"
)

// probeFunc matches ffprobe.Inspect and is swappable in tests.
type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// AudioOptions govern one audio combination.
type AudioOptions struct {
	Window      truncation.Window
	BitrateKbps int
}

// Combiner drives ffmpeg to produce one track per rotation step.
type Combiner struct {
	ffmpeg     *ffmpeg.Client
	ffprobeBin string
	logger     *slog.Logger
	probe      probeFunc
}

// Option configures the combiner.
type Option func(*Combiner)

// WithProbe injects a duration-probe implementation (primarily for tests).
func WithProbe(probe probeFunc) Option {
	return func(c *Combiner) {
		if probe != nil {
			c.probe = probe
		}
	}
}

// New builds a combiner around an ffmpeg client.
func New(client *ffmpeg.Client, ffprobeBin string, logger *slog.Logger, opts ...Option) *Combiner {
	combiner := &Combiner{
		ffmpeg:     client,
		ffprobeBin: ffprobeBin,
		logger:     logging.NewComponentLogger(logger, "combine"),
		probe:      ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(combiner)
	}
	return combiner
}

// AudioTrack probes each input, applies the truncation window, and
// concatenates the survivors into outputPath in a single encode.
// Unreadable inputs are skipped with a warning rather than failing the
// step; when every input is unreadable the output is a zero-length
// encode. The returned slice holds the inputs that actually went in, in
// order.
func (c *Combiner) AudioTrack(ctx context.Context, step int, files []string, outputPath string, opts AudioOptions) ([]string, error) {
	segments := make([]ffmpeg.AudioSegment, 0, len(files))
	used := make([]string, 0, len(files))

	for _, path := range files {
		duration, err := c.duration(ctx, path)
		if err != nil {
			c.logger.Warn("skipping unreadable input",
				logging.Int(logging.FieldStep, step),
				logging.String("file", filepath.Base(path)),
				logging.Error(err))
			continue
		}

		segment := ffmpeg.AudioSegment{Path: path}
		if kept, trimmed := opts.Window.Keep(duration); trimmed {
			segment.ClipSeconds = kept
			c.logger.Info("trimming long segment",
				logging.Int(logging.FieldStep, step),
				logging.String("file", filepath.Base(path)),
				logging.Float64("duration_seconds", duration),
				logging.Float64("kept_seconds", kept))
		}
		segments = append(segments, segment)
		used = append(used, path)
	}

	if len(segments) == 0 {
		c.logger.Warn("no readable inputs, producing empty track",
			logging.Int(logging.FieldStep, step))
	}
	if err := c.ffmpeg.ConcatAudio(ctx, segments, outputPath, opts.BitrateKbps); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "combine", "concat audio",
			fmt.Sprintf("step %d", step), err)
	}
	return used, nil
}

// duration probes one input and rejects it when the container carries no
// usable duration.
func (c *Combiner) duration(ctx context.Context, path string) (float64, error) {
	result, err := c.probe(ctx, c.ffprobeBin, path)
	if err != nil {
		return 0, err
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration < 0 {
		return 0, fmt.Errorf("no duration in container %s", filepath.Base(path))
	}
	return duration, nil
}

// VideoTrack normalizes every input to the shared spec and then joins
// them with a stream copy. Unlike audio, a normalization failure fails
// the whole step: a partial video track silently missing a source is
// worse than no track.
func (c *Combiner) VideoTrack(ctx context.Context, step int, files []string, outputPath, scratchDir string, spec ffmpeg.VideoSpec) error {
	if len(files) == 0 {
		return services.Wrap(services.ErrValidation, "combine", "concat video",
			fmt.Sprintf("step %d has no inputs", step), nil)
	}

	stepDir := filepath.Join(scratchDir, fmt.Sprintf("video_step_%d", step))
	if err := os.MkdirAll(stepDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "combine", "scratch", stepDir, err)
	}

	normalized := make([]string, 0, len(files))
	for i, input := range files {
		output := filepath.Join(stepDir, fmt.Sprintf("normalized_%d.mp4", i))
		if err := c.ffmpeg.NormalizeVideo(ctx, input, output, spec); err != nil {
			return services.Wrap(services.ErrExternalTool, "combine", "normalize video",
				fmt.Sprintf("step %d input %s", step, filepath.Base(input)), err)
		}
		normalized = append(normalized, output)
	}

	if err := c.ffmpeg.ConcatVideo(ctx, normalized, outputPath, stepDir); err != nil {
		return services.Wrap(services.ErrExternalTool, "combine", "concat video",
			fmt.Sprintf("step %d", step), err)
	}
	return nil
}
