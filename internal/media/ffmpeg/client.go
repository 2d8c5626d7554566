package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", binary, err, tail(string(output)))
	}
	return nil
}

// tail keeps error messages readable when ffmpeg dumps a long log.
func tail(output string) string {
	output = strings.TrimSpace(output)
	lines := strings.Split(output, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(c *Client) {
		if executor != nil {
			c.exec = executor
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// AudioSegment is one input to an audio concatenation. ClipSeconds
// limits how much of the segment is kept; zero keeps the whole file.
type AudioSegment struct {
	Path        string
	ClipSeconds float64
}

// ConcatAudio decodes every segment, trims where requested, joins them
// into one continuous stream, and encodes once at the given bitrate.
func (c *Client) ConcatAudio(ctx context.Context, segments []AudioSegment, outputPath string, bitrateKbps int) error {
	if outputPath == "" {
		return errors.New("ffmpeg concat audio: output path required")
	}
	if len(segments) == 0 {
		return c.EncodeEmptyAudio(ctx, outputPath, bitrateKbps)
	}

	args := []string{"-y", "-hide_banner", "-v", "error"}
	for _, segment := range segments {
		args = append(args, "-i", segment.Path)
	}

	var filter strings.Builder
	for i, segment := range segments {
		if segment.ClipSeconds > 0 {
			fmt.Fprintf(&filter, "[%d:a]atrim=0:%s[a%d];", i, formatSeconds(segment.ClipSeconds), i)
		} else {
			fmt.Fprintf(&filter, "[%d:a]anull[a%d];", i, i)
		}
	}
	for i := range segments {
		fmt.Fprintf(&filter, "[a%d]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(segments))

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[out]",
		"-b:a", strconv.Itoa(bitrateKbps)+"k",
		outputPath,
	)

	if err := c.exec.Run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("ffmpeg concat audio: %w", err)
	}
	return nil
}

// EncodeEmptyAudio produces a zero-length encode, the degenerate output
// when every input of a step was unreadable.
func (c *Client) EncodeEmptyAudio(ctx context.Context, outputPath string, bitrateKbps int) error {
	args := []string{
		"-y", "-hide_banner", "-v", "error",
		"-f", "lavfi", "-t", "0", "-i", "anullsrc=r=44100:cl=stereo",
		"-b:a", strconv.Itoa(bitrateKbps) + "k",
		outputPath,
	}
	if err := c.exec.Run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("ffmpeg empty encode: %w", err)
	}
	return nil
}

// VideoSpec is the normalization target for video segments.
type VideoSpec struct {
	Width            int
	Height           int
	FPS              int
	Preset           string
	CRF              int
	AudioBitrateKbps int
}

// NormalizeVideo rescales input to the target resolution with letterbox
// padding, constant frame rate, H.264 video and AAC audio.
func (c *Client) NormalizeVideo(ctx context.Context, input, output string, spec VideoSpec) error {
	if input == "" || output == "" {
		return errors.New("ffmpeg normalize: input and output required")
	}
	scale := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d",
		spec.Width, spec.Height, spec.Width, spec.Height, spec.FPS)

	args := []string{
		"-y", "-hide_banner", "-v", "error",
		"-i", input,
		"-vf", scale,
		"-c:v", "libx264", "-preset", spec.Preset, "-crf", strconv.Itoa(spec.CRF),
		"-c:a", "aac", "-b:a", strconv.Itoa(spec.AudioBitrateKbps) + "k",
		output,
	}
	if err := c.exec.Run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("ffmpeg normalize %s: %w", filepath.Base(input), err)
	}
	return nil
}

// ConcatVideo stream-copies the inputs, in order, into one container
// using the concat demuxer. Inputs must already share a common spec.
func (c *Client) ConcatVideo(ctx context.Context, inputs []string, outputPath, scratchDir string) error {
	if len(inputs) == 0 {
		return errors.New("ffmpeg concat video: no inputs")
	}
	listPath := filepath.Join(scratchDir, "concat_list.txt")
	var list strings.Builder
	for _, input := range inputs {
		absolute, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("ffmpeg concat video: resolve %q: %w", input, err)
		}
		// Single quotes in paths must be escaped for the concat demuxer.
		escaped := strings.ReplaceAll(absolute, "'", `'\''`)
		fmt.Fprintf(&list, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("ffmpeg concat video: write list: %w", err)
	}

	args := []string{
		"-y", "-hide_banner", "-v", "error",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}
	if err := c.exec.Run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("ffmpeg concat video: %w", err)
	}
	return nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
