package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("%s: %w: %s", binary, err, detail)
		}
		return nil, fmt.Errorf("%s: %w", binary, err)
	}
	return output, nil
}

// Option configures the yt-dlp client.
type Option func(*YtDlp)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(c *YtDlp) {
		if executor != nil {
			c.exec = executor
		}
	}
}

// YtDlp implements Client by shelling out to yt-dlp.
type YtDlp struct {
	binary string
	exec   Executor
}

// NewYtDlp constructs a yt-dlp backed client.
func NewYtDlp(binary string, opts ...Option) (*YtDlp, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &YtDlp{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// probePayload mirrors the subset of yt-dlp's -J dump the pipeline needs.
// Entries are pointers because playlists surface unavailable videos as
// JSON nulls.
type probePayload struct {
	Type       string          `json:"_type"`
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Uploader   string          `json:"uploader"`
	Creator    string          `json:"creator"`
	Artist     string          `json:"artist"`
	Channel    string          `json:"channel"`
	WebpageURL string          `json:"webpage_url"`
	URL        string          `json:"url"`
	Entries    []*probePayload `json:"entries"`
}

// Probe implements Client.
func (c *YtDlp) Probe(ctx context.Context, location string, opts Options) (Probe, error) {
	args := []string{"-J", "--flat-playlist", "--no-warnings", "--ignore-errors"}
	args = appendCookies(args, opts)
	args = append(args, location)

	output, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return Probe{}, fmt.Errorf("yt-dlp probe: %w", err)
	}

	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return Probe{}, fmt.Errorf("yt-dlp probe: parse dump: %w", err)
	}

	if payload.Type == "playlist" || len(payload.Entries) > 0 {
		probe := Probe{IsCollection: true}
		for _, entry := range payload.Entries {
			if entry == nil {
				// Unavailable video: keep a placeholder so the caller
				// counts it as a failed item.
				probe.Items = append(probe.Items, Item{})
				continue
			}
			probe.Items = append(probe.Items, entry.toItem())
		}
		return probe, nil
	}

	return Probe{Items: []Item{payload.toItem()}}, nil
}

func (p *probePayload) toItem() Item {
	uploader := firstNonEmpty(p.Uploader, p.Creator, p.Artist, p.Channel)
	url := firstNonEmpty(p.WebpageURL, p.URL)
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = p.ID
	}
	return Item{
		ID:       strings.TrimSpace(p.ID),
		Title:    title,
		Uploader: strings.TrimSpace(uploader),
		URL:      strings.TrimSpace(url),
	}
}

// FetchAudio implements Client: download as 320k MP3 named <id>.mp3.
func (c *YtDlp) FetchAudio(ctx context.Context, item Item, destDir string, opts Options) (string, error) {
	ref := itemRef(item)
	if ref == "" {
		return "", errors.New("yt-dlp fetch audio: item has no reference")
	}
	args := []string{
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3", "--audio-quality", "320K",
		"--no-warnings",
		"-o", filepath.Join(destDir, "%(id)s.%(ext)s"),
	}
	args = appendCookies(args, opts)
	args = append(args, ref)

	if _, err := c.exec.Run(ctx, c.binary, args); err != nil {
		return "", fmt.Errorf("yt-dlp fetch audio: %w", err)
	}

	path := filepath.Join(destDir, item.ID+".mp3")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("yt-dlp fetch audio: expected output missing: %w", err)
	}
	return path, nil
}

// FetchVideo implements Client: download as MP4 named <id>_video.mp4.
func (c *YtDlp) FetchVideo(ctx context.Context, item Item, destDir string, opts Options) (string, error) {
	ref := itemRef(item)
	if ref == "" {
		return "", errors.New("yt-dlp fetch video: item has no reference")
	}
	args := []string{
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--no-warnings",
		"-o", filepath.Join(destDir, "%(id)s_video.%(ext)s"),
	}
	args = appendCookies(args, opts)
	args = append(args, ref)

	if _, err := c.exec.Run(ctx, c.binary, args); err != nil {
		return "", fmt.Errorf("yt-dlp fetch video: %w", err)
	}

	path := filepath.Join(destDir, item.ID+"_video.mp4")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("yt-dlp fetch video: expected output missing: %w", err)
	}
	return path, nil
}

func itemRef(item Item) string {
	return firstNonEmpty(item.URL, item.ID)
}

func appendCookies(args []string, opts Options) []string {
	if strings.TrimSpace(opts.CookiesPath) != "" {
		return append(args, "--cookies", opts.CookiesPath)
	}
	return args
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
