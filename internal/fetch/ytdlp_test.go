package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type stubExecutor struct {
	output  []byte
	err     error
	calls   [][]string
	creates string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	s.calls = append(s.calls, append([]string{binary}, args...))
	if s.creates != "" {
		if err := os.WriteFile(s.creates, []byte("media"), 0o644); err != nil {
			return nil, err
		}
	}
	return s.output, s.err
}

func TestProbePlaylist(t *testing.T) {
	dump := `{
		"_type": "playlist",
		"id": "PLxyz",
		"title": "Morning Bhajans",
		"entries": [
			{"id": "vid1", "title": "Song One", "uploader": "Channel A", "url": "https://example.com/v1"},
			null,
			{"id": "vid3", "title": "", "creator": "Channel C", "webpage_url": "https://example.com/v3"}
		]
	}`
	executor := &stubExecutor{output: []byte(dump)}
	client, err := NewYtDlp("yt-dlp", WithExecutor(executor))
	if err != nil {
		t.Fatalf("NewYtDlp failed: %v", err)
	}

	probe, err := client.Probe(context.Background(), "https://youtube.com/playlist?list=PLxyz", Options{})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if !probe.IsCollection {
		t.Fatal("playlist dump should classify as collection")
	}
	if len(probe.Items) != 3 {
		t.Fatalf("expected 3 items (incl. null placeholder), got %d", len(probe.Items))
	}
	if probe.Items[0].ID != "vid1" || probe.Items[0].Uploader != "Channel A" {
		t.Fatalf("unexpected first item: %+v", probe.Items[0])
	}
	if probe.Items[1].ID != "" {
		t.Fatalf("null entry should be a placeholder item: %+v", probe.Items[1])
	}
	if probe.Items[2].Title != "vid3" {
		t.Fatalf("empty title should fall back to id: %+v", probe.Items[2])
	}
	if probe.Items[2].Uploader != "Channel C" {
		t.Fatalf("creator should back up uploader: %+v", probe.Items[2])
	}
}

func TestProbeSingleVideo(t *testing.T) {
	dump := `{"id": "solo1", "title": "Single", "uploader": "Someone", "webpage_url": "https://example.com/solo1"}`
	executor := &stubExecutor{output: []byte(dump)}
	client, _ := NewYtDlp("yt-dlp", WithExecutor(executor))

	probe, err := client.Probe(context.Background(), "https://youtu.be/solo1", Options{})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if probe.IsCollection {
		t.Fatal("single video should not classify as collection")
	}
	if len(probe.Items) != 1 || probe.Items[0].ID != "solo1" {
		t.Fatalf("unexpected items: %+v", probe.Items)
	}
}

func TestProbePassesCookies(t *testing.T) {
	executor := &stubExecutor{output: []byte(`{"id":"x","title":"t"}`)}
	client, _ := NewYtDlp("yt-dlp", WithExecutor(executor))

	_, err := client.Probe(context.Background(), "https://youtu.be/x", Options{CookiesPath: "/tmp/cookies.txt"})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	joined := strings.Join(executor.calls[0], " ")
	if !strings.Contains(joined, "--cookies /tmp/cookies.txt") {
		t.Fatalf("cookies flag missing: %s", joined)
	}
}

func TestFetchAudioReturnsExpectedPath(t *testing.T) {
	dest := t.TempDir()
	executor := &stubExecutor{creates: filepath.Join(dest, "vid1.mp3")}
	client, _ := NewYtDlp("yt-dlp", WithExecutor(executor))

	path, err := client.FetchAudio(context.Background(), Item{ID: "vid1", URL: "https://example.com/v1"}, dest, Options{})
	if err != nil {
		t.Fatalf("FetchAudio failed: %v", err)
	}
	if path != filepath.Join(dest, "vid1.mp3") {
		t.Fatalf("unexpected path: %q", path)
	}

	joined := strings.Join(executor.calls[0], " ")
	if !strings.Contains(joined, "--audio-format mp3") || !strings.Contains(joined, "--audio-quality 320K") {
		t.Fatalf("audio extraction args missing: %s", joined)
	}
}

func TestFetchAudioMissingOutputFails(t *testing.T) {
	executor := &stubExecutor{}
	client, _ := NewYtDlp("yt-dlp", WithExecutor(executor))

	if _, err := client.FetchAudio(context.Background(), Item{ID: "vid1"}, t.TempDir(), Options{}); err == nil {
		t.Fatal("expected error when download produced no file")
	}
}

func TestFetchVideoUsesVideoTemplate(t *testing.T) {
	dest := t.TempDir()
	executor := &stubExecutor{creates: filepath.Join(dest, "vid9_video.mp4")}
	client, _ := NewYtDlp("yt-dlp", WithExecutor(executor))

	path, err := client.FetchVideo(context.Background(), Item{ID: "vid9"}, dest, Options{})
	if err != nil {
		t.Fatalf("FetchVideo failed: %v", err)
	}
	if filepath.Base(path) != "vid9_video.mp4" {
		t.Fatalf("unexpected path: %q", path)
	}
	joined := strings.Join(executor.calls[0], " ")
	if !strings.Contains(joined, "bestvideo[ext=mp4]") {
		t.Fatalf("video format selector missing: %s", joined)
	}
}

func TestFetchRejectsItemWithoutReference(t *testing.T) {
	client, _ := NewYtDlp("yt-dlp", WithExecutor(&stubExecutor{}))
	if _, err := client.FetchAudio(context.Background(), Item{}, t.TempDir(), Options{}); err == nil {
		t.Fatal("expected error for item without id or url")
	}
}

func TestProbeExecutorErrorPropagates(t *testing.T) {
	executor := &stubExecutor{err: errors.New("network down")}
	client, _ := NewYtDlp("yt-dlp", WithExecutor(executor))
	if _, err := client.Probe(context.Background(), "https://youtu.be/x", Options{}); err == nil {
		t.Fatal("expected probe error")
	}
}
