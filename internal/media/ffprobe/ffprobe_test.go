package ffprobe

import (
	"math"
	"testing"
)

func TestParseExtractsDurationAndTags(t *testing.T) {
	payload := []byte(`{
		"streams": [
			{"index": 0, "codec_type": "audio", "codec_name": "mp3", "tags": {"encoder": "LAME"}}
		],
		"format": {
			"filename": "song.mp3",
			"duration": "183.517",
			"format_name": "mp3",
			"tags": {"TITLE": "Morning Song", "artist": "The Ensemble"}
		}
	}`)

	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := result.DurationSeconds(); got != 183.517 {
		t.Fatalf("unexpected duration: %v", got)
	}
	if got := result.Title(); got != "Morning Song" {
		t.Fatalf("title tag not matched case-insensitively: %q", got)
	}
	if got := result.Artist(); got != "The Ensemble" {
		t.Fatalf("unexpected artist: %q", got)
	}
}

func TestTagFallsBackToStreamTags(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{Tags: map[string]string{"title": "Stream Title"}},
		},
	}
	if got := result.Title(); got != "Stream Title" {
		t.Fatalf("expected stream tag fallback, got %q", got)
	}
}

func TestMissingTagsAndDuration(t *testing.T) {
	result, err := Parse([]byte(`{"format": {"duration": "bad"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected NaN duration, got %v", result.DurationSeconds())
	}
	if result.Title() != "" || result.Artist() != "" {
		t.Fatal("expected empty tags")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
