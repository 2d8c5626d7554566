package tags

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bogem/id3v2"
)

func TestDeriveJoinsTitlesAndArtists(t *testing.T) {
	set := Derive(
		[]string{"Morning Raga", "Evening Song"},
		[]string{"Asha", "Ravi"},
		2, 3, 12, "Festival Mix",
	)
	if set.Title != "Morning Raga • Evening Song" {
		t.Fatalf("unexpected title: %q", set.Title)
	}
	if set.Artist != "Asha • Ravi" {
		t.Fatalf("unexpected artist: %q", set.Artist)
	}
	if set.Track != "3/12" {
		t.Fatalf("unexpected track: %q", set.Track)
	}
	if set.Album != "Festival Mix" {
		t.Fatalf("unexpected album: %q", set.Album)
	}
}

func TestDeriveLongTitleFallsBack(t *testing.T) {
	long := strings.Repeat("x", 60)
	set := Derive([]string{long, long}, nil, 4, 7, 20, "Album")
	if set.Title != "Track 07 (from 4 sources)" {
		t.Fatalf("unexpected fallback title: %q", set.Title)
	}
}

func TestDeriveExactlyEightyRunesKeepsJoin(t *testing.T) {
	title := strings.Repeat("y", 80)
	set := Derive([]string{title}, nil, 1, 1, 1, "Album")
	if set.Title != title {
		t.Fatalf("80-rune title must be kept verbatim, got %q", set.Title)
	}
}

func TestDeriveMissingMetadata(t *testing.T) {
	// No titles at all: generic numbered title. No artists: the
	// shared fallback rather than an empty tag.
	set := Derive(nil, nil, 3, 2, 5, "Album")
	if set.Title != "Track 02" {
		t.Fatalf("unexpected title: %q", set.Title)
	}
	if set.Artist != "Various Artists" {
		t.Fatalf("unexpected artist: %q", set.Artist)
	}
}

func TestDeriveSkipsAbsentValues(t *testing.T) {
	set := Derive(
		[]string{"Kept", "", "  "},
		[]string{"", "Solo"},
		3, 1, 2, "Album",
	)
	if set.Title != "Kept" {
		t.Fatalf("blank titles must be skipped: %q", set.Title)
	}
	if set.Artist != "Solo" {
		t.Fatalf("blank artists must be skipped: %q", set.Artist)
	}
}

func TestApplyWritesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track-01.mp3")
	if err := os.WriteFile(path, []byte("untagged audio payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	set := Derive(
		[]string{"Morning Raga", "Evening Song"},
		[]string{"Asha"},
		2, 1, 3, "Festival Mix",
	)
	if err := set.Apply(path); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "Morning Raga • Evening Song" {
		t.Fatalf("unexpected title frame: %q", tag.Title())
	}
	if tag.Artist() != "Asha" {
		t.Fatalf("unexpected artist frame: %q", tag.Artist())
	}
	if tag.Album() != "Festival Mix" {
		t.Fatalf("unexpected album frame: %q", tag.Album())
	}
	track := tag.GetTextFrame(tag.CommonID("Track number/Position in set"))
	if track.Text != "1/3" {
		t.Fatalf("unexpected track frame: %q", track.Text)
	}
}

func TestApplyMissingFileFails(t *testing.T) {
	set := Set{Title: "T", Artist: "A", Album: "B", Track: "1/1"}
	if err := set.Apply(filepath.Join(t.TempDir(), "absent.mp3")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
