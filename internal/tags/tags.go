// Package tags derives the combined title/artist/track metadata written
// onto each produced track from the metadata of its constituent inputs.
package tags

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// separator joins constituent titles and artists.
const separator = " • "

// maxTitleRunes is the joined-title length above which the generic
// fallback is used instead.
const maxTitleRunes = 80

// fallbackArtist is used when no constituent carries an artist.
const fallbackArtist = "Various Artists"

// Set is the tag data written onto one output artifact.
type Set struct {
	Title  string
	Artist string
	Album  string
	Track  string
}

// Derive builds the tag set for one rotation step. titles and artists
// are the constituent values in rotation order; empty artists mean
// absent and are skipped. constituentCount is the number of input files
// that formed the track.
func Derive(titles, artists []string, constituentCount, trackNumber, totalTracks int, album string) Set {
	kept := make([]string, 0, len(titles))
	for _, title := range titles {
		if title = strings.TrimSpace(title); title != "" {
			kept = append(kept, title)
		}
	}

	title := strings.Join(kept, separator)
	if title == "" {
		title = fmt.Sprintf("Track %02d", trackNumber)
	} else if utf8.RuneCountInString(title) > maxTitleRunes {
		title = fmt.Sprintf("Track %02d (from %d sources)", trackNumber, constituentCount)
	}

	present := make([]string, 0, len(artists))
	for _, artist := range artists {
		if artist = strings.TrimSpace(artist); artist != "" {
			present = append(present, artist)
		}
	}
	artist := strings.Join(present, separator)
	if artist == "" {
		artist = fallbackArtist
	}

	return Set{
		Title:  title,
		Artist: artist,
		Album:  album,
		Track:  fmt.Sprintf("%d/%d", trackNumber, totalTracks),
	}
}
