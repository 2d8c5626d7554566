package tags

import (
	"fmt"

	"github.com/bogem/id3v2"
)

// Apply writes the set as ID3v2 frames directly into the file. A file
// without an existing tag gets one prepended; the audio stream is left
// untouched.
func (s Set) Apply(path string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(s.Title)
	tag.SetArtist(s.Artist)
	tag.SetAlbum(s.Album)
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, s.Track)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags to %s: %w", path, err)
	}
	return nil
}
