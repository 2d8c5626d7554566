package source

import (
	"context"
	"fmt"
	"os"

	"mixwheel/internal/fetch"
	"mixwheel/internal/services"
)

// Preview is the cheap, download-free view of a descriptor used by dry
// runs: how many files of each kind the source would contribute.
type Preview struct {
	Kind       Kind
	Location   string
	Index      int
	AudioCount int
	VideoCount int
}

// Preview enumerates a descriptor without retrieving any content. Local
// directories are scanned; remote sources are probed for their item
// list only.
func (r *Resolver) Preview(ctx context.Context, desc Descriptor, opts Options) (Preview, error) {
	preview := Preview{Kind: desc.Kind(), Location: desc.Location, Index: desc.Index}

	if !desc.IsRemote() {
		info, err := os.Stat(desc.Location)
		if err != nil {
			return Preview{}, services.Wrap(services.ErrNotFound, "resolver", "preview", desc.Location, err)
		}
		if !info.IsDir() {
			return Preview{}, services.Wrap(services.ErrValidation, "resolver", "preview",
				fmt.Sprintf("%s is not a directory", desc.Location), nil)
		}
		audio, err := enumerate(desc.Location, ".mp3", opts.Recurse)
		if err != nil {
			return Preview{}, services.Wrap(services.ErrTransient, "resolver", "preview", desc.Location, err)
		}
		preview.AudioCount = len(audio)
		if opts.IncludeVideo {
			video, err := enumerate(desc.Location, ".mp4", opts.Recurse)
			if err != nil {
				return Preview{}, services.Wrap(services.ErrTransient, "resolver", "preview", desc.Location, err)
			}
			preview.VideoCount = len(video)
		}
		return preview, nil
	}

	probe, err := r.client.Probe(ctx, desc.Location, fetch.Options{CookiesPath: opts.CookiesPath})
	if err != nil {
		return Preview{}, services.Wrap(services.ErrExternalTool, "resolver", "preview", desc.Location, err)
	}
	for _, item := range probe.Items {
		if item.ID == "" {
			continue
		}
		preview.AudioCount++
	}
	if opts.IncludeVideo {
		preview.VideoCount = preview.AudioCount
	}
	return preview, nil
}
