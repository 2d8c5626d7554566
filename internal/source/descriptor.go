package source

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Descriptor identifies one input: a remote reference or a local
// directory path. Index is 1-based and used only for diagnostic
// labeling and for sandboxing downloads into distinct scratch subtrees.
type Descriptor struct {
	Location string
	Index    int
}

// Kind classifies a descriptor. Classification is a string-pattern
// decision; no network probe is involved.
type Kind int

const (
	KindLocalDirectory Kind = iota
	KindRemoteSingle
	KindRemoteCollection
)

var remotePatterns = []string{"youtube.com", "youtu.be"}

// IsRemote reports whether the location is a remote reference.
func (d Descriptor) IsRemote() bool {
	lowered := strings.ToLower(d.Location)
	for _, pattern := range remotePatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// Kind returns the pattern-based classification of the descriptor.
func (d Descriptor) Kind() Kind {
	if !d.IsRemote() {
		return KindLocalDirectory
	}
	if strings.Contains(d.Location, "list=") {
		return KindRemoteCollection
	}
	return KindRemoteSingle
}

func (k Kind) slug() string {
	switch k {
	case KindRemoteSingle:
		return "remote video"
	case KindRemoteCollection:
		return "remote playlist"
	default:
		return "local directory"
	}
}

// String returns the lowercase kind name used in logs.
func (k Kind) String() string { return k.slug() }

// Label returns the human-readable kind name used in CLI output.
func (k Kind) Label() string {
	return cases.Title(language.Und).String(k.slug())
}
