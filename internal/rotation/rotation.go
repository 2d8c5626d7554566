// Package rotation computes the circular round-robin schedule that
// interleaves files across sources of unequal length. Planning is a
// pure function of its inputs: no randomness, no time dependence.
package rotation

// Source is the view of a resolved source the planner needs. It is
// satisfied by source.Resolved.
type Source interface {
	AudioFiles() []string
	VideoFiles() []string
}

// MediaKind selects which file list of a resolved source participates.
type MediaKind int

const (
	Audio MediaKind = iota
	Video
)

func (k MediaKind) String() string {
	if k == Video {
		return "video"
	}
	return "audio"
}

// Step is one rotation step: exactly one file from every participating
// source, in source order.
type Step struct {
	Number int
	Files  []string
}

// Schedule is the full rotation plan for one media kind.
type Schedule struct {
	Kind  MediaKind
	Steps []Step
}

// Len returns the number of steps (and therefore output tracks).
func (s Schedule) Len() int { return len(s.Steps) }

// Plan filters to sources holding at least one file of the requested
// kind and produces maxLength steps, where step s takes index
// (s-1) mod count from each source. Shorter sources wrap around while
// the longest is traversed exactly once. Sources without files of the
// kind are excluded entirely, not zero-padded.
func Plan(sources []Source, kind MediaKind) Schedule {
	var lists [][]string
	for _, src := range sources {
		files := filesOf(src, kind)
		if len(files) > 0 {
			lists = append(lists, files)
		}
	}

	schedule := Schedule{Kind: kind}
	if len(lists) == 0 {
		return schedule
	}

	maxLength := 0
	for _, files := range lists {
		if len(files) > maxLength {
			maxLength = len(files)
		}
	}

	for number := 1; number <= maxLength; number++ {
		step := Step{Number: number, Files: make([]string, 0, len(lists))}
		for _, files := range lists {
			step.Files = append(step.Files, files[(number-1)%len(files)])
		}
		schedule.Steps = append(schedule.Steps, step)
	}
	return schedule
}

func filesOf(src Source, kind MediaKind) []string {
	if kind == Video {
		return src.VideoFiles()
	}
	return src.AudioFiles()
}
