package combine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mixwheel/internal/logging"
	"mixwheel/internal/media/ffmpeg"
	"mixwheel/internal/media/ffprobe"
	"mixwheel/internal/truncation"
)

// recordingExecutor captures ffmpeg invocations instead of running them.
type recordingExecutor struct {
	calls  [][]string
	failOn string
}

func (r *recordingExecutor) Run(_ context.Context, _ string, args []string) error {
	r.calls = append(r.calls, args)
	if r.failOn != "" && strings.Contains(strings.Join(args, " "), r.failOn) {
		return errors.New("forced failure")
	}
	return nil
}

func newTestCombiner(t *testing.T, exec ffmpeg.Executor, probe probeFunc) *Combiner {
	t.Helper()
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("ffmpeg client: %v", err)
	}
	return New(client, "ffprobe", logging.NewNop(), WithProbe(probe))
}

func durationProbe(durations map[string]string) probeFunc {
	return func(_ context.Context, _, path string) (ffprobe.Result, error) {
		duration, ok := durations[path]
		if !ok {
			return ffprobe.Result{}, errors.New("unreadable")
		}
		return ffprobe.Result{Format: ffprobe.Format{Duration: duration}}, nil
	}
}

func TestAudioTrackTrimsAndSkips(t *testing.T) {
	exec := &recordingExecutor{}
	combiner := newTestCombiner(t, exec, durationProbe(map[string]string{
		"short.mp3": "90",
		"long.mp3":  "600",
		// broken.mp3 absent: probe fails, input is skipped
	}))

	window := truncation.Window{MaxMinutes: 3, CutoffMinutes: 2}
	used, err := combiner.AudioTrack(context.Background(), 1,
		[]string{"short.mp3", "broken.mp3", "long.mp3"},
		"out.mp3", AudioOptions{Window: window, BitrateKbps: 320})
	if err != nil {
		t.Fatalf("AudioTrack: %v", err)
	}
	if len(used) != 2 || used[0] != "short.mp3" || used[1] != "long.mp3" {
		t.Fatalf("unexpected used inputs: %v", used)
	}

	if len(exec.calls) != 1 {
		t.Fatalf("expected one ffmpeg invocation, got %d", len(exec.calls))
	}
	joined := strings.Join(exec.calls[0], " ")
	if !strings.Contains(joined, "atrim=0:120.000") {
		t.Fatalf("long input should be trimmed to the cutoff: %s", joined)
	}
	if strings.Contains(joined, "broken.mp3") {
		t.Fatalf("unreadable input must not reach ffmpeg: %s", joined)
	}
}

func TestAudioTrackAllUnreadableProducesEmptyTrack(t *testing.T) {
	exec := &recordingExecutor{}
	combiner := newTestCombiner(t, exec, durationProbe(nil))

	used, err := combiner.AudioTrack(context.Background(), 2,
		[]string{"a.mp3", "b.mp3"}, "out.mp3", AudioOptions{BitrateKbps: 320})
	if err != nil {
		t.Fatalf("AudioTrack: %v", err)
	}
	if len(used) != 0 {
		t.Fatalf("no inputs should survive: %v", used)
	}
	if len(exec.calls) != 1 || !strings.Contains(strings.Join(exec.calls[0], " "), "anullsrc") {
		t.Fatalf("expected an empty encode, got %v", exec.calls)
	}
}

func TestAudioTrackWithoutWindowKeepsEverything(t *testing.T) {
	exec := &recordingExecutor{}
	combiner := newTestCombiner(t, exec, durationProbe(map[string]string{"long.mp3": "7200"}))

	if _, err := combiner.AudioTrack(context.Background(), 1,
		[]string{"long.mp3"}, "out.mp3", AudioOptions{BitrateKbps: 320}); err != nil {
		t.Fatalf("AudioTrack: %v", err)
	}
	if strings.Contains(strings.Join(exec.calls[0], " "), "atrim") {
		t.Fatal("disabled window must not trim")
	}
}

func TestVideoTrackNormalizesThenJoins(t *testing.T) {
	exec := &recordingExecutor{}
	combiner := newTestCombiner(t, exec, durationProbe(nil))

	spec := ffmpeg.VideoSpec{Width: 1920, Height: 1080, FPS: 30, Preset: "medium", CRF: 23, AudioBitrateKbps: 192}
	err := combiner.VideoTrack(context.Background(), 1,
		[]string{"a.mp4", "b.mp4"}, "out.mp4", t.TempDir(), spec)
	if err != nil {
		t.Fatalf("VideoTrack: %v", err)
	}

	// Two normalizations followed by one concat.
	if len(exec.calls) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(exec.calls))
	}
	for _, call := range exec.calls[:2] {
		if !strings.Contains(strings.Join(call, " "), "libx264") {
			t.Fatalf("expected a normalization pass: %v", call)
		}
	}
	if !strings.Contains(strings.Join(exec.calls[2], " "), "concat") {
		t.Fatalf("expected a concat pass: %v", exec.calls[2])
	}
}

func TestVideoTrackFailsWhenNormalizationFails(t *testing.T) {
	exec := &recordingExecutor{failOn: "b.mp4"}
	combiner := newTestCombiner(t, exec, durationProbe(nil))

	spec := ffmpeg.VideoSpec{Width: 1920, Height: 1080, FPS: 30, Preset: "medium", CRF: 23, AudioBitrateKbps: 192}
	err := combiner.VideoTrack(context.Background(), 1,
		[]string{"a.mp4", "b.mp4"}, "out.mp4", t.TempDir(), spec)
	if err == nil {
		t.Fatal("a failed normalization must fail the step")
	}
}
