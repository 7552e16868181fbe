package playback_test

import (
	"sync"
	"testing"
	"time"

	"go-pianoroll/grid"
	"go-pianoroll/midi"
	"go-pianoroll/playback"
	"go-pianoroll/project"
)

type recorder struct {
	mu     sync.Mutex
	events []midi.Event
}

func (r *recorder) Send(e midi.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) take() []midi.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

type fakeTask struct{ stopped bool }

func (t *fakeTask) Stop() { t.stopped = true }

type scheduled struct {
	d    time.Duration
	fn   func()
	task *fakeTask
}

// manualClock fires callbacks only when the test asks
type manualClock struct {
	every []scheduled
	after []scheduled
}

func (c *manualClock) Every(d time.Duration, fn func()) playback.Task {
	s := scheduled{d, fn, &fakeTask{}}
	c.every = append(c.every, s)
	return s.task
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) playback.Task {
	s := scheduled{d, fn, &fakeTask{}}
	c.after = append(c.after, s)
	return s.task
}

// tick fires the most recent repeating task, as a real ticker would
func (c *manualClock) tick(t *testing.T) {
	t.Helper()
	if len(c.every) == 0 {
		t.Fatal("no repeating task scheduled")
	}
	s := c.every[len(c.every)-1]
	if !s.task.stopped {
		s.fn()
	}
}

func song() *project.Project {
	p := project.New()
	a := project.NewTrack("Lead")
	a.Instrument = 4
	a.Notes = []project.Note{{Pitch: 60, Offset: 0, Length: 0.125}}
	b := project.NewTrack("Bass")
	b.Instrument = 33
	b.Notes = []project.Note{{Pitch: 36, Offset: 0.0625, Length: 0.0625}}
	p.Tracks = []project.Track{a, b}
	return p
}

func TestToggleWithoutOutput(t *testing.T) {
	clock := &manualClock{}
	p := playback.NewPlayer(nil, clock)
	p.Toggle(song(), 0)
	if p.Playing() || len(clock.every) != 0 {
		t.Fatal("player started without an output")
	}
}

func TestToggleStopsAfterOutputDetached(t *testing.T) {
	out := &recorder{}
	clock := &manualClock{}
	p := playback.NewPlayer(out, clock)
	p.Toggle(song(), 0)
	clock.tick(t)

	p.SetOutput(nil)
	clock.tick(t) // keeps running, sends nothing
	p.Toggle(song(), 0)
	if p.Playing() {
		t.Fatal("Toggle without an output did not stop playback")
	}
	if !clock.every[0].task.stopped {
		t.Error("tick task left running")
	}
}

func TestToggleRejectsBadTempo(t *testing.T) {
	clock := &manualClock{}
	p := playback.NewPlayer(&recorder{}, clock)
	proj := song()
	proj.BPM = 1e12
	p.Toggle(proj, 0)
	if p.Playing() || len(clock.every) != 0 {
		t.Error("started with a zero tick period")
	}
}

func TestTogglePanicsThenPlays(t *testing.T) {
	out := &recorder{}
	clock := &manualClock{}
	p := playback.NewPlayer(out, clock)

	p.Toggle(song(), 0)
	events := out.take()
	if len(events) != 128 {
		t.Fatalf("Toggle sent %d events before playing, want 128 note-offs", len(events))
	}
	for i, e := range events {
		if e.Type != midi.NoteOff || int(e.Note) != i {
			t.Fatalf("panic event %d = %v", i, e)
		}
	}
	if !p.Playing() {
		t.Fatal("not playing after Toggle")
	}
	if got, want := clock.every[0].d, grid.TickPeriod(120); got != want {
		t.Errorf("tick period = %s, want %s", got, want)
	}

	clock.tick(t) // 0
	want := []midi.Event{midi.ProgramChangeEvent(4), midi.NoteOnEvent(60, 127)}
	assertEvents(t, "tick 0", out.take(), want)

	clock.tick(t) // 1/16
	want = []midi.Event{midi.ProgramChangeEvent(33), midi.NoteOnEvent(36, 127)}
	assertEvents(t, "tick 1", out.take(), want)
	if got := p.Progress(); got != 0.125 {
		t.Errorf("progress = %v, want 0.125", got)
	}

	clock.tick(t) // 1/8: both notes end, which is also the project end
	want = []midi.Event{
		midi.ProgramChangeEvent(4), midi.NoteOffEvent(60, 127),
		midi.ProgramChangeEvent(33), midi.NoteOffEvent(36, 127),
	}
	assertEvents(t, "tick 2", out.take(), want)
	if p.Playing() {
		t.Error("still playing past the end")
	}
	if got := p.Progress(); got != 0 {
		t.Errorf("progress after auto-stop = %v, want 0", got)
	}
	if !clock.every[0].task.stopped {
		t.Error("tick task not cancelled on auto-stop")
	}
}

func TestToggleStops(t *testing.T) {
	out := &recorder{}
	clock := &manualClock{}
	p := playback.NewPlayer(out, clock)

	var mu sync.Mutex
	var last struct {
		progress float64
		playing  bool
	}
	p.OnProgress(func(progress float64, playing bool) {
		mu.Lock()
		defer mu.Unlock()
		last.progress, last.playing = progress, playing
	})

	p.Toggle(song(), 0)
	clock.tick(t)
	if !last.playing || last.progress != grid.MinInterval {
		t.Fatalf("progress callback = %+v", last)
	}

	out.take()
	p.Toggle(song(), 0)
	if p.Playing() || p.Progress() != 0 {
		t.Fatal("second Toggle did not stop")
	}
	if n := len(out.take()); n != 128 {
		t.Errorf("stopping sent %d events, want 128 note-offs", n)
	}
	if last.playing || last.progress != 0 {
		t.Errorf("stop callback = %+v", last)
	}

	// a tick delivered after cancellation must be ignored
	clock.every[0].fn()
	if n := len(out.take()); n != 0 {
		t.Errorf("stale tick sent %d events", n)
	}
}

func TestPlayFromOffset(t *testing.T) {
	out := &recorder{}
	clock := &manualClock{}
	p := playback.NewPlayer(out, clock)

	p.Toggle(song(), 0.0625)
	out.take()
	clock.tick(t)
	want := []midi.Event{midi.ProgramChangeEvent(33), midi.NoteOnEvent(36, 127)}
	assertEvents(t, "first tick from offset", out.take(), want)
	if p.Progress() != grid.MinInterval {
		t.Errorf("progress = %v", p.Progress())
	}
}

func TestSnapshotIgnoresLaterEdits(t *testing.T) {
	out := &recorder{}
	clock := &manualClock{}
	p := playback.NewPlayer(out, clock)
	proj := song()

	p.Toggle(proj, 0)
	out.take()
	proj.Tracks[0].Notes[0].Pitch = 90
	clock.tick(t)
	assertEvents(t, "tick", out.take(), []midi.Event{midi.ProgramChangeEvent(4), midi.NoteOnEvent(60, 127)})
}

func TestEmptyProjectStopsOnFirstTick(t *testing.T) {
	clock := &manualClock{}
	p := playback.NewPlayer(&recorder{}, clock)
	p.Toggle(project.New(), 0)
	clock.tick(t)
	if p.Playing() {
		t.Error("empty project kept playing")
	}
}

func TestPreviewNote(t *testing.T) {
	out := &recorder{}
	clock := &manualClock{}
	p := playback.NewPlayer(out, clock)

	p.PreviewNote(5, 64, playback.PreviewDuration)
	assertEvents(t, "preview", out.take(), []midi.Event{midi.ProgramChangeEvent(5), midi.NoteOnEvent(64, 127)})
	if len(clock.after) != 1 || clock.after[0].d != time.Second {
		t.Fatalf("release not scheduled: %+v", clock.after)
	}
	clock.after[0].fn()
	assertEvents(t, "release", out.take(), []midi.Event{midi.NoteOffEvent(64, 127)})

	// releasing twice is harmless
	clock.after[0].fn()
	if n := len(out.take()); n != 0 {
		t.Errorf("second release sent %d events", n)
	}
}

func TestCloseCancelsPreviews(t *testing.T) {
	out := &recorder{}
	clock := &manualClock{}
	p := playback.NewPlayer(out, clock)
	p.PreviewNote(0, 60, time.Second)
	p.Close()
	if !clock.after[0].task.stopped {
		t.Error("Close left the release timer running")
	}
	out.take()
	clock.after[0].fn()
	if n := len(out.take()); n != 0 {
		t.Errorf("cancelled release sent %d events", n)
	}
}

func TestTickerClock(t *testing.T) {
	var mu sync.Mutex
	count := 0
	task := playback.TickerClock{}.Every(time.Millisecond, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := count
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("ticker fired %d times in 2s", n)
		}
		time.Sleep(time.Millisecond)
	}
	task.Stop()
	task.Stop()

	fired := make(chan struct{})
	playback.TickerClock{}.AfterFunc(time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc did not fire")
	}
}

func assertEvents(t *testing.T, label string, got, want []midi.Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", label, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: event %d = %v, want %v", label, i, got[i], want[i])
		}
	}
}
