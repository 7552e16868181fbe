// Package playback streams a project to a MIDI output in real time.
package playback

import (
	"math"
	"sync"
	"time"

	"go-pianoroll/debug"
	"go-pianoroll/grid"
	"go-pianoroll/midi"
	"go-pianoroll/project"
)

const (
	// A note fires when the play head is this close to its start or end
	matchEpsilon = 1e-5
	// The play head stops this close to the project end
	endEpsilon = 1e-4
)

// PreviewDuration is how long a previewed key sounds
const PreviewDuration = time.Second

// Output receives the events the player emits
type Output interface {
	Send(e midi.Event) error
}

type trackNotes struct {
	instrument uint8
	notes      []project.Note
}

// Player ticks through a snapshot of the project once per grid division.
// Toggle starts and stops it; progress is relative to the start offset.
type Player struct {
	mu       sync.Mutex
	out      Output
	clock    Clock
	task     Task
	gen      uint64 // bumped on every start/stop so stale ticks are dropped
	tracks   []trackNotes
	length   float64
	offset   float64
	progress float64

	previews   map[int]Task
	nextID     int
	onProgress func(progress float64, playing bool)
}

// NewPlayer creates a stopped player. A nil clock uses TickerClock.
func NewPlayer(out Output, clock Clock) *Player {
	if clock == nil {
		clock = TickerClock{}
	}
	return &Player{
		out:      out,
		clock:    clock,
		previews: make(map[int]Task),
	}
}

// SetOutput swaps the output port. nil silences the player.
func (p *Player) SetOutput(out Output) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = out
}

// HasOutput reports whether an output is attached
func (p *Player) HasOutput() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out != nil
}

// OnProgress registers fn to be called after every tick and on stop. fn runs
// on the clock's goroutine and must not call back into the player.
func (p *Player) OnProgress(fn func(progress float64, playing bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onProgress = fn
}

// Playing reports whether the tick loop is running
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task != nil
}

// Progress is the distance in whole notes from the start offset
func (p *Player) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Toggle silences every pitch, then stops playback if it is running or
// starts it from offset otherwise. A running loop stops even after the
// output went away; starting needs an output and a playable tempo.
func (p *Player) Toggle(proj *project.Project, offset float64) {
	p.mu.Lock()
	if p.task != nil {
		p.allNotesOffLocked()
		p.stopLocked()
		notify := p.onProgress
		p.mu.Unlock()
		debug.Log("playback", "stopped")
		if notify != nil {
			notify(0, false)
		}
		return
	}
	if p.out == nil {
		p.mu.Unlock()
		return
	}
	period := grid.TickPeriod(proj.BPM)
	if period <= 0 {
		p.mu.Unlock()
		debug.Log("playback", "not starting at %g bpm", proj.BPM)
		return
	}
	p.allNotesOffLocked()

	p.tracks = p.tracks[:0]
	for _, t := range proj.Tracks {
		c := t.Clone()
		p.tracks = append(p.tracks, trackNotes{instrument: t.Instrument, notes: c.Notes})
	}
	p.length = proj.Length()
	p.offset = offset
	p.progress = 0
	p.gen++
	gen := p.gen
	p.task = p.clock.Every(period, func() { p.tick(gen) })
	p.mu.Unlock()

	debug.Log("playback", "started at %g (length %g, tick %s)", offset, p.length, period)
}

// Stop halts playback and resets progress
func (p *Player) Stop() {
	p.mu.Lock()
	if p.task == nil {
		p.mu.Unlock()
		return
	}
	p.stopLocked()
	notify := p.onProgress
	p.mu.Unlock()
	if notify != nil {
		notify(0, false)
	}
}

func (p *Player) stopLocked() {
	p.task.Stop()
	p.task = nil
	p.gen++
	p.progress = 0
}

func (p *Player) tick(gen uint64) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}

	p.emitLocked(p.offset + p.progress)
	p.progress += grid.MinInterval

	playing := true
	if p.offset+p.progress-endEpsilon >= p.length {
		p.stopLocked()
		playing = false
		debug.Log("playback", "reached end")
	}
	progress := p.progress
	notify := p.onProgress
	p.mu.Unlock()

	if notify != nil {
		notify(progress, playing)
	}
}

// emitLocked sends the events due at local. Each track with events gets its
// program change first.
func (p *Player) emitLocked(local float64) {
	if p.out == nil {
		return
	}
	for _, t := range p.tracks {
		var events []midi.Event
		for _, n := range t.notes {
			switch {
			case math.Abs(local-n.Offset) <= matchEpsilon:
				events = append(events, midi.NoteOnEvent(n.Pitch, midi.FullVelocity))
			case math.Abs(local-n.End()) <= matchEpsilon:
				events = append(events, midi.NoteOffEvent(n.Pitch, midi.FullVelocity))
			}
		}
		if len(events) == 0 {
			continue
		}
		p.sendLocked(midi.ProgramChangeEvent(t.instrument))
		for _, e := range events {
			p.sendLocked(e)
		}
	}
}

func (p *Player) sendLocked(e midi.Event) {
	if p.out == nil {
		return
	}
	if err := p.out.Send(e); err != nil {
		debug.LogEvery(50, "playback", "send failed: %v", err)
	}
}

func (p *Player) allNotesOffLocked() {
	for pitch := 0; pitch <= grid.MaxPitch; pitch++ {
		p.sendLocked(midi.NoteOffEvent(uint8(pitch), midi.FullVelocity))
	}
}

// PreviewNote plays pitch on instrument now and releases it after d
func (p *Player) PreviewNote(instrument, pitch uint8, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}
	p.sendLocked(midi.ProgramChangeEvent(instrument))
	p.sendLocked(midi.NoteOnEvent(pitch, midi.FullVelocity))

	id := p.nextID
	p.nextID++
	p.previews[id] = p.clock.AfterFunc(d, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.previews[id]; !ok {
			return
		}
		delete(p.previews, id)
		if p.out != nil {
			p.sendLocked(midi.NoteOffEvent(pitch, midi.FullVelocity))
		}
	})
}

// Close stops playback and pending previews and silences the output
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.task != nil {
		p.stopLocked()
	}
	for id, t := range p.previews {
		t.Stop()
		delete(p.previews, id)
	}
	if p.out != nil {
		p.allNotesOffLocked()
	}
}
