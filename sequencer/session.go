// Package sequencer ties the editing history, the player and the MIDI output
// together into one editing session driven by UI intents.
package sequencer

import (
	"fmt"
	"path/filepath"

	"go-pianoroll/action"
	"go-pianoroll/debug"
	"go-pianoroll/export"
	"go-pianoroll/grid"
	"go-pianoroll/playback"
	"go-pianoroll/project"
)

// DefaultNoteLength is the length of the first note placed in a session
const DefaultNoteLength = 1.0 / 8

// Session owns the project, its undo history and the player for the lifetime
// of the application. Apart from player callbacks it is used from a single
// goroutine.
type Session struct {
	history *action.History
	player  *playback.Player
	clock   playback.Clock
	out     playback.Output
	outName string

	playOffset float64
	lastLength float64
	drag       dragState

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// Option configures a Session
type Option func(*Session)

// WithOutput attaches an output from the start
func WithOutput(out playback.Output, name string) Option {
	return func(s *Session) {
		s.out = out
		s.outName = name
	}
}

// WithClock replaces the wall clock used for playback
func WithClock(c playback.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// NewSession starts a session on p
func NewSession(p *project.Project, opts ...Option) *Session {
	s := &Session{
		history:    action.NewHistory(p),
		lastLength: DefaultNoteLength,
		UpdateChan: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.player = playback.NewPlayer(s.out, s.clock)
	s.player.OnProgress(func(float64, bool) { s.notifyUpdate() })
	return s
}

// notifyUpdate wakes the TUI without blocking
func (s *Session) notifyUpdate() {
	select {
	case s.UpdateChan <- struct{}{}:
	default:
	}
}

func (s *Session) perform(a action.Action) {
	s.history.Perform(a)
	s.notifyUpdate()
}

// Project returns the live project for rendering
func (s *Session) Project() *project.Project {
	return s.history.Project()
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Selected returns the selected track index
func (s *Session) Selected() (int, bool) {
	return s.history.Selected()
}

// SelectedTrack returns the selected track or nil
func (s *Session) SelectedTrack() *project.Track {
	i, ok := s.history.Selected()
	if !ok {
		return nil
	}
	return &s.Project().Tracks[i]
}

// SelectTrack selects track i; an index with no track clears the selection
func (s *Session) SelectTrack(i int) {
	s.cancelDrag()
	s.history.Select(i)
}

// DeselectTrack clears the selection
func (s *Session) DeselectTrack() {
	s.cancelDrag()
	s.history.Deselect()
}

// CreateTrack appends an empty track named after its position
func (s *Session) CreateTrack() {
	p := s.Project()
	s.perform(action.CreateTrack{Track: project.NewTrack(p.DefaultTrackName())})
}

// DeleteSelectedTrack removes the selected track and selects its neighbour.
// It reports false when nothing was selected.
func (s *Session) DeleteSelectedTrack() bool {
	i, ok := s.history.Selected()
	if !ok {
		return false
	}
	s.cancelDrag()
	s.perform(action.DeleteTrack{Index: i})

	if len(s.Project().Tracks) > 0 {
		s.history.Select(max(i-1, 0))
	} else {
		s.history.Deselect()
	}
	return true
}

// RenameSelectedTrack renames the selected track, if any
func (s *Session) RenameSelectedTrack(name string) {
	if i, ok := s.history.Selected(); ok {
		s.perform(action.RenameTrack{Index: i, Name: name})
	}
}

// SetSelectedTrackInstrument sets the selected track's program, if any
func (s *Session) SetSelectedTrackInstrument(program uint8) {
	if i, ok := s.history.Selected(); ok {
		s.perform(action.SetTrackInstrument{Index: i, Instrument: program & 0x7F})
	}
}

func (s *Session) SetProjectName(name string) {
	s.perform(action.RenameProject{Name: name})
}

func (s *Session) SetBPM(bpm float64) {
	s.perform(action.SetBPM{BPM: bpm})
}

func (s *Session) SetTimeSignatureTop(top int) {
	s.perform(action.SetTimeSignatureTop{Value: top})
}

func (s *Session) SetTimeSignatureBottom(bottom int) {
	s.perform(action.SetTimeSignatureBottom{Value: bottom})
}

// Undo reverts the last edit
func (s *Session) Undo() bool {
	s.cancelDrag()
	ok := s.history.Undo()
	if ok {
		s.notifyUpdate()
	}
	return ok
}

// Redo re-applies the last undone edit
func (s *Session) Redo() bool {
	s.cancelDrag()
	ok := s.history.Redo()
	if ok {
		s.notifyUpdate()
	}
	return ok
}

// Playback

// SetOutput routes playback to out and plays a short test note on it.
// A nil out detaches the current output.
func (s *Session) SetOutput(out playback.Output, name string) {
	s.out = out
	s.outName = name
	s.player.SetOutput(out)
	if out != nil {
		debug.Log("session", "output set to %q", name)
		s.player.PreviewNote(0, 60, playback.PreviewDuration)
	} else {
		debug.Log("session", "output detached")
	}
	s.notifyUpdate()
}

// OutputName is the name of the attached output ("" when none)
func (s *Session) OutputName() string {
	if s.out == nil {
		return ""
	}
	return s.outName
}

// TogglePlayback starts or stops playback from the play offset
func (s *Session) TogglePlayback() {
	s.player.Toggle(s.Project(), s.playOffset)
	s.notifyUpdate()
}

func (s *Session) Playing() bool      { return s.player.Playing() }
func (s *Session) Progress() float64  { return s.player.Progress() }
func (s *Session) PlayOffset() float64 { return s.playOffset }

// SetPlayOffset moves the start of playback, never before 0
func (s *Session) SetPlayOffset(offset float64) {
	s.playOffset = max(offset, 0)
	s.notifyUpdate()
}

// SetPlayOffsetFromPointer maps a progress bar position to the play offset
func (s *Session) SetPlayOffsetFromPointer(x, keysWidth float64) {
	s.SetPlayOffset(grid.PlayOffset(x, keysWidth, grid.WholeNoteWidth))
}

// PreviewKey sounds pitch on the selected track's instrument
func (s *Session) PreviewKey(pitch uint8) {
	instrument := uint8(0)
	if t := s.SelectedTrack(); t != nil {
		instrument = t.Instrument
	}
	s.player.PreviewNote(instrument, pitch, playback.PreviewDuration)
}

// LastLength is the length the next created note will get
func (s *Session) LastLength() float64 {
	return s.lastLength
}

// ExportMIDI writes the project to dir using the file name template and
// returns the written path.
func (s *Session) ExportMIDI(dir, tmpl string) (string, error) {
	p := s.Project()
	name, err := export.FileName(tmpl, p)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := export.WriteFile(path, p); err != nil {
		debug.Log("session", "export failed: %v", err)
		return "", fmt.Errorf("export midi: %w", err)
	}
	return path, nil
}

// Close stops playback and silences the output
func (s *Session) Close() {
	s.player.Close()
}
