// Package action implements every project edit as a reversible command.
// Applying an action returns its inverse; History keeps the two stacks.
package action

import (
	"fmt"
	"slices"

	"go-pianoroll/grid"
	"go-pianoroll/project"
)

// Selection is the currently selected track, if any
type Selection struct {
	Index int
	Valid bool
}

// State is what actions operate on: the project plus the track selection
type State struct {
	Project  *project.Project
	Selected Selection
}

// Action is one document edit. apply mutates the state and returns the
// action that undoes it. Indices are trusted; an out-of-range index panics.
type Action interface {
	apply(s *State) Action
	String() string
}

// RenameProject sets the project name
type RenameProject struct {
	Name string
}

func (a RenameProject) apply(s *State) Action {
	old := s.Project.Name
	s.Project.Name = a.Name
	return RenameProject{Name: old}
}

func (a RenameProject) String() string { return fmt.Sprintf("rename project %q", a.Name) }

// SetBPM sets the tempo. No clamping is applied.
type SetBPM struct {
	BPM float64
}

func (a SetBPM) apply(s *State) Action {
	old := s.Project.BPM
	s.Project.BPM = a.BPM
	return SetBPM{BPM: old}
}

func (a SetBPM) String() string { return fmt.Sprintf("set bpm %g", a.BPM) }

// SetTimeSignatureTop sets beats per measure
type SetTimeSignatureTop struct {
	Value int
}

func (a SetTimeSignatureTop) apply(s *State) Action {
	old := s.Project.TimeSignature.Top
	s.Project.TimeSignature.Top = a.Value
	return SetTimeSignatureTop{Value: old}
}

func (a SetTimeSignatureTop) String() string { return fmt.Sprintf("set time signature top %d", a.Value) }

// SetTimeSignatureBottom sets the beat note value
type SetTimeSignatureBottom struct {
	Value int
}

func (a SetTimeSignatureBottom) apply(s *State) Action {
	old := s.Project.TimeSignature.Bottom
	s.Project.TimeSignature.Bottom = a.Value
	return SetTimeSignatureBottom{Value: old}
}

func (a SetTimeSignatureBottom) String() string {
	return fmt.Sprintf("set time signature bottom %d", a.Value)
}

// CreateTrack appends a track. The first track of a project becomes selected.
type CreateTrack struct {
	Track project.Track
}

func (a CreateTrack) apply(s *State) Action {
	s.Project.Tracks = append(s.Project.Tracks, a.Track.Clone())
	index := len(s.Project.Tracks) - 1
	if index == 0 {
		s.Selected = Selection{Index: 0, Valid: true}
	}
	return DeleteTrack{Index: index}
}

func (a CreateTrack) String() string { return fmt.Sprintf("create track %q", a.Track.Name) }

// DeleteTrack removes the track at Index. Its inverse appends the track back
// at the end rather than at its original position.
type DeleteTrack struct {
	Index int
}

func (a DeleteTrack) apply(s *State) Action {
	removed := s.Project.Tracks[a.Index]
	s.Project.Tracks = slices.Delete(s.Project.Tracks, a.Index, a.Index+1)
	if s.Selected.Valid && (s.Selected.Index == a.Index || s.Selected.Index >= len(s.Project.Tracks)) {
		s.Selected = Selection{}
	}
	return CreateTrack{Track: removed}
}

func (a DeleteTrack) String() string { return fmt.Sprintf("delete track %d", a.Index) }

// RenameTrack sets a track's name
type RenameTrack struct {
	Index int
	Name  string
}

func (a RenameTrack) apply(s *State) Action {
	t := &s.Project.Tracks[a.Index]
	old := t.Name
	t.Name = a.Name
	return RenameTrack{Index: a.Index, Name: old}
}

func (a RenameTrack) String() string { return fmt.Sprintf("rename track %d %q", a.Index, a.Name) }

// SetTrackInstrument sets a track's General MIDI program
type SetTrackInstrument struct {
	Index      int
	Instrument uint8
}

func (a SetTrackInstrument) apply(s *State) Action {
	t := &s.Project.Tracks[a.Index]
	old := t.Instrument
	t.Instrument = a.Instrument
	return SetTrackInstrument{Index: a.Index, Instrument: old}
}

func (a SetTrackInstrument) String() string {
	return fmt.Sprintf("set track %d instrument %d", a.Index, a.Instrument)
}

// CreateNote appends a note to a track
type CreateNote struct {
	Track int
	Note  project.Note
}

func (a CreateNote) apply(s *State) Action {
	t := &s.Project.Tracks[a.Track]
	n := a.Note
	n.Length = grid.ClampLength(n.Length)
	t.Notes = append(t.Notes, n)
	return DeleteNote{Track: a.Track, Note: len(t.Notes) - 1}
}

func (a CreateNote) String() string {
	return fmt.Sprintf("create note %s@%g on track %d", project.NoteName(a.Note.Pitch), a.Note.Offset, a.Track)
}

// DeleteNote removes a note. Like DeleteTrack, undo re-appends at the end.
type DeleteNote struct {
	Track int
	Note  int
}

func (a DeleteNote) apply(s *State) Action {
	t := &s.Project.Tracks[a.Track]
	removed := t.Notes[a.Note]
	t.Notes = slices.Delete(t.Notes, a.Note, a.Note+1)
	return CreateNote{Track: a.Track, Note: removed}
}

func (a DeleteNote) String() string { return fmt.Sprintf("delete note %d on track %d", a.Note, a.Track) }

// EditNote replaces a note's offset, pitch and length in place. Like
// CreateNote it floors a vanishing length to one division.
type EditNote struct {
	Track  int
	Note   int
	Offset float64
	Pitch  uint8
	Length float64
}

func (a EditNote) apply(s *State) Action {
	n := &s.Project.Tracks[a.Track].Notes[a.Note]
	inverse := EditNote{Track: a.Track, Note: a.Note, Offset: n.Offset, Pitch: n.Pitch, Length: n.Length}
	n.Offset = a.Offset
	n.Pitch = a.Pitch
	n.Length = grid.ClampLength(a.Length)
	return inverse
}

func (a EditNote) String() string {
	return fmt.Sprintf("edit note %d on track %d -> %s@%g len %g",
		a.Note, a.Track, project.NoteName(a.Pitch), a.Offset, a.Length)
}
