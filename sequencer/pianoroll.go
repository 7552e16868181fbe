package sequencer

import (
	"go-pianoroll/action"
	"go-pianoroll/grid"
	"go-pianoroll/project"
)

// Button is a pointer button
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
)

type dragKind int

const (
	dragNone dragKind = iota
	dragLeftEdge
	dragRightEdge
	dragMove
	dragCreate
	dragPlayOffset
)

// dragState is an in-progress pointer gesture. The edited note lives in
// ghost until release; the project is only touched by the committed action.
type dragState struct {
	kind      dragKind
	track     int
	note      int // -1 while creating
	grab      float64
	ghost     project.Note
	keysWidth float64
}

func (s *Session) cancelDrag() {
	s.drag = dragState{}
}

// Dragging reports whether a pointer gesture is in progress
func (s *Session) Dragging() bool {
	return s.drag.kind != dragNone
}

// BeginPlayOffsetDrag starts scrubbing the progress bar at x
func (s *Session) BeginPlayOffsetDrag(x, keysWidth float64) {
	if s.drag.kind != dragNone {
		return
	}
	s.drag = dragState{kind: dragPlayOffset, keysWidth: keysWidth}
	s.SetPlayOffsetFromPointer(x, keysWidth)
}

// PointerDown handles a press at piano roll pixel (x, y) on the selected
// track. Left on a note edge resizes, left on a note body moves, left on empty
// space creates a note, right deletes the note under the pointer. It reports
// whether anything changed.
func (s *Session) PointerDown(x, y float64, button Button) bool {
	if s.drag.kind != dragNone {
		return false
	}
	ti, ok := s.history.Selected()
	if !ok {
		return false
	}
	track := &s.Project().Tracks[ti]

	switch button {
	case ButtonLeft:
		if ni, hit := track.NoteAt(x, y); hit {
			n := track.Notes[ni]
			d := dragState{track: ti, note: ni, ghost: n}
			switch grid.HitZone(x, n.ScreenX(), n.RightEdge()) {
			case grid.ZoneLeftEdge:
				d.kind = dragLeftEdge
			case grid.ZoneRightEdge:
				d.kind = dragRightEdge
			default:
				d.kind = dragMove
				d.grab = grid.PointerToOffset(x, grid.WholeNoteWidth) - n.Offset
			}
			s.drag = d
		} else {
			s.drag = dragState{
				kind:  dragCreate,
				track: ti,
				note:  -1,
				ghost: project.Note{
					Pitch:    grid.PointerToPitch(y, grid.RowHeight),
					Velocity: 127,
					Offset:   grid.PointerToOffset(x, grid.WholeNoteWidth),
					Length:   s.lastLength,
				},
			}
		}
		s.notifyUpdate()
		return true

	case ButtonRight:
		return s.deleteNoteAt(ti, x, y)
	}
	return false
}

// PointerMove updates the gesture in progress. With no gesture, moving with
// the right button held deletes notes under the pointer.
func (s *Session) PointerMove(x, y float64, held Button) bool {
	d := &s.drag
	switch d.kind {
	case dragNone:
		if held == ButtonRight {
			if ti, ok := s.history.Selected(); ok {
				return s.deleteNoteAt(ti, x, y)
			}
		}
		return false

	case dragPlayOffset:
		s.SetPlayOffsetFromPointer(x, d.keysWidth)
		return true
	}

	n := &d.ghost
	offset := grid.PointerToOffset(x, grid.WholeNoteWidth)
	pitch := grid.PointerToPitch(y, grid.RowHeight)

	switch d.kind {
	case dragMove:
		n.Offset = max(offset-d.grab, 0)
		n.Pitch = pitch
	case dragCreate:
		n.Offset = max(offset, 0)
		n.Pitch = pitch
	case dragLeftEdge:
		offset = max(min(offset, n.End()), 0)
		n.Length += n.Offset - offset
		n.Offset = offset
	case dragRightEdge:
		offset = max(offset, n.Offset-n.Length)
		n.Length = offset - n.Offset
	}
	n.Length = grid.ClampLength(n.Length)
	s.lastLength = n.Length
	s.notifyUpdate()
	return true
}

// PointerUp commits the gesture as a single undoable action
func (s *Session) PointerUp() bool {
	d := s.drag
	s.drag = dragState{}

	switch d.kind {
	case dragNone:
		return false
	case dragPlayOffset:
		return true
	case dragCreate:
		s.perform(action.CreateNote{Track: d.track, Note: d.ghost})
	default:
		s.perform(action.EditNote{
			Track:  d.track,
			Note:   d.note,
			Offset: d.ghost.Offset,
			Pitch:  d.ghost.Pitch,
			Length: d.ghost.Length,
		})
	}
	return true
}

func (s *Session) deleteNoteAt(track int, x, y float64) bool {
	ni, ok := s.Project().Tracks[track].NoteAt(x, y)
	if !ok {
		return false
	}
	s.perform(action.DeleteNote{Track: track, Note: ni})
	return true
}

// Hover reports which part of a note of the selected track is under (x, y)
func (s *Session) Hover(x, y float64) grid.Zone {
	t := s.SelectedTrack()
	if t == nil {
		return grid.ZoneNone
	}
	ni, ok := t.NoteAt(x, y)
	if !ok {
		return grid.ZoneNone
	}
	n := t.Notes[ni]
	return grid.HitZone(x, n.ScreenX(), n.RightEdge())
}

// VisibleNotes returns the selected track's notes as they should be drawn,
// with any note being dragged shown at its dragged position. The second
// result is the index of that note, or -1.
func (s *Session) VisibleNotes() ([]project.Note, int) {
	t := s.SelectedTrack()
	if t == nil {
		return nil, -1
	}
	notes := make([]project.Note, len(t.Notes), len(t.Notes)+1)
	copy(notes, t.Notes)

	ti, _ := s.history.Selected()
	d := s.drag
	if d.track != ti {
		return notes, -1
	}
	switch d.kind {
	case dragCreate:
		return append(notes, d.ghost), len(notes)
	case dragMove, dragLeftEdge, dragRightEdge:
		notes[d.note] = d.ghost
		return notes, d.note
	}
	return notes, -1
}
