package project

import (
	"fmt"

	"go-pianoroll/grid"
)

// Note is a single event on a track. Offset and Length are in whole notes.
type Note struct {
	Pitch    uint8
	Velocity uint8
	Offset   float64
	Length   float64
}

// End returns the offset where the note stops sounding
func (n Note) End() float64 {
	return n.Offset + n.Length
}

// Screen geometry in piano roll pixels

func (n Note) ScreenX() float64      { return n.Offset * grid.WholeNoteWidth }
func (n Note) ScreenY() float64      { return float64(grid.MaxPitch-int(n.Pitch)) * grid.RowHeight }
func (n Note) ScreenWidth() float64  { return n.Length * grid.WholeNoteWidth }
func (n Note) ScreenHeight() float64 { return grid.RowHeight }
func (n Note) RightEdge() float64    { return n.ScreenX() + n.ScreenWidth() }
func (n Note) BottomEdge() float64   { return n.ScreenY() + n.ScreenHeight() }

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a pitch as a name with octave, 60 being C4
func NoteName(pitch uint8) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], int(pitch)/12-1)
}

// IsBlackKey reports whether the pitch is a sharp
func IsBlackKey(pitch uint8) bool {
	return len(noteNames[pitch%12]) > 1
}
