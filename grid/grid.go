// Package grid holds the piano roll's time grid and pixel geometry, and the
// conversions between pointer positions, offsets, pitches and tick periods.
package grid

import (
	"math"
	"time"
)

// Time grid: offsets and lengths are in whole notes, quantized to 1/16
const (
	MinDivision = 16
	MinInterval = 1.0 / MinDivision
)

// Piano roll pixel geometry
const (
	WholeNoteWidth = 320.0 // px per whole note
	RowHeight      = 30.0  // px per pitch row
	EdgeWidth      = 6.0   // px of resize handle on each side of a note
	DivisionWidth  = WholeNoteWidth * MinInterval
)

// MinLength is the smallest length a drag may produce before it is floored
// back to one grid division.
const MinLength = 1e-4

const MaxPitch = 127

// Tempo range accepted from config and the tempo keys
const (
	MinBPM = 20.0
	MaxBPM = 300.0
)

// Snap rounds x to a multiple of precision. The remainder decides the
// direction: half a step or more rounds up, anything less rounds down.
func Snap(x, precision float64) float64 {
	n := math.Floor(x / precision)
	r := x - n*precision
	if r >= precision/2 {
		n++
	}
	return n * precision
}

// PointerToOffset converts a horizontal pixel position to a snapped offset.
func PointerToOffset(x, wholeNoteWidth float64) float64 {
	return Snap(x/wholeNoteWidth, MinInterval)
}

// PointerToPitch converts a vertical pixel position to a pitch. Pitch 127 is
// drawn at the top so the axis is inverted.
func PointerToPitch(y, rowHeight float64) uint8 {
	return ClampPitch(int(math.Round(MaxPitch - y/rowHeight)))
}

// PlayOffset converts a pointer position on the progress bar (which starts
// after the piano keys) to a snapped play offset.
func PlayOffset(x, keysWidth, wholeNoteWidth float64) float64 {
	return Snap((x-keysWidth)/wholeNoteWidth, MinInterval)
}

// ClampPitch keeps v inside the MIDI note range.
func ClampPitch(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > MaxPitch {
		return MaxPitch
	}
	return uint8(v)
}

// ClampLength floors degenerate lengths to one grid division.
func ClampLength(length float64) float64 {
	if !(length > MinLength) { // NaN too
		return MinInterval
	}
	return length
}

// SecondsPerWholeNote converts tempo to the duration of one whole note.
func SecondsPerWholeNote(bpm float64) float64 {
	return 240 / bpm
}

// TickPeriod is the wall-clock duration of one grid division at bpm.
func TickPeriod(bpm float64) time.Duration {
	return time.Duration(MinInterval * SecondsPerWholeNote(bpm) * float64(time.Second))
}

// Zone identifies which part of a note a pointer is over.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneLeftEdge
	ZoneRightEdge
	ZoneBody
)

func (z Zone) String() string {
	switch z {
	case ZoneLeftEdge:
		return "left-edge"
	case ZoneRightEdge:
		return "right-edge"
	case ZoneBody:
		return "body"
	default:
		return "none"
	}
}

// HitZone classifies x against a note spanning [left, right] px. The caller
// has already established the pointer is inside the note's bounds. The left
// band wins when a note is narrower than two handles.
func HitZone(x, left, right float64) Zone {
	if x <= left+EdgeWidth {
		return ZoneLeftEdge
	}
	if x >= right-EdgeWidth {
		return ZoneRightEdge
	}
	return ZoneBody
}
