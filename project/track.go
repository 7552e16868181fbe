package project

// noteHitEpsilon widens note bounds slightly so clicks on the border count
const noteHitEpsilon = 1e-3

// Track is one instrument lane. Notes keep insertion order; their index is
// the identity used by actions.
type Track struct {
	Name       string
	Instrument uint8 // General MIDI program (0-127)
	Notes      []Note
}

// NewTrack creates an empty track with the given name on program 0
func NewTrack(name string) Track {
	return Track{
		Name:  name,
		Notes: []Note{},
	}
}

// Clone returns a copy with its own notes slice
func (t Track) Clone() Track {
	c := t
	c.Notes = make([]Note, len(t.Notes))
	copy(c.Notes, t.Notes)
	return c
}

// NoteAt returns the index of the note under the pixel position (x, y).
// Overlapping notes resolve to the last one, which is also drawn on top.
func (t *Track) NoteAt(x, y float64) (int, bool) {
	found := -1
	for i, n := range t.Notes {
		dx := x - n.ScreenX()
		dy := y - n.ScreenY()
		if dx >= -noteHitEpsilon && dy >= -noteHitEpsilon &&
			dx < n.ScreenWidth()+noteHitEpsilon && dy < n.ScreenHeight()+noteHitEpsilon {
			found = i
		}
	}
	return found, found >= 0
}
