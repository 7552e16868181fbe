package project

import (
	"fmt"

	"go-pianoroll/grid"
)

// Project is the whole composition. It owns its tracks exclusively; tracks
// and notes are addressed by position.
type Project struct {
	Name          string
	TimeSignature TimeSignature
	BPM           float64
	Tracks        []Track
}

// TimeSignature only drives grid lines and measure boundaries. Note timing is
// always in whole notes.
type TimeSignature struct {
	Top    int // beats per measure
	Bottom int // note value per beat
}

// Values offered by the editor for the time signature fields
var (
	TimeSignatureTops    = []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	TimeSignatureBottoms = []int{4, 8, 16}
)

// New creates an empty project with defaults
func New() *Project {
	return &Project{
		Name:          "Untitled",
		TimeSignature: TimeSignature{Top: 4, Bottom: 4},
		BPM:           120,
		Tracks:        []Track{},
	}
}

// Length returns the end of the last note in whole notes (0 if empty)
func (p *Project) Length() float64 {
	length := 0.0
	for _, t := range p.Tracks {
		for _, n := range t.Notes {
			if end := n.End(); end > length {
				length = end
			}
		}
	}
	return length
}

// NumNotes counts notes across all tracks
func (p *Project) NumNotes() int {
	count := 0
	for _, t := range p.Tracks {
		count += len(t.Notes)
	}
	return count
}

// Clone returns a deep copy sharing no slices with p
func (p *Project) Clone() *Project {
	c := *p
	c.Tracks = make([]Track, len(p.Tracks))
	for i, t := range p.Tracks {
		c.Tracks[i] = t.Clone()
	}
	return &c
}

// DefaultTrackName names the track that would be appended next
func (p *Project) DefaultTrackName() string {
	return fmt.Sprintf("Track %d", len(p.Tracks)+1)
}

// DivisionsPerMeasure is the number of grid divisions in one measure
func (ts TimeSignature) DivisionsPerMeasure() int {
	if ts.Bottom <= 0 {
		return grid.MinDivision
	}
	d := ts.Top * grid.MinDivision / ts.Bottom
	if d < 1 {
		return 1
	}
	return d
}

// IsMeasureLine reports whether the grid line at division starts a measure
func (ts TimeSignature) IsMeasureLine(division int) bool {
	return division%ts.DivisionsPerMeasure() == 0
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Top, ts.Bottom)
}
