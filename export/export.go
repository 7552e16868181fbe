// Package export encodes a project as a format 0 Standard MIDI File.
package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"go-pianoroll/debug"
	"go-pianoroll/midi"
	"go-pianoroll/project"
)

// TicksPerQuarterNote is the header division
const TicksPerQuarterNote = 1024

// Message is a channel event at an absolute offset in whole notes
type Message struct {
	Offset float64
	Event  midi.Event
}

// Messages flattens every note into ProgramChange, NoteOn and NoteOff events,
// sorted by offset. Events at equal offsets keep track and note order.
func Messages(p *project.Project) []Message {
	msgs := make([]Message, 0, p.NumNotes()*3)
	for _, t := range p.Tracks {
		for _, n := range t.Notes {
			msgs = append(msgs,
				Message{Offset: n.Offset, Event: midi.ProgramChangeEvent(t.Instrument)},
				Message{Offset: n.Offset, Event: midi.NoteOnEvent(n.Pitch, midi.FullVelocity)},
				Message{Offset: n.End(), Event: midi.NoteOffEvent(n.Pitch, midi.FullVelocity)},
			)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Offset < msgs[j].Offset
	})
	return msgs
}

// DeltaMultiplier converts whole notes to ticks at bpm
func DeltaMultiplier(bpm float64) uint32 {
	return uint32(math.Round(480 / bpm * TicksPerQuarterNote))
}

// EncodeVarLen encodes v as a MIDI variable-length quantity
func EncodeVarLen(v uint32) []byte {
	out := []byte{byte(v & 0x7F)}
	for v >>= 7; v != 0; v >>= 7 {
		out = append([]byte{byte(v&0x7F) | 0x80}, out...)
	}
	return out
}

// Track builds the single track of the file: every message at its rounded
// tick delta, closed with an end-of-track marker.
func Track(p *project.Project) smf.Track {
	mult := float64(DeltaMultiplier(p.BPM))

	var tr smf.Track
	last := 0.0
	for _, m := range Messages(p) {
		delta := uint32(math.Round((m.Offset - last) * mult))
		last = m.Offset
		tr.Add(delta, m.Event.Message())
	}
	tr.Close(0)
	return tr
}

// Write encodes p to w as a format 0 file. Running status is not used so
// every event carries its status byte.
func Write(w io.Writer, p *project.Project) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarterNote)
	s.NoRunningStatus = true
	if err := s.Add(Track(p)); err != nil {
		return fmt.Errorf("build midi: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}

// Encode returns the complete file: MThd followed by a single MTrk
func Encode(p *project.Project) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes p to path, creating parent directories
func WriteFile(path string, p *project.Project) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export dir: %w", err)
	}
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	debug.Log("export", "wrote %s (%d notes, %d bytes)", path, p.NumNotes(), len(data))
	return nil
}
