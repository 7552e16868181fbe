package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn        uint8 = 0x90
	NoteOff       uint8 = 0x80
	ProgramChange uint8 = 0xC0
)

// FullVelocity is used for every note event the sequencer emits
const FullVelocity uint8 = 0x7F

// Event is a channel message produced by the sequencer. NoteOn/NoteOff carry
// (status, note, velocity); ProgramChange carries (status, program).
type Event struct {
	Type     uint8 // NoteOn, NoteOff, ProgramChange
	Channel  uint8 // 0-15
	Note     uint8
	Velocity uint8
	Program  uint8
}

// NoteOnEvent returns a NoteOn on channel 0
func NoteOnEvent(note, velocity uint8) Event {
	return Event{Type: NoteOn, Note: note, Velocity: velocity}
}

// NoteOffEvent returns a NoteOff (with release velocity) on channel 0
func NoteOffEvent(note, velocity uint8) Event {
	return Event{Type: NoteOff, Note: note, Velocity: velocity}
}

// ProgramChangeEvent returns a ProgramChange on channel 0
func ProgramChangeEvent(program uint8) Event {
	return Event{Type: ProgramChange, Program: program}
}

// Message builds the wire message
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOffVelocity(e.Channel, e.Note, e.Velocity)
	case ProgramChange:
		return gomidi.ProgramChange(e.Channel, e.Program)
	default:
		return nil
	}
}

// Bytes returns the raw status and data bytes
func (e Event) Bytes() []byte {
	return e.Message().Bytes()
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("NoteOn(ch=%d note=%d vel=%d)", e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("NoteOff(ch=%d note=%d vel=%d)", e.Channel, e.Note, e.Velocity)
	case ProgramChange:
		return fmt.Sprintf("ProgramChange(ch=%d program=%d)", e.Channel, e.Program)
	default:
		return fmt.Sprintf("Event(type=%#x)", e.Type)
	}
}
