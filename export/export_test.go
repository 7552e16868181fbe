package export_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-pianoroll/export"
	"go-pianoroll/midi"
	"go-pianoroll/project"
)

func TestEncodeVarLen(t *testing.T) {
	tests := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x00}},
		{1024, []byte{0x88, 0x00}},
		{16383, []byte{0xFF, 0x7F}},
		{16384, []byte{0x81, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tt := range tests {
		if got := export.EncodeVarLen(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeVarLen(%d) = % x, want % x", tt.in, got, tt.want)
		}
	}
}

func TestDeltaMultiplier(t *testing.T) {
	if got := export.DeltaMultiplier(120); got != 4096 {
		t.Errorf("DeltaMultiplier(120) = %d, want 4096", got)
	}
	if got := export.DeltaMultiplier(90); got != 5461 {
		t.Errorf("DeltaMultiplier(90) = %d, want 5461", got)
	}
}

func encode(t *testing.T, p *project.Project) []byte {
	t.Helper()
	data, err := export.Encode(p)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func singleNote() *project.Project {
	p := project.New()
	tr := project.NewTrack("Track 1")
	tr.Notes = append(tr.Notes, project.Note{Pitch: 60, Velocity: 127, Offset: 0, Length: 0.25})
	p.Tracks = append(p.Tracks, tr)
	return p
}

func TestEncodeSingleNote(t *testing.T) {
	want := []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 0, 0, 1, 0x04, 0x00,
		'M', 'T', 'r', 'k', 0, 0, 0, 16,
		0x00, 0xC0, 0x00,
		0x00, 0x90, 60, 0x7F,
		0x88, 0x00, 0x80, 60, 0x7F,
		0x00, 0xFF, 0x2F, 0x00,
	}
	if got := encode(t, singleNote()); !bytes.Equal(got, want) {
		t.Errorf("Encode =\n% x\nwant\n% x", got, want)
	}
}

// Deltas in the written track are the variable-length quantities of the
// rounded tick distances.
func TestEncodeDeltasAreVarLen(t *testing.T) {
	p := project.New()
	tr := project.NewTrack("Track 1")
	tr.Notes = []project.Note{{Pitch: 62, Velocity: 127, Offset: 1, Length: 4}}
	p.Tracks = append(p.Tracks, tr)

	var want []byte
	want = append(want, export.EncodeVarLen(4096)...)
	want = append(want, 0xC0, 0x00)
	want = append(want, export.EncodeVarLen(0)...)
	want = append(want, 0x90, 62, 0x7F)
	want = append(want, export.EncodeVarLen(4*4096)...)
	want = append(want, 0x80, 62, 0x7F)
	want = append(want, 0x00, 0xFF, 0x2F, 0x00)

	got := encode(t, p)
	if !bytes.Equal(got[22:], want) {
		t.Errorf("track events =\n% x\nwant\n% x", got[22:], want)
	}
	if n := len(got) - 22; got[21] != byte(n) {
		t.Errorf("MTrk length byte = %d, want %d", got[21], n)
	}
}

func TestEncodeEmptyProject(t *testing.T) {
	got := encode(t, project.New())
	tail := []byte{'M', 'T', 'r', 'k', 0, 0, 0, 4, 0x00, 0xFF, 0x2F, 0x00}
	if len(got) != 14+len(tail) || !bytes.Equal(got[14:], tail) {
		t.Errorf("empty project = % x", got)
	}
}

func twoTracks() *project.Project {
	p := project.New()
	a := project.NewTrack("A")
	a.Instrument = 1
	a.Notes = []project.Note{{Pitch: 60, Velocity: 127, Offset: 0.5, Length: 0.25}}
	b := project.NewTrack("B")
	b.Instrument = 2
	b.Notes = []project.Note{{Pitch: 64, Velocity: 127, Offset: 0.5, Length: 0.5}, {Pitch: 67, Offset: 0, Length: 0.125}}
	p.Tracks = []project.Track{a, b}
	return p
}

func TestMessagesStableOrder(t *testing.T) {
	msgs := export.Messages(twoTracks())
	want := []export.Message{
		{0, midi.ProgramChangeEvent(2)},
		{0, midi.NoteOnEvent(67, 127)},
		{0.125, midi.NoteOffEvent(67, 127)},
		{0.5, midi.ProgramChangeEvent(1)},
		{0.5, midi.NoteOnEvent(60, 127)},
		{0.5, midi.ProgramChangeEvent(2)},
		{0.5, midi.NoteOnEvent(64, 127)},
		{0.75, midi.NoteOffEvent(60, 127)},
		{1, midi.NoteOffEvent(64, 127)},
	}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("msg %d = %v %v, want %v %v", i, msgs[i].Offset, msgs[i].Event, want[i].Offset, want[i].Event)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	p := twoTracks()
	if !bytes.Equal(encode(t, p), encode(t, p)) {
		t.Error("two exports of the same project differ")
	}
}

func TestEncodeReadableBySMF(t *testing.T) {
	data := encode(t, twoTracks())
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("smf.ReadFrom: %v", err)
	}
	if len(s.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(s.Tracks))
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks != export.TicksPerQuarterNote {
		t.Fatalf("time format = %v", s.TimeFormat)
	}

	var ch, key, vel, prog uint8
	var abs uint32
	var ons, offs, pcs int
	for _, ev := range s.Tracks[0] {
		abs += ev.Delta
		msg := gomidi.Message(ev.Message)
		switch {
		case msg.GetNoteOn(&ch, &key, &vel):
			ons++
			if key == 60 && abs != 2048 {
				t.Errorf("NoteOn 60 at tick %d, want 2048", abs)
			}
		case msg.GetNoteOff(&ch, &key, &vel):
			offs++
			if key == 64 && abs != 4096 {
				t.Errorf("NoteOff 64 at tick %d, want 4096", abs)
			}
		case msg.GetProgramChange(&ch, &prog):
			pcs++
		}
	}
	if ons != 3 || offs != 3 || pcs != 3 {
		t.Errorf("note on/off/program = %d/%d/%d, want 3/3/3", ons, offs, pcs)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "song.mid")
	p := singleNote()
	if err := export.WriteFile(path, p); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, encode(t, p)) {
		t.Error("file contents differ from Encode")
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, p); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Error("Write output differs from WriteFile")
	}
}

func TestFileName(t *testing.T) {
	p := project.New()
	p.Name = " My Song: take 2 "
	tests := []struct {
		tmpl string
		want string
	}{
		{"", "My-Song--take-2.mid"},
		{export.DefaultFileName, "My-Song--take-2.mid"},
		{"{{ .Name | lower | trim }}", "my-song--take-2.mid"},
		{"{{ .Name | trim | upper }}-{{ .BPM }}bpm.mid", "MY-SONG--TAKE-2-120bpm.mid"},
		{"{{ .Tracks }}", "0.mid"},
		{"{{ \"\" }}.mid", "My-Song--take-2.mid"},
	}
	for _, tt := range tests {
		got, err := export.FileName(tt.tmpl, p)
		if err != nil {
			t.Fatalf("FileName(%q): %v", tt.tmpl, err)
		}
		if got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}

	if _, err := export.FileName("{{ .Name", p); err == nil {
		t.Error("bad template did not fail")
	}
}
