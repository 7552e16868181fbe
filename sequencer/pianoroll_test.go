package sequencer_test

import (
	"testing"

	"go-pianoroll/grid"
	"go-pianoroll/project"
	"go-pianoroll/sequencer"
)

// px converts (offset, pitch) to the top-left pixel of that cell
func px(offset float64, pitch uint8) (float64, float64) {
	return offset * grid.WholeNoteWidth, float64(grid.MaxPitch-int(pitch)) * grid.RowHeight
}

func notes(s *sequencer.Session) []project.Note {
	return s.Project().Tracks[0].Notes
}

func TestCreateAndMove(t *testing.T) {
	s := newSession(t)
	x, y := px(0.25, 60)
	s.PointerDown(x+2, y, sequencer.ButtonLeft)

	visible, dragged := s.VisibleNotes()
	if len(visible) != 1 || dragged != 0 {
		t.Fatalf("ghost not visible: %v %d", visible, dragged)
	}
	if len(notes(s)) != 0 {
		t.Fatal("project changed before release")
	}

	x, y = px(0.5, 62)
	s.PointerMove(x, y, sequencer.ButtonLeft)
	s.PointerUp()

	got := notes(s)
	want := project.Note{Pitch: 62, Velocity: 127, Offset: 0.5, Length: sequencer.DefaultNoteLength}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("notes = %+v, want %+v", got, want)
	}

	s.Undo()
	if len(notes(s)) != 0 {
		t.Error("create-and-move took more than one undo step")
	}
}

func TestMoveKeepsGrabOffset(t *testing.T) {
	s := newSession(t)
	addNote(t, s, 0.5, 60) // spans 160..200 px

	x, y := px(0.5, 60)
	s.PointerDown(x+20, y, sequencer.ButtonLeft) // body, grabbed 1/16 in
	if s.Hover(x+20, y) != grid.ZoneBody {
		t.Fatal("expected body zone")
	}
	x2, y2 := px(1.0, 64)
	s.PointerMove(x2+20, y2, sequencer.ButtonLeft)
	s.PointerUp()

	got := notes(s)[0]
	if got.Offset != 1.0 || got.Pitch != 64 || got.Length != sequencer.DefaultNoteLength {
		t.Fatalf("moved note = %+v", got)
	}

	s.Undo()
	if got := notes(s)[0]; got.Offset != 0.5 || got.Pitch != 60 {
		t.Errorf("undo move = %+v", got)
	}
}

func TestMoveClampsAtZero(t *testing.T) {
	s := newSession(t)
	addNote(t, s, 0.25, 60)
	x, y := px(0.25, 60)
	s.PointerDown(x+20, y, sequencer.ButtonLeft)
	s.PointerMove(0, y, sequencer.ButtonLeft)
	s.PointerUp()
	if got := notes(s)[0].Offset; got != 0 {
		t.Errorf("offset = %v, want 0", got)
	}
}

func TestResizeRightEdge(t *testing.T) {
	s := newSession(t)
	addNote(t, s, 0, 60) // 0..40 px

	_, y := px(0, 60)
	s.PointerDown(38, y, sequencer.ButtonLeft)
	s.PointerMove(160, y, sequencer.ButtonLeft)
	s.PointerUp()
	if got := notes(s)[0]; got.Offset != 0 || got.Length != 0.5 {
		t.Fatalf("after resize: %+v", got)
	}
	if s.LastLength() != 0.5 {
		t.Errorf("LastLength = %v, want 0.5", s.LastLength())
	}

	// dragging past the start floors the length
	s.PointerDown(158, y, sequencer.ButtonLeft)
	s.PointerMove(0, y, sequencer.ButtonLeft)
	s.PointerUp()
	if got := notes(s)[0]; got.Length != grid.MinInterval {
		t.Errorf("collapsed length = %v, want %v", got.Length, grid.MinInterval)
	}
}

func TestResizeLeftEdge(t *testing.T) {
	s := newSession(t)
	addNote(t, s, 0.5, 60) // 160..200 px

	_, y := px(0.5, 60)
	s.PointerDown(161, y, sequencer.ButtonLeft)
	s.PointerMove(80, y, sequencer.ButtonLeft)
	s.PointerUp()
	if got := notes(s)[0]; got.Offset != 0.25 || got.Length != 0.375 {
		t.Fatalf("after left resize: %+v", got)
	}

	// pulling the left edge past the right edge floors the length
	s.PointerDown(81, y, sequencer.ButtonLeft)
	s.PointerMove(300, y, sequencer.ButtonLeft)
	s.PointerUp()
	if got := notes(s)[0]; got.Offset != 0.625 || got.Length != grid.MinInterval {
		t.Errorf("collapsed: %+v", got)
	}
}

func TestNewNoteUsesLastLength(t *testing.T) {
	s := newSession(t)
	addNote(t, s, 0, 60)
	_, y := px(0, 60)
	s.PointerDown(38, y, sequencer.ButtonLeft)
	s.PointerMove(80, y, sequencer.ButtonLeft)
	s.PointerUp()

	addNote(t, s, 1, 72)
	if got := notes(s)[1].Length; got != 0.25 {
		t.Errorf("new note length = %v, want 0.25", got)
	}
}

func TestRightButtonDeletes(t *testing.T) {
	s := newSession(t)
	addNote(t, s, 0, 60)
	addNote(t, s, 0.5, 60)

	x, y := px(0, 60)
	if !s.PointerDown(x+10, y, sequencer.ButtonRight) {
		t.Fatal("right click on a note did nothing")
	}
	if len(notes(s)) != 1 {
		t.Fatalf("%d notes left", len(notes(s)))
	}

	// right-drag across the remaining note
	x, _ = px(0.5, 60)
	if !s.PointerMove(x+10, y, sequencer.ButtonRight) || len(notes(s)) != 0 {
		t.Fatal("right drag did not delete")
	}
	if s.PointerMove(x+10, y, sequencer.ButtonRight) {
		t.Error("right drag over empty space reported a change")
	}
}

func TestPointerNeedsSelection(t *testing.T) {
	s := newSession(t)
	s.DeselectTrack()
	if s.PointerDown(0, 0, sequencer.ButtonLeft) {
		t.Error("pointer down without a selection changed something")
	}
	if notes, i := s.VisibleNotes(); notes != nil || i != -1 {
		t.Error("VisibleNotes without a selection")
	}
	if s.PointerUp() {
		t.Error("PointerUp without a gesture reported true")
	}
}

func TestUnchangedDragStillCommits(t *testing.T) {
	s := newSession(t)
	addNote(t, s, 0, 60)
	x, y := px(0, 60)
	s.PointerDown(x+20, y, sequencer.ButtonLeft)
	s.PointerUp()
	s.Undo() // the no-op edit
	if len(notes(s)) != 1 {
		t.Fatal("first undo removed the note instead of the empty edit")
	}
}

func TestPlayOffsetDrag(t *testing.T) {
	s := newSession(t)
	s.BeginPlayOffsetDrag(60+80, 60)
	if s.PlayOffset() != 0.25 {
		t.Fatalf("PlayOffset = %v", s.PlayOffset())
	}
	s.PointerMove(60+160, 0, sequencer.ButtonLeft)
	if s.PlayOffset() != 0.5 {
		t.Fatalf("PlayOffset after move = %v", s.PlayOffset())
	}
	if !s.PointerUp() || s.Dragging() {
		t.Error("drag not finished")
	}
	if s.CanRedo() || len(notes(s)) != 0 {
		t.Error("scrubbing touched the project")
	}
}
