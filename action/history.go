package action

import (
	"go-pianoroll/debug"
	"go-pianoroll/project"
)

// History owns the editing state and the undo/redo stacks. Both stacks hold
// already-inverted actions. It is not safe for concurrent use.
type History struct {
	state State
	undo  []Action
	redo  []Action
}

// NewHistory wraps p with empty stacks and no selection
func NewHistory(p *project.Project) *History {
	return &History{state: State{Project: p}}
}

// Apply runs a against the state without touching the stacks and returns
// its inverse.
func (h *History) Apply(a Action) Action {
	return a.apply(&h.state)
}

// Perform applies a and records its inverse for undo. The redo stack is left
// as it is, so a redo after a fresh edit replays the older branch.
func (h *History) Perform(a Action) {
	debug.Log("action", "perform %s", a)
	h.undo = append(h.undo, h.Apply(a))
}

// Undo reverts the most recent action. It reports false on an empty stack.
func (h *History) Undo() bool {
	if len(h.undo) == 0 {
		return false
	}
	a := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	debug.Log("action", "undo %s", a)
	h.redo = append(h.redo, h.Apply(a))
	return true
}

// Redo re-applies the most recently undone action
func (h *History) Redo() bool {
	if len(h.redo) == 0 {
		return false
	}
	a := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	debug.Log("action", "redo %s", a)
	h.undo = append(h.undo, h.Apply(a))
	return true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
func (h *History) UndoLen() int  { return len(h.undo) }
func (h *History) RedoLen() int  { return len(h.redo) }

// Project returns the live project. Callers must not mutate it directly.
func (h *History) Project() *project.Project {
	return h.state.Project
}

// Selected returns the selected track index
func (h *History) Selected() (int, bool) {
	return h.state.Selected.Index, h.state.Selected.Valid
}

// Select marks track i as selected. An index with no track clears the
// selection instead.
func (h *History) Select(i int) {
	if i < 0 || i >= len(h.state.Project.Tracks) {
		h.state.Selected = Selection{}
		return
	}
	h.state.Selected = Selection{Index: i, Valid: true}
}

// Deselect clears the selection
func (h *History) Deselect() {
	h.state.Selected = Selection{}
}

// State returns a copy of the current state for inspection
func (h *History) State() State {
	return h.state
}
