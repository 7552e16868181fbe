package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-pianoroll/grid"
	"go-pianoroll/project"
	"go-pianoroll/widgets"
)

// cellEpsilon keeps notes that only touch a division boundary out of it
const cellEpsilon = 1e-6

var keySections = []widgets.KeySection{
	{Title: "Tracks", Keys: []widgets.KeyBinding{
		{Key: "n", Desc: "new"},
		{Key: "x", Desc: "delete"},
		{Key: "tab", Desc: "next"},
		{Key: "esc", Desc: "deselect"},
		{Key: "r", Desc: "rename"},
		{Key: "i/I", Desc: "instrument"},
	}},
	{Title: "Project", Keys: []widgets.KeyBinding{
		{Key: "R", Desc: "rename"},
		{Key: "+/-", Desc: "bpm"},
		{Key: "[/]", Desc: "beats"},
		{Key: "{/}", Desc: "beat value"},
		{Key: "e", Desc: "export"},
	}},
	{Title: "Edit", Keys: []widgets.KeyBinding{
		{Key: "click", Desc: "add/move"},
		{Key: "ctrl/alt+drag", Desc: "resize start/end"},
		{Key: "right", Desc: "delete"},
		{Key: "u", Desc: "undo"},
		{Key: "ctrl+r", Desc: "redo"},
	}},
	{Title: "Play", Keys: []widgets.KeyBinding{
		{Key: "space", Desc: "play"},
		{Key: "home", Desc: "rewind"},
		{Key: "o", Desc: "output"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	}},
}

var shortKeys = []widgets.KeySection{{Keys: []widgets.KeyBinding{
	{Key: "n", Desc: "track"},
	{Key: "space", Desc: "play"},
	{Key: "u", Desc: "undo"},
	{Key: "e", Desc: "export"},
	{Key: "o", Desc: "output"},
	{Key: "?", Desc: "help"},
	{Key: "q", Desc: "quit"},
}}}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.showHelp {
		return m.renderHelp()
	}
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var out strings.Builder
	out.WriteString(m.renderHeader())
	out.WriteString("\n")
	out.WriteString(m.renderTracks())
	out.WriteString("\n")
	out.WriteString(m.renderProgress())
	out.WriteString("\n")
	out.WriteString(m.renderRoll())
	out.WriteString(m.renderStatus())
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyLine(shortKeys)))
	return out.String()
}

func (m Model) renderHelp() string {
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var out strings.Builder
	out.WriteString(headerStyle.Render("go-pianoroll keys"))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderKeyHelp(keySections))
	if tracks := m.Session.Project().Tracks; len(tracks) > 0 {
		out.WriteString("\n\nInstruments\n")
		for _, t := range tracks {
			out.WriteString("  ")
			out.WriteString(widgets.RenderLegendItem(m.Theme.Instrument(t.Instrument), t.Name, fmt.Sprintf("program %d", t.Instrument)))
			out.WriteString("\n")
		}
	} else {
		out.WriteString("\n")
	}
	out.WriteString("\n")
	out.WriteString(dimStyle.Render("press any key"))
	return out.String()
}

func (m Model) renderHeader() string {
	p := m.Session.Project()
	playState := "STOP"
	if m.Session.Playing() {
		playState = "PLAY"
	}
	output := m.Session.OutputName()
	if output == "" {
		output = "no output"
	}
	style := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	return style.Render(fmt.Sprintf("%s  %s  %3.0fbpm  %s  [%s]", p.Name, playState, p.BPM, p.TimeSignature, output))
}

func (m Model) renderTracks() string {
	sel, ok := m.Session.Selected()
	tracks := m.Session.Project().Tracks
	if len(tracks) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render(" no tracks (n to add)")
	}
	var out strings.Builder
	for i, label := range m.trackLabels() {
		style := lipgloss.NewStyle().Foreground(m.Theme.Instrument(tracks[i].Instrument))
		if ok && i == sel {
			style = style.Reverse(true)
		}
		out.WriteString(style.Render(label))
		out.WriteString(" ")
	}
	return out.String()
}

func (m Model) renderProgress() string {
	sym := m.Theme.Symbols
	offsetDiv := divisionOf(m.Session.PlayOffset())
	headDiv := -1
	if m.Session.Playing() {
		headDiv = divisionOf(m.Session.PlayOffset() + m.Session.Progress())
	}

	dim := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	offsetStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	headStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())

	var out strings.Builder
	out.WriteString(strings.Repeat(" ", keysCols))
	for c := range m.cols() {
		div := m.firstDiv + c
		switch div {
		case headDiv:
			out.WriteString(headStyle.Render(string(sym.Playhead)))
		case offsetDiv:
			out.WriteString(offsetStyle.Render(string(sym.PlayOffset)))
		default:
			out.WriteString(dim.Render(string(sym.Track)))
		}
	}
	return out.String()
}

func (m Model) renderRoll() string {
	var notes []project.Note
	dragged := -1
	var noteColor lipgloss.Color
	if t := m.Session.SelectedTrack(); t != nil {
		notes, dragged = m.Session.VisibleNotes()
		noteColor = m.Theme.Instrument(t.Instrument)
	}

	ts := m.Session.Project().TimeSignature
	beat := grid.MinDivision / max(ts.Bottom, 1)
	headDiv := -1
	if m.Session.Playing() {
		headDiv = divisionOf(m.Session.PlayOffset() + m.Session.Progress())
	}

	sym := m.Theme.Symbols
	keyStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	blackKeyStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	lineStyle := lipgloss.NewStyle().Foreground(m.Theme.Surface())
	measureStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	noteStyle := lipgloss.NewStyle().Foreground(noteColor)
	dragStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	headStyle := lipgloss.NewStyle().Background(m.Theme.Surface())

	var out strings.Builder
	for r := range m.rows() {
		pitch, ok := m.rowPitch(headerRows + r)
		if !ok {
			break
		}
		label := fmt.Sprintf("%-*s", keysCols, project.NoteName(pitch))
		if project.IsBlackKey(pitch) {
			out.WriteString(blackKeyStyle.Render(label))
		} else {
			out.WriteString(keyStyle.Render(label))
		}

		for c := range m.cols() {
			div := m.firstDiv + c
			ch, covering, start := sym.Empty, 0, false
			isDragged := false
			for i, n := range notes {
				if n.Pitch != pitch || !coversDivision(n, div) {
					continue
				}
				covering++
				if divisionOf(n.Offset) == div {
					start = true
				}
				if i == dragged {
					isDragged = true
				}
			}

			style := lineStyle
			switch {
			case covering > 1:
				ch, style = sym.Overlap, noteStyle
			case covering == 1 && start:
				ch, style = sym.NoteStart, noteStyle
			case covering == 1:
				ch, style = sym.NoteBody, noteStyle
			case ts.IsMeasureLine(div):
				ch, style = sym.Measure, measureStyle
			case beat > 0 && div%beat == 0:
				ch = sym.Beat
			}
			if isDragged {
				style = dragStyle
			}
			if div == headDiv {
				style = style.Inherit(headStyle)
			}
			out.WriteString(style.Render(string(ch)))
		}
		out.WriteString("\n")
	}
	return out.String()
}

func (m Model) renderStatus() string {
	if m.input != inputNone {
		prompt := "track name: "
		if m.input == inputProjectName {
			prompt = "project name: "
		}
		return lipgloss.NewStyle().Foreground(m.Theme.Active()).Render(prompt + m.buffer + "_")
	}
	if m.status != "" {
		return lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render(m.status)
	}
	hover := ""
	switch m.hover {
	case grid.ZoneLeftEdge:
		hover = "resize start"
	case grid.ZoneRightEdge:
		hover = "resize end"
	case grid.ZoneBody:
		hover = "move"
	}
	return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render(
		fmt.Sprintf("%d notes  len %s  %s", m.Session.Project().NumNotes(), lengthLabel(m.Session.LastLength()), hover))
}

// divisionOf returns the sixteenth division containing offset
func divisionOf(offset float64) int {
	return int(offset/grid.MinInterval + cellEpsilon)
}

func coversDivision(n project.Note, div int) bool {
	start := float64(div) * grid.MinInterval
	end := start + grid.MinInterval
	return n.Offset < end-cellEpsilon && n.End() > start+cellEpsilon
}

// lengthLabel prints a note length as a fraction of a whole note
func lengthLabel(length float64) string {
	sixteenths := int(length/grid.MinInterval + 0.5)
	if sixteenths <= 0 {
		return fmt.Sprintf("%.4g", length)
	}
	n, d := sixteenths, grid.MinDivision
	for n%2 == 0 && d > 1 {
		n, d = n/2, d/2
	}
	return fmt.Sprintf("%d/%d", n, d)
}
