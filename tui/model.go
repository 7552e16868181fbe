package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"go-pianoroll/debug"
	"go-pianoroll/grid"
	"go-pianoroll/midi"
	"go-pianoroll/project"
	"go-pianoroll/sequencer"
	"go-pianoroll/theme"
)

// Layout in terminal cells. Each piano roll column is one grid division and
// each row one pitch.
const (
	keysCols   = 5 // "C#4 " plus a gap
	headerRows = 3 // title, tracks, progress bar
	footerRows = 2 // status, help
	minCols    = 16
	minRows    = 4
)

// keysWidth is the pixel width of the key column, so progress bar pixels
// line up with note pixels.
const keysWidth = keysCols * grid.DivisionWidth

// Pixel positions inside a cell. The body offset stays below half a division
// so snapping lands on the clicked cell.
const (
	cellBody  = 9
	cellLeft  = 1
	cellRight = grid.DivisionWidth - 1
)

// Port is an opened MIDI output
type Port interface {
	Send(e midi.Event) error
	Name() string
	Close() error
}

// Opener opens an output port by name
type Opener func(name string) (Port, error)

type inputKind int

const (
	inputNone inputKind = iota
	inputTrackName
	inputProjectName
)

// Options configure the model
type Options struct {
	ExportDir    string
	FileTemplate string
	PreferPort   string // connect to this port when it appears
	CenterPitch  int
	VisibleRows  int // 0: fit the terminal
}

type Model struct {
	Session   *sequencer.Session
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme
	Open      Opener

	opts      Options
	port      Port
	width     int
	height    int
	topPitch  int // pitch drawn on the first roll row
	firstDiv  int // division drawn in the first roll column
	cellX     float64
	hover     grid.Zone
	scrubbing bool
	showHelp  bool
	status    string
	input     inputKind
	buffer    string
	quitting  bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(session *sequencer.Session, deviceMgr *midi.DeviceManager, th *theme.Theme, open Opener, opts Options) Model {
	if opts.CenterPitch == 0 {
		opts.CenterPitch = 60
	}
	m := Model{
		Session:   session,
		DeviceMgr: deviceMgr,
		Theme:     th,
		Open:      open,
		opts:      opts,
		width:     80,
		height:    24,
	}
	m.centerOn(opts.CenterPitch)
	return m
}

// AttachPort hands an already opened port to the model
func (m *Model) AttachPort(p Port) {
	m.port = p
	m.Session.SetOutput(p, p.Name())
}

func ListenForUpdates(session *sequencer.Session) tea.Cmd {
	return func() tea.Msg {
		<-session.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Session)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.input != inputNone {
			m.handleInput(msg)
			return m, nil
		}
		if m.handleKey(msg.String()) {
			m.quitting = true
			m.Session.Close()
			if m.port != nil {
				m.port.Close()
			}
			return m, tea.Quit
		}

	case tea.MouseMsg:
		m.handleMouse(tea.MouseEvent(msg))

	case UpdateMsg:
		return m, ListenForUpdates(m.Session)

	case DeviceEventMsg:
		m.handleDevice(midi.DeviceEvent(msg))
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

// handleKey runs one binding and reports whether the program should quit
func (m *Model) handleKey(key string) bool {
	s := m.Session
	p := s.Project()
	switch key {
	case "q", "ctrl+c":
		return true
	case "?":
		m.showHelp = true

	case "n":
		s.CreateTrack()
		s.SelectTrack(len(p.Tracks) - 1)
	case "x":
		s.DeleteSelectedTrack()
	case "tab":
		m.cycleTrack(1)
	case "shift+tab":
		m.cycleTrack(-1)
	case "esc":
		s.DeselectTrack()
	case "r":
		if t := s.SelectedTrack(); t != nil {
			m.input, m.buffer = inputTrackName, t.Name
		}
	case "R":
		m.input, m.buffer = inputProjectName, p.Name
	case "i":
		if t := s.SelectedTrack(); t != nil {
			s.SetSelectedTrackInstrument((t.Instrument + 1) & 0x7F)
		}
	case "I":
		if t := s.SelectedTrack(); t != nil {
			s.SetSelectedTrackInstrument((t.Instrument + 127) & 0x7F)
		}

	case "+", "=":
		s.SetBPM(clampBPM(p.BPM + 5))
	case "-", "_":
		s.SetBPM(clampBPM(p.BPM - 5))
	case "]":
		s.SetTimeSignatureTop(cycle(project.TimeSignatureTops, p.TimeSignature.Top, 1))
	case "[":
		s.SetTimeSignatureTop(cycle(project.TimeSignatureTops, p.TimeSignature.Top, -1))
	case "}":
		s.SetTimeSignatureBottom(cycle(project.TimeSignatureBottoms, p.TimeSignature.Bottom, 1))
	case "{":
		s.SetTimeSignatureBottom(cycle(project.TimeSignatureBottoms, p.TimeSignature.Bottom, -1))

	case "u", "ctrl+z":
		if !s.Undo() {
			m.status = "nothing to undo"
		}
	case "ctrl+r", "ctrl+y":
		if !s.Redo() {
			m.status = "nothing to redo"
		}

	case " ", "space":
		if !s.Playing() && m.port == nil {
			m.status = "no MIDI output (o to pick one)"
		}
		s.TogglePlayback()
	case "home":
		s.SetPlayOffset(0)
	case "e":
		m.export()
	case "o":
		m.cycleOutput()

	case "up", "k":
		m.topPitch = min(m.topPitch+1, grid.MaxPitch)
	case "down", "j":
		m.topPitch = max(m.topPitch-1, m.rows()-1)
	case "pgup":
		m.topPitch = min(m.topPitch+12, grid.MaxPitch)
	case "pgdown":
		m.topPitch = max(m.topPitch-12, m.rows()-1)
	case "right", "l":
		m.firstDiv++
	case "left", "h":
		m.firstDiv = max(m.firstDiv-1, 0)
	}
	return false
}

func (m *Model) handleInput(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.input == inputTrackName {
			m.Session.RenameSelectedTrack(m.buffer)
		} else {
			m.Session.SetProjectName(m.buffer)
		}
		m.input, m.buffer = inputNone, ""
	case tea.KeyEsc:
		m.input, m.buffer = inputNone, ""
	case tea.KeyBackspace:
		if r := []rune(m.buffer); len(r) > 0 {
			m.buffer = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.buffer += " "
	case tea.KeyRunes:
		m.buffer += string(msg.Runes)
	}
}

func (m *Model) handleMouse(ev tea.MouseEvent) {
	s := m.Session
	col, row := ev.X, ev.Y

	switch ev.Action {
	case tea.MouseActionPress:
		switch ev.Button {
		case tea.MouseButtonWheelUp:
			m.topPitch = min(m.topPitch+1, grid.MaxPitch)
			return
		case tea.MouseButtonWheelDown:
			m.topPitch = max(m.topPitch-1, m.rows()-1)
			return
		}

		if row == 1 {
			m.clickTrackList(col)
			return
		}
		if row == 2 && col >= keysCols {
			s.BeginPlayOffsetDrag(m.progressX(col), keysWidth)
			m.scrubbing = s.Dragging()
			return
		}
		pitch, ok := m.rowPitch(row)
		if !ok {
			return
		}
		if col < keysCols {
			s.PreviewKey(pitch)
			return
		}

		m.cellX = cellBody
		if ev.Ctrl {
			m.cellX = cellLeft
		} else if ev.Alt {
			m.cellX = cellRight
		}
		button := sequencer.ButtonLeft
		if ev.Button == tea.MouseButtonRight {
			button = sequencer.ButtonRight
		}
		x, y := m.pixel(col, pitch)
		s.PointerDown(x, y, button)

	case tea.MouseActionMotion:
		held := sequencer.ButtonNone
		switch ev.Button {
		case tea.MouseButtonLeft:
			held = sequencer.ButtonLeft
		case tea.MouseButtonRight:
			held = sequencer.ButtonRight
		}
		if m.scrubbing {
			s.PointerMove(m.progressX(col), 0, held)
			return
		}
		pitch, ok := m.rowPitch(row)
		if !ok {
			if !s.Dragging() {
				m.hover = grid.ZoneNone
				return
			}
			pitch = m.clampRowPitch(row)
		}
		if !s.Dragging() {
			m.cellX = cellBody
		}
		x, y := m.pixel(max(col, keysCols), pitch)
		s.PointerMove(x, y, held)
		if !s.Dragging() {
			m.hover = s.Hover(x, y)
		}

	case tea.MouseActionRelease:
		m.scrubbing = false
		if s.PointerUp() {
			m.hover = grid.ZoneNone
		}
	}
}

func (m *Model) handleDevice(ev midi.DeviceEvent) {
	debug.Log("tui", "device %s: %s", ev.Type, ev.Name)
	switch ev.Type {
	case midi.DeviceConnected:
		if m.port != nil || m.Open == nil {
			return
		}
		if m.opts.PreferPort != "" {
			if _, err := midi.MatchPort([]string{ev.Name}, m.opts.PreferPort); err != nil {
				return
			}
		}
		m.openPort(ev.Name)
	case midi.DeviceDisconnected:
		if m.port != nil && m.port.Name() == ev.Name {
			m.port.Close()
			m.port = nil
			m.Session.SetOutput(nil, "")
			m.status = fmt.Sprintf("output %s disconnected", ev.Name)
		}
	}
}

func (m *Model) openPort(name string) {
	p, err := m.Open(name)
	if err != nil {
		m.status = err.Error()
		debug.Log("tui", "open %q: %v", name, err)
		return
	}
	if m.port != nil {
		m.port.Close()
	}
	m.AttachPort(p)
	m.status = "output: " + p.Name()
}

func (m *Model) cycleOutput() {
	if m.DeviceMgr == nil || m.Open == nil {
		return
	}
	ports := m.DeviceMgr.Ports()
	if len(ports) == 0 {
		m.status = midi.ErrNoPort.Error()
		return
	}
	next := 0
	if m.port != nil {
		if i := slices.Index(ports, m.port.Name()); i >= 0 {
			next = (i + 1) % len(ports)
		}
	}
	m.openPort(ports[next])
}

func (m *Model) export() {
	path, err := m.Session.ExportMIDI(m.opts.ExportDir, m.opts.FileTemplate)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = "exported " + path
}

func (m *Model) cycleTrack(dir int) {
	n := len(m.Session.Project().Tracks)
	if n == 0 {
		return
	}
	i, ok := m.Session.Selected()
	if !ok {
		i = 0
		if dir < 0 {
			i = n - 1
		}
	} else {
		i = (i + dir + n) % n
	}
	m.Session.SelectTrack(i)
}

// clickTrackList selects the track whose label spans col
func (m *Model) clickTrackList(col int) {
	x := 0
	for i, label := range m.trackLabels() {
		w := len([]rune(label)) + 1
		if col >= x && col < x+w {
			m.Session.SelectTrack(i)
			return
		}
		x += w
	}
}

func (m *Model) trackLabels() []string {
	tracks := m.Session.Project().Tracks
	labels := make([]string, len(tracks))
	for i, t := range tracks {
		labels[i] = fmt.Sprintf(" %d:%s ", i+1, t.Name)
	}
	return labels
}

func (m *Model) centerOn(pitch int) {
	m.topPitch = min(pitch+m.rows()/2, grid.MaxPitch)
}

func (m Model) rows() int {
	if m.opts.VisibleRows > 0 {
		return m.opts.VisibleRows
	}
	return max(m.height-headerRows-footerRows, minRows)
}

func (m Model) cols() int {
	return max(m.width-keysCols, minCols)
}

// rowPitch maps a terminal row to the pitch drawn there
func (m Model) rowPitch(row int) (uint8, bool) {
	r := row - headerRows
	if r < 0 || r >= m.rows() {
		return 0, false
	}
	pitch := m.topPitch - r
	if pitch < 0 {
		return 0, false
	}
	return uint8(pitch), true
}

func (m Model) clampRowPitch(row int) uint8 {
	r := min(max(row-headerRows, 0), m.rows()-1)
	return grid.ClampPitch(m.topPitch - r)
}

// pixel converts a roll cell to piano roll pixels. y is the top of the
// pitch row.
func (m Model) pixel(col int, pitch uint8) (float64, float64) {
	div := m.firstDiv + col - keysCols
	x := float64(div)*grid.DivisionWidth + m.cellX
	y := float64(grid.MaxPitch-int(pitch)) * grid.RowHeight
	return x, y
}

// progressX converts a progress bar column to bar pixels, key column included
func (m Model) progressX(col int) float64 {
	div := m.firstDiv + col - keysCols
	return keysWidth + float64(div)*grid.DivisionWidth + cellBody
}

func clampBPM(bpm float64) float64 {
	return min(max(bpm, grid.MinBPM), grid.MaxBPM)
}

// cycle steps through values from current, wrapping. A value not in the list
// starts from the first entry.
func cycle(values []int, current, dir int) int {
	i := slices.Index(values, current)
	if i < 0 {
		return values[0]
	}
	return values[(i+dir+len(values))%len(values)]
}
