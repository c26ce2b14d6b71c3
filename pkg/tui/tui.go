// Package tui provides a live terminal view of the mirrored button state
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/showbridge/midimirror/pkg/state"
)

// refreshInterval is how often the view re-reads the store
const refreshInterval = 200 * time.Millisecond

// notesPerRow lays the 127 buttons out as a grid
const notesPerRow = 16

// Console-inspired color scheme (warm stage amber on dark)
var (
	stageAmber = lipgloss.Color("#FFB000")
	liveGreen  = lipgloss.Color("#39FF14")
	coldRed    = lipgloss.Color("#FF4444")
	dimGray    = lipgloss.Color("#555555")
	darkGray   = lipgloss.Color("#333333")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(stageAmber).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	activeCellStyle = lipgloss.NewStyle().
			Foreground(liveGreen).
			Bold(true)

	idleCellStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	gateOpenStyle = lipgloss.NewStyle().
			Foreground(liveGreen).
			Bold(true)

	gateClosedStyle = lipgloss.NewStyle().
			Foreground(coldRed).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(stageAmber).
			Padding(1, 2)
)

// Gate reports companion-process liveness
type Gate interface {
	Open() bool
}

type keyMap struct {
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// tickMsg triggers a view refresh
type tickMsg time.Time

// Model represents the watch view
type Model struct {
	store  *state.Store
	gate   Gate
	keys   keyMap
	help   help.Model
	width  int
	height int
}

// New creates the watch model over a running bridge's store and gate
func New(store *state.Store, gate Gate) Model {
	return Model{
		store: store,
		gate:  gate,
		keys:  keys,
		help:  help.New(),
	}
}

// Init starts the refresh ticker
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles view updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}

	case tickMsg:
		// The view re-reads the store on render; the tick only forces it.
		return m, tick()
	}

	return m, nil
}

// View renders the button grid and gate status
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" MIDIMIRROR "))
	s.WriteString("\n")

	if m.gate.Open() {
		s.WriteString(gateOpenStyle.Render("● lighting software running, mirroring live"))
	} else {
		s.WriteString(gateClosedStyle.Render("○ lighting software down, output suspended"))
	}
	s.WriteString("\n\n")

	s.WriteString(m.viewGrid())
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}

func (m Model) viewGrid() string {
	snap := m.store.Snapshot()

	var s strings.Builder
	for note := 0; note <= state.MaxButtonNote; note++ {
		cell := fmt.Sprintf("%3d", note)
		if snap[uint8(note)] {
			s.WriteString(activeCellStyle.Render(cell))
		} else {
			s.WriteString(idleCellStyle.Render(cell))
		}
		if (note+1)%notesPerRow == 0 {
			s.WriteString("\n")
		} else {
			s.WriteString(" ")
		}
	}

	return boxStyle.Render(s.String())
}

// Run starts the watch view over a running bridge (blocking)
func Run(store *state.Store, gate Gate) error {
	p := tea.NewProgram(New(store, gate), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
