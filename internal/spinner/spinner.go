// Package spinner shows a spinner next to the most recent line a running
// tool printed, redrawing in place so the terminal scrollback stays clean.
package spinner

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// Spinner displays a title, a spinner and the latest status line.
type Spinner struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
	err     error
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// New creates a Spinner that renders to output (os.Stderr when nil).
func New(output io.Writer, title string) *Spinner {
	if output == nil {
		output = os.Stderr
	}

	width := 80
	if f, ok := output.(*os.File); ok && IsTerminal(f) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	return &Spinner{
		program: tea.NewProgram(newModel(title, width),
			tea.WithOutput(output),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(), // Let parent handle signals
		),
		done: make(chan struct{}),
	}
}

// Start runs the spinner in the background until Stop is called.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		_, s.err = s.program.Run()
	}()
}

// Update replaces the status line. Blank lines are ignored.
func (s *Spinner) Update(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	s.program.Send(lineMsg(line))
}

// Stop clears the spinner line and waits for the renderer to exit.
func (s *Spinner) Stop() error {
	s.once.Do(func() {
		s.program.Send(stopMsg{})
		<-s.done
	})
	return s.err
}

// model is the bubbletea model for the spinner.
type model struct {
	spinner    spinner.Model
	title      string
	statusLine string
	width      int
	quitting   bool
}

// lineMsg carries a new status line.
type lineMsg string

// stopMsg clears the view before quitting.
type stopMsg struct{}

var titleStyle = lipgloss.NewStyle().Bold(true)

func newModel(title string, width int) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		spinner: s,
		title:   title,
		width:   width,
	}
}

// Init implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case lineMsg:
		m.statusLine = string(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stopMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) View() string {
	if m.quitting {
		return "" // Clear the line on exit
	}

	// spinner glyph + space, title + space
	used := 2
	head := m.spinner.View() + " "
	if m.title != "" {
		head += titleStyle.Render(m.title) + " "
		used += lipgloss.Width(m.title) + 1
	}

	return head + truncate(m.statusLine, max(m.width-used, 10))
}

// truncate shortens s to fit within maxWidth terminal cells, never
// splitting a rune. If truncated, it adds "..." at the end.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return ""
	}
	return ansi.Truncate(s, maxWidth, "...")
}
