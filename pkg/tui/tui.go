// Package tui provides a terminal user interface for chartconv
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/chartconv/pkg/converter"
)

// Note-skin color scheme
var (
	notePink   = lipgloss.Color("#FF4FA3")
	noteCyan   = lipgloss.Color("#3FE0FF")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#222233")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(notePink).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(notePink).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(noteCyan).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(noteCyan).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(notePink).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
)

// MenuItem represents a menu option. The exit item has no formats.
type MenuItem struct {
	Title       string
	Description string
	From        converter.Format
	To          converter.Format
}

// MenuItems builds one entry per conversion pair of conv, followed by Exit
func MenuItems(conv *converter.Converter) []MenuItem {
	var items []MenuItem
	for _, pair := range conv.Pairs() {
		from, to := pair[0], pair[1]
		items = append(items, MenuItem{
			Title:       fmt.Sprintf("%s → %s", formatLabel(conv, from), formatLabel(conv, to)),
			Description: fmt.Sprintf("Convert a %s chart to %s", from.Extension(), to.Extension()),
			From:        from,
			To:          to,
		})
	}
	return append(items, MenuItem{Title: "Exit", Description: "Exit the application"})
}

func formatLabel(conv *converter.Converter, f converter.Format) string {
	if codec, ok := conv.Codec(f); ok {
		return codec.Name()
	}
	return strings.ToUpper(string(f))
}

// Model represents the TUI model
type Model struct {
	conv         *converter.Converter
	items        []MenuItem
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	summary      *converter.Summary
	conversion   MenuItem
	err          error
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	outputFile string
	summary    *converter.Summary
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New(conv *converter.Converter) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".osu", ".sm", ".qua"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(notePink)

	return Model{
		conv:       conv,
		items:      MenuItems(conv),
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs every message while it is shown
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.summary = msg.summary
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(m.items)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(m.items)-1 {
			return m, tea.Quit
		}
		m.conversion = m.items[m.menuIndex]
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = []string{m.conversion.From.Extension()}
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		m.summary = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// OutputPath returns the file a conversion of input to format is written to
func OutputPath(input string, to converter.Format) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + to.Extension()
}

func (m Model) performConversion() tea.Cmd {
	conv, input, item := m.conv, m.selectedFile, m.conversion
	return func() tea.Msg {
		output, summary, err := convertChart(conv, input, item.From, item.To)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		return conversionDoneMsg{outputFile: output, summary: summary}
	}
}

// convertChart writes input converted to the target format next to it and
// returns a summary of the source chart
func convertChart(conv *converter.Converter, input string, from, to converter.Format) (string, *converter.Summary, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read input file: %w", err)
	}

	chart, err := conv.Parse(data, from)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse %s chart: %w", from, err)
	}
	out, err := conv.Generate(chart, to)
	if err != nil {
		return "", nil, fmt.Errorf("failed to write %s chart: %w", to, err)
	}

	output := OutputPath(input, to)
	if err := os.WriteFile(output, out, 0644); err != nil {
		return "", nil, fmt.Errorf("failed to write output file: %w", err)
	}

	summary := converter.Summarize(chart, from)
	return output, &summary, nil
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT CONVERSION "))
	s.WriteString("\n\n")

	for i, item := range m.items {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(noteCyan).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(m.conversion.From.Extension()))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CONVERTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Converting %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → %s", m.conversion.From, m.conversion.To)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Conversion failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Conversion complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
		if m.summary != nil {
			s.WriteString("\n\n")
			s.WriteString(statusStyle.Render(summaryLine(m.summary)))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

// summaryLine describes a converted chart for the result view
func summaryLine(s *converter.Summary) string {
	bpm := fmt.Sprintf("%g BPM", s.MaxBPM)
	if s.MinBPM != s.MaxBPM {
		bpm = fmt.Sprintf("%g-%g BPM", s.MinBPM, s.MaxBPM)
	}
	return fmt.Sprintf("%s - %s [%s]\n%dk • %d rows • %d objects • %s",
		s.Artist, s.Title, s.DifficultyName, s.KeyCount, s.Rows, s.Objects, bpm)
}

func asciiLogo() string {
	logo := `
        _                _
   ___ | |__   __ _ _ __| |_ ___ ___  _ ____   __
  / __|| '_ \ / _' | '__| __/ __/ _ \| '_ \ \ / /
 | (__ | | | | (_| | |  | || (_| (_) | | | \ V /
  \___||_| |_|\__,_|_|   \__\___\___/|_| |_|\_/
`
	return lipgloss.NewStyle().Foreground(notePink).Render(logo)
}

// Run starts the TUI application
func Run(conv *converter.Converter) error {
	p := tea.NewProgram(New(conv), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
