package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	markStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const pageSize = 15

type pickerModel struct {
	filename string
	cells    []string
	visible  []int
	chosen   map[int]bool
	filter   textinput.Model
	cursor   int
	aborted  bool
}

func newPickerModel(filename string, cells []string) *pickerModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()

	m := &pickerModel{
		filename: filename,
		cells:    cells,
		chosen:   make(map[int]bool),
		filter:   ti,
	}
	m.applyFilter()
	return m
}

func (m *pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *pickerModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, c := range m.cells {
		if q == "" || strings.Contains(strings.ToLower(c), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			return m, nil

		case "tab":
			if len(m.visible) > 0 {
				i := m.visible[m.cursor]
				if m.chosen[i] {
					delete(m.chosen, i)
				} else {
					m.chosen[i] = true
				}
			}
			return m, nil

		case "enter":
			if len(m.chosen) == 0 && len(m.visible) > 0 {
				m.chosen[m.visible[m.cursor]] = true
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// Selected returns the chosen cells in file order.
func (m *pickerModel) Selected() []string {
	if m.aborted {
		return nil
	}
	var result []string
	for i, c := range m.cells {
		if m.chosen[i] {
			result = append(result, c)
		}
	}
	return result
}

func (m *pickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("OASIS Copy"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if len(m.cells) == 0 {
		b.WriteString(errorStyle.Render("File defines no cells."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("esc quit"))
		return b.String()
	}

	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	start := 0
	if m.cursor >= pageSize {
		start = m.cursor - pageSize + 1
	}
	end := min(start+pageSize, len(m.visible))
	for row := start; row < end; row++ {
		i := m.visible[row]
		mark := "[ ] "
		if m.chosen[i] {
			mark = "[x] "
		}
		if row == m.cursor {
			b.WriteString(selectedStyle.Render("> " + mark + m.cells[i]))
		} else {
			b.WriteString("  " + markStyle.Render(mark) + cellStyle.Render(m.cells[i]))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d of %d cells, %d selected\n", len(m.visible), len(m.cells), len(m.chosen)))
	b.WriteString(helpStyle.Render("↑/↓ move • tab toggle • enter copy • esc quit"))
	return b.String()
}

func runPicker(filename string, cells []string) ([]string, error) {
	m := newPickerModel(filename, cells)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return nil, err
	}
	return m.Selected(), nil
}
