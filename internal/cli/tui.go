package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/layermap/pkg/pipeline"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// MappingPickerModel - Interactive container pairing
// =============================================================================

// pickerStep is the column the cursor is in.
type pickerStep int

const (
	pickSource pickerStep = iota
	pickTarget
)

// MappingPickerModel pairs source containers with target containers. Enter
// picks a source, then a target; d finishes; q or esc cancels.
type MappingPickerModel struct {
	Sources []string
	Targets []string

	Cursor    int
	Step      pickerStep
	Pending   string
	Mappings  []pipeline.Mapping
	Done      bool
	Cancelled bool
}

// NewMappingPickerModel creates a picker over the two container lists.
func NewMappingPickerModel(sources, targets []string) MappingPickerModel {
	return MappingPickerModel{Sources: sources, Targets: targets}
}

func (m MappingPickerModel) Init() tea.Cmd {
	return nil
}

func (m MappingPickerModel) items() []string {
	if m.Step == pickTarget {
		return m.Targets
	}
	return m.Sources
}

func (m MappingPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c":
		m.Cancelled = true
		return m, tea.Quit
	case "esc":
		if m.Step == pickTarget {
			m.Step, m.Pending, m.Cursor = pickSource, "", 0
			return m, nil
		}
		m.Cancelled = true
		return m, tea.Quit
	case "d":
		if len(m.Mappings) > 0 {
			m.Done = true
			return m, tea.Quit
		}
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.items())-1 {
			m.Cursor++
		}
	case "enter":
		items := m.items()
		if len(items) == 0 {
			return m, nil
		}
		picked := items[m.Cursor]
		if m.Step == pickSource {
			m.Step, m.Pending = pickTarget, picked
		} else {
			m.Mappings = append(m.Mappings, pipeline.Mapping{Source: m.Pending, Target: picked})
			m.Step, m.Pending = pickSource, ""
		}
		m.Cursor = 0
	}
	return m, nil
}

func (m MappingPickerModel) View() string {
	var b strings.Builder

	title := "Select source container"
	if m.Step == pickTarget {
		title = fmt.Sprintf("Select target for %s", m.Pending)
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  d done  esc back  q quit"))
	b.WriteString("\n\n")

	for i, name := range m.items() {
		line := "  " + name
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + name))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.Mappings) > 0 {
		rows := make([][]string, len(m.Mappings))
		for i, mp := range m.Mappings {
			rows[i] = []string{mp.Source, iconArrow, mp.Target}
		}
		b.WriteString("\n")
		b.WriteString(newTable("Source", "", "Target").Rows(rows...).Render())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s", plural(len(m.Mappings), "mapping"))))
	return b.String()
}

// pickMappings runs the picker and returns the chosen pairs. A cancelled
// picker returns no mappings and no error.
func pickMappings(sources, targets []string) ([]pipeline.Mapping, error) {
	final, err := tea.NewProgram(NewMappingPickerModel(sources, targets)).Run()
	if err != nil {
		return nil, fmt.Errorf("container picker: %w", err)
	}
	m := final.(MappingPickerModel)
	if m.Cancelled || !m.Done {
		return nil, nil
	}
	return m.Mappings, nil
}
