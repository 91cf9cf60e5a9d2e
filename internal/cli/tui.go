package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// rootListModel is the bubbletea model for interactive root selection when
// a snapshot contains several shading groups and none was selected at
// export time.
type rootListModel struct {
	items   []string
	cursor  int
	checked map[int]bool
	accept  bool
	quit    bool
}

func newRootListModel(items []string) rootListModel {
	return rootListModel{items: items, checked: make(map[int]bool)}
}

func (m rootListModel) Init() tea.Cmd {
	return nil
}

func (m rootListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case " ":
			m.checked[m.cursor] = !m.checked[m.cursor]
		case "a":
			for i := range m.items {
				m.checked[i] = true
			}
		case "enter":
			m.accept = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m rootListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Shading Groups"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ convert  q quit"))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mark := "[ ]"
		if m.checked[i] {
			mark = "[" + StyleSuccess.Render("✓") + "]"
		}

		line := fmt.Sprintf("%s%s %s", cursor, mark, item)
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.items))))

	return b.String()
}

// selection returns the checked items, or the item under the cursor when
// nothing was checked.
func (m rootListModel) selection() []string {
	var out []string
	for i, item := range m.items {
		if m.checked[i] {
			out = append(out, item)
		}
	}
	if len(out) == 0 && m.accept && len(m.items) > 0 {
		out = append(out, m.items[m.cursor])
	}
	return out
}

// selectRoots runs the interactive picker and returns the chosen roots.
func selectRoots(groups []string) ([]string, error) {
	final, err := tea.NewProgram(newRootListModel(groups)).Run()
	if err != nil {
		return nil, fmt.Errorf("root picker: %w", err)
	}
	m, ok := final.(rootListModel)
	if !ok || m.quit || !m.accept {
		return nil, errors.New(errors.ErrCodeNoRoot, "no shading group selected")
	}
	return m.selection(), nil
}
