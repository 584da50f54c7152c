package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// MenuModel is the Bubble Tea model for picking one numbered option.
type MenuModel struct {
	title    string
	options  []string
	question string
	cursor   int
	choice   string
	aborted  bool
	keys     menuKeys
	help     help.Model
}

// NewMenuModel creates a MenuModel with the first option highlighted.
func NewMenuModel(title string, options []string, question string) MenuModel {
	return MenuModel{
		title:    title,
		options:  options,
		question: question,
		keys:     MenuKeyMap(),
		help:     help.New(),
	}
}

// Choice returns the picked option number as text, or "" if none was picked.
func (m MenuModel) Choice() string {
	return m.choice
}

// Aborted reports whether the user quit without choosing.
func (m MenuModel) Aborted() bool {
	return m.aborted
}

// Init returns the initial command.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses and window resizes.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Enter):
			m.choice = strconv.Itoa(m.cursor + 1)
			return m, tea.Quit
		case key.Matches(msg, m.keys.Number):
			n, _ := strconv.Atoi(msg.String())
			if n >= 1 && n <= len(m.options) {
				m.cursor = n - 1
				m.choice = msg.String()
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// View renders the title, the numbered options and the help bar.
// Once a choice is made only the answered question remains.
func (m MenuModel) View() string {
	if m.choice != "" || m.aborted {
		return questionStyle.Render(m.question) + m.choice + "\n"
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString("\n" + titleStyle.Render(m.title) + "\n")
	}
	for i, opt := range m.options {
		line := fmt.Sprintf("%d - %s", i+1, opt)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(cursor+" "+line) + "\n")
		} else {
			b.WriteString("  " + optionStyle.Render(line) + "\n")
		}
	}
	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}
