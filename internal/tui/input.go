package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// InputModel is the Bubble Tea model for one free-text question.
type InputModel struct {
	question string
	input    textinput.Model
	done     bool
	aborted  bool
	keys     inputKeys
	help     help.Model
}

// NewInputModel creates a focused InputModel showing question as its prompt.
func NewInputModel(question string) InputModel {
	ti := textinput.New()
	ti.Prompt = question
	ti.PromptStyle = questionStyle
	ti.Focus()
	return InputModel{
		question: question,
		input:    ti,
		keys:     InputKeyMap(),
		help:     help.New(),
	}
}

// Value returns the text typed so far.
func (m InputModel) Value() string {
	return m.input.Value()
}

// Done reports whether the answer was submitted.
func (m InputModel) Done() bool {
	return m.done
}

// Aborted reports whether the user quit without answering.
func (m InputModel) Aborted() bool {
	return m.aborted
}

// Init starts the cursor blink.
func (m InputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update submits on enter, aborts on quit keys and forwards the rest to the text input.
func (m InputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Enter):
			m.done = true
			m.input.Blur()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the question with the text typed so far.
func (m InputModel) View() string {
	if m.done || m.aborted {
		return questionStyle.Render(m.question) + m.input.Value() + "\n"
	}
	return m.input.View() + "\n\n" + m.help.View(m.keys) + "\n"
}
