// Package tui renders address book prompts as Bubble Tea programs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/addressbook/internal/prompt"
)

// ErrAborted indicates the user quit a prompt. It matches io.EOF so callers
// treat it as the end of input.
var ErrAborted = fmt.Errorf("tui: aborted: %w", io.EOF)

// Verify at compile time that both prompters satisfy prompt.Prompter.
var (
	_ prompt.Prompter = (*Prompter)(nil)
	_ prompt.Prompter = (*prompt.LinePrompter)(nil)
)

// Options configures prompter creation.
type Options struct {
	In         io.Reader // Input source (default: os.Stdin).
	Out        io.Writer // Output destination (default: os.Stdout).
	ForcePlain bool      // Force line prompts even on a TTY.
}

// NewPrompter returns a Bubble Tea prompter when both ends are terminals,
// or a line prompter otherwise. ForcePlain overrides TTY detection.
func NewPrompter(opts Options) prompt.Prompter {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.ForcePlain || !isTTY(opts.In) || !isTTY(opts.Out) {
		return prompt.NewLinePrompter(opts.In, opts.Out)
	}
	return &Prompter{in: opts.In, out: opts.Out}
}

// isTTY reports whether v is a file connected to a terminal.
func isTTY(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Prompter runs one inline Bubble Tea program per question.
type Prompter struct {
	in   io.Reader
	out  io.Writer
	opts []tea.ProgramOption
}

// Ask shows question in a text input and returns the submitted value.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	final, err := p.run(ctx, NewInputModel(question))
	if err != nil {
		return "", err
	}
	m := final.(InputModel)
	if m.Aborted() {
		return "", ErrAborted
	}
	return m.Value(), nil
}

// Choose shows the options as a navigable menu and returns the picked number.
func (p *Prompter) Choose(ctx context.Context, title string, options []string, question string) (string, error) {
	if len(options) == 0 {
		return "", prompt.ErrNoOptions
	}
	final, err := p.run(ctx, NewMenuModel(title, options, question))
	if err != nil {
		return "", err
	}
	m := final.(MenuModel)
	if m.Aborted() {
		return "", ErrAborted
	}
	return m.Choice(), nil
}

func (p *Prompter) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithInput(p.in), tea.WithOutput(p.out)}, p.opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil, ErrAborted
		}
		return nil, fmt.Errorf("tui: running prompt: %w", err)
	}
	return final, nil
}
