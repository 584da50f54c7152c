// Package prompt asks questions on a line-oriented terminal or pipe.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrNoOptions indicates Choose was called with an empty option list.
var ErrNoOptions = errors.New("prompt: no options")

// Prompter collects answers from the user.
// Implemented by LinePrompter and tui.Prompter.
type Prompter interface {
	// Ask shows question and returns the answer without its line terminator.
	// It returns ctx.Err() if ctx is done before an answer arrives.
	Ask(ctx context.Context, question string) (string, error)
	// Choose presents numbered options and returns the raw choice,
	// normally the 1-based option number as text.
	Choose(ctx context.Context, title string, options []string, question string) (string, error)
}

type line struct {
	text string
	err  error
}

// LinePrompter reads one line per answer from r and writes questions to w.
// Lines are read by a background goroutine started on the first Ask, so
// a cancelled Ask does not lose the line that eventually arrives.
type LinePrompter struct {
	r     *bufio.Reader
	w     io.Writer
	once  sync.Once
	lines chan line
}

// NewLinePrompter creates a LinePrompter over r and w.
func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(r), w: w, lines: make(chan line)}
}

// Ask writes question and waits for a line. A final unterminated line is
// returned as an answer; io.EOF is returned only when no input remains.
func (p *LinePrompter) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := io.WriteString(p.w, question); err != nil {
		return "", fmt.Errorf("prompt: writing question: %w", err)
	}
	p.once.Do(func() { go p.readLoop() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

// readLoop feeds p.lines until the reader ends, then closes it.
func (p *LinePrompter) readLoop() {
	defer close(p.lines)
	for {
		s, err := p.r.ReadString('\n')
		switch {
		case err == nil:
			p.lines <- line{text: trimEOL(s)}
		case errors.Is(err, io.EOF):
			if s != "" {
				p.lines <- line{text: trimEOL(s)}
			}
			return
		default:
			p.lines <- line{err: fmt.Errorf("prompt: reading answer: %w", err)}
			return
		}
	}
}

// Choose prints title and the options numbered from 1, then asks question.
func (p *LinePrompter) Choose(ctx context.Context, title string, options []string, question string) (string, error) {
	if len(options) == 0 {
		return "", ErrNoOptions
	}
	var b strings.Builder
	if title != "" {
		b.WriteString("\n" + title + "\n")
	}
	for i, opt := range options {
		fmt.Fprintf(&b, "%d - %s\n", i+1, opt)
	}
	if _, err := io.WriteString(p.w, b.String()); err != nil {
		return "", fmt.Errorf("prompt: writing options: %w", err)
	}
	return p.Ask(ctx, question)
}

func trimEOL(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
}
