package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// InputReader reads one line of user input after showing prompt.
type InputReader interface {
	ReadLine(prompt string) (string, error)
}

// StdinReader reads lines from a plain stream. Used when stdin is not a
// terminal (pipes, CI).
type StdinReader struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewStdinReader wraps r; prompts go to out.
func NewStdinReader(r io.Reader, out io.Writer) *StdinReader {
	return &StdinReader{reader: bufio.NewReader(r), out: out}
}

// ReadLine returns the next line without its newline. A final line without
// a newline is returned with a nil error; io.EOF follows.
func (r *StdinReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// InteractiveInputReader edits the line with a bubbletea text input.
type InteractiveInputReader struct {
	out io.Writer
}

type inputModel struct {
	textInput textinput.Model
	done      bool
	cancelled bool
}

// NewInputReader picks the interactive reader on a terminal and a plain
// reader otherwise.
func NewInputReader() InputReader {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewStdinReader(os.Stdin, os.Stdout)
	}
	return &InteractiveInputReader{out: os.Stderr}
}

// ReadLine runs a one-line bubbletea program. Ctrl+C clears the line,
// Ctrl+D on an empty line returns io.EOF.
func (r *InteractiveInputReader) ReadLine(prompt string) (string, error) {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 80

	p := tea.NewProgram(inputModel{textInput: ti}, tea.WithOutput(r.out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := final.(inputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", final)
	}
	if result.cancelled {
		return "", io.EOF
	}
	value := strings.TrimSpace(result.textInput.Value())
	// The view clears itself on exit; echo the accepted line.
	fmt.Fprintf(r.out, "%s%s\n", prompt, value)
	return value, nil
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC:
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.textInput.Value() == "" {
				m.cancelled = true
				m.done = true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}
