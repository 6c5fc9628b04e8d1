package agentloop

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ConfirmPrompt is shown before each command.
const ConfirmPrompt = "OK to run command? (Y/n) "

// ErrConfirmAborted is returned when the user interrupts the prompt.
var ErrConfirmAborted = errors.New("confirmation aborted")

// Confirmer asks whether command may run.
type Confirmer func(command string) (bool, error)

// AlwaysConfirm approves every command without asking.
func AlwaysConfirm(string) (bool, error) { return true, nil }

// parseAnswer reports the decision for one line of input; ok is false when
// the line should be asked again.
func parseAnswer(line string) (yes, ok bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y":
		return true, true
	case "n":
		return false, true
	}
	return false, false
}

// NewReaderConfirmer reads answers line by line from r, writing the prompt
// to w.
func NewReaderConfirmer(r io.Reader, w io.Writer) Confirmer {
	br := bufio.NewReader(r)
	return func(string) (bool, error) {
		for {
			fmt.Fprint(w, ConfirmPrompt)
			line, err := br.ReadString('\n')
			if line == "" && err != nil {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				return false, err
			}
			// A final unterminated line still counts as an answer.
			if yes, ok := parseAnswer(line); ok {
				return yes, nil
			}
			if err != nil {
				return false, io.ErrUnexpectedEOF
			}
		}
	}
}

// NewTerminalConfirmer prompts with line editing when stdin is a terminal and
// falls back to NewReaderConfirmer otherwise. Answered prompts are erased on
// a terminal so that only the command and its result stay on screen.
func NewTerminalConfirmer(stdin *os.File, stdout io.Writer) Confirmer {
	if !term.IsTerminal(int(stdin.Fd())) {
		return NewReaderConfirmer(stdin, stdout)
	}
	return func(string) (bool, error) {
		line := liner.NewLiner()
		line.SetCtrlCAborts(true)
		defer line.Close()

		for attempt := 0; ; attempt++ {
			if attempt > 0 {
				clearPrevLine(stdout)
			}
			input, err := line.Prompt(ConfirmPrompt)
			if err != nil {
				switch err {
				case liner.ErrPromptAborted:
					return false, ErrConfirmAborted
				case io.EOF:
					return false, io.ErrUnexpectedEOF
				}
				return false, err
			}
			if yes, ok := parseAnswer(input); ok {
				if yes {
					clearPrevLine(stdout)
				}
				return yes, nil
			}
		}
	}
}

// clearPrevLine moves up over the answered prompt and erases it.
func clearPrevLine(w io.Writer) {
	io.WriteString(w, ansi.CursorUp(1)+ansi.EraseEntireLine)
}
