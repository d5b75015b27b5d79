package query

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette.
var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7C79FF"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#FF5F56", Dark: "#FF6B6B"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
)

const prompt = "MDB> "

// REPL reads commands line by line and prints their results.
type REPL struct {
	interp *Interpreter
	in     io.Reader
	out    io.Writer

	// Format is the current output format; FORMAT changes it.
	Format Format
	// Interactive enables the banner, the prompt and colors.
	Interactive bool
}

// NewREPL returns a REPL reading from in and writing to out in plain format.
func NewREPL(interp *Interpreter, in io.Reader, out io.Writer) *REPL {
	return &REPL{interp: interp, in: in, out: out, Format: FormatPlain}
}

// Run processes lines until EXIT, end of input or ctx is canceled.
//
// A failing command prints "System Error: <message>" and the loop continues.
// Only errors reading input or writing output are returned.
func (r *REPL) Run(ctx context.Context) error {
	rend := lipgloss.NewRenderer(r.out)
	if !r.Interactive {
		rend.SetColorProfile(termenv.Ascii)
	}
	errStyle := rend.NewStyle().Foreground(errorColor)
	if r.Interactive {
		if err := r.banner(rend); err != nil {
			return err
		}
	}
	br := bufio.NewReader(r.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Interactive {
			if _, err := io.WriteString(r.out, rend.NewStyle().Foreground(primaryColor).Bold(true).Render(prompt)); err != nil {
				return err
			}
		}
		// Lines have no length limit; a partial last line is still executed.
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil
		if eof && line == "" {
			if r.Interactive {
				_, _ = fmt.Fprintln(r.out)
			}
			return nil
		}
		if done, err := r.handle(strings.TrimSpace(line), errStyle); done || err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

// handle executes one line and prints its result. done is true after EXIT.
func (r *REPL) handle(line string, errStyle lipgloss.Style) (done bool, err error) {
	if line == "" {
		return false, nil
	}
	res, err := r.interp.Exec(line)
	if err != nil {
		_, err := fmt.Fprintln(r.out, errStyle.Render("System Error: "+err.Error()))
		return false, err
	}
	switch res.Kind {
	case KindExit:
		_, err := fmt.Fprintln(r.out, res.Message)
		return true, err
	case KindFormat:
		r.Format = res.Format
	}
	return false, Write(r.out, res, r.Format)
}

func (r *REPL) banner(rend *lipgloss.Renderer) error {
	box := rend.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(0, 2)
	title := rend.NewStyle().Bold(true).Foreground(primaryColor).Render("WELCOME TO MIRIERI DB (MDB)")
	hint := rend.NewStyle().Foreground(mutedColor).Render("Type 'help' for commands or 'exit' to quit.")
	_, err := fmt.Fprintln(r.out, box.Render(lipgloss.JoinVertical(lipgloss.Center, title, hint)))
	return err
}
