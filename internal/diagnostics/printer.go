package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/floyd/internal/token"
)

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// Printer renders errors as "file:line:col: CODE message".
type Printer struct {
	w     io.Writer
	file  string
	lines *token.LineIndex
	color bool
}

// NewPrinter creates a printer. src may be nil, in which case offsets are
// printed instead of line/column pairs. Colour is enabled when w is a terminal.
func NewPrinter(w io.Writer, file string, src []byte) *Printer {
	p := &Printer{w: w, file: file}
	if src != nil {
		p.lines = token.NewLineIndex(src)
	}
	if f, ok := w.(*os.File); ok {
		p.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

// Format renders err without writing it.
func (p *Printer) Format(err error) string {
	where := p.file
	var located Located
	if errors.As(err, &located) {
		loc := located.Loc()
		if loc.IsKnown() {
			if p.lines != nil {
				where = joinWhere(where, p.lines.Position(loc.Offset).String())
			} else {
				where = joinWhere(where, loc.String())
			}
		}
	}

	var de *DiagnosticError
	if errors.As(err, &de) {
		code := string(de.Code)
		if p.color {
			code = colorRed + code + colorReset
		}
		return fmt.Sprintf("%s: %s %s", where, code, de.Message)
	}
	if where == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %s", where, err.Error())
}

func (p *Printer) Print(err error) {
	fmt.Fprintln(p.w, p.Format(err))
}

func joinWhere(file, pos string) string {
	if file == "" {
		return pos
	}
	return file + ":" + pos
}
