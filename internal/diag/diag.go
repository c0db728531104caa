// Package diag formats compiler diagnostics with source context: a fixed
// taxonomy of diagnostic kinds, each rendered with a source-line-plus-caret
// view and printed to standard output.
package diag

import (
	"fmt"
	"strings"

	"github.com/kjordahl/pascompile/internal/token"
)

// Kind is one of the fixed diagnostic categories the scanner and parser
// report.
type Kind int

const (
	LexicalError Kind = iota
	SyntaxError
	UndeclaredIdentifier
	DoubleDeclaration
	BadArrayBound
	WrongOperator
	WrongTypeResolution
	ArgListMismatch
)

var kindNames = [...]string{
	LexicalError:         "LexicalError",
	SyntaxError:          "SyntaxError",
	UndeclaredIdentifier: "UndeclaredIdentifier",
	DoubleDeclaration:    "DoubleDeclaration",
	BadArrayBound:        "BadArrayBound",
	WrongOperator:        "WrongOperator",
	WrongTypeResolution:  "WrongTypeResolution",
	ArgListMismatch:      "ArgListMismatch",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Diagnostic is a single compiler diagnostic with position and context.
type Diagnostic struct {
	Kind    Kind
	Message string
	Pos     token.Position
}

// New creates a Diagnostic.
func New(kind Kind, pos token.Position, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message, Pos: pos}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s at %d:%d", d.Kind, d.Message, d.Pos.Line, d.Pos.Column)
}

// Format renders the diagnostic with a source-line-and-caret context.
// color enables ANSI highlighting; callers default it off when stdout
// output is compared against expected fixtures in tests.
func (d *Diagnostic) Format(source, file string, color bool) string {
	var sb strings.Builder

	if file != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", d.Kind, file, d.Pos.Line, d.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "%s at %d:%d\n", d.Kind, d.Pos.Line, d.Pos.Column)
	}

	if line := sourceLine(source, d.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+d.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatAll renders a whole diagnostic stream in source order, with a
// single-diagnostic report printed bare and a multi-diagnostic report
// numbered and separated.
func FormatAll(diags []*Diagnostic, source, file string, color bool) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format(source, file, color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d diagnostic(s):\n\n", len(diags))
	for i, d := range diags {
		fmt.Fprintf(&sb, "[%d of %d]\n", i+1, len(diags))
		sb.WriteString(d.Format(source, file, color))
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
