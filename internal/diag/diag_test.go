package diag

import (
	"strings"
	"testing"

	"github.com/kjordahl/pascompile/internal/token"
)

func TestFormatIncludesCaretUnderColumn(t *testing.T) {
	src := "VARIABLE S : STRING;\nS := 1;\n"
	d := New(WrongTypeResolution, token.Position{Line: 2, Column: 6}, "cannot assign INTEGER to STRING")

	out := d.Format(src, "test.src", false)
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], "WrongTypeResolution") {
		t.Fatalf("header missing kind: %q", lines[0])
	}
	if !strings.Contains(out, "S := 1;") {
		t.Fatalf("missing source line in output: %q", out)
	}
	caretLine := lines[2]
	if strings.Index(caretLine, "^") != strings.Index(lines[1], "1") {
		t.Fatalf("caret not aligned under offending column: %q vs %q", caretLine, lines[1])
	}
}

func TestFormatAllEmpty(t *testing.T) {
	if got := FormatAll(nil, "", "", false); got != "" {
		t.Fatalf("expected empty string for no diagnostics, got %q", got)
	}
}

func TestFormatAllMultiple(t *testing.T) {
	diags := []*Diagnostic{
		New(SyntaxError, token.Position{Line: 1, Column: 1}, "a"),
		New(UndeclaredIdentifier, token.Position{Line: 2, Column: 1}, "b"),
	}
	out := FormatAll(diags, "x\ny\n", "f.src", false)
	if !strings.Contains(out, "2 diagnostic(s)") {
		t.Fatalf("expected a count header, got %q", out)
	}
	if !strings.Contains(out, "[1 of 2]") || !strings.Contains(out, "[2 of 2]") {
		t.Fatalf("expected both diagnostics to be numbered: %q", out)
	}
}

func TestKindStringUnknown(t *testing.T) {
	if Kind(99).String() != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for out-of-range kind")
	}
}
