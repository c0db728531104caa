package parser

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/kjordahl/pascompile/internal/diag"
	"github.com/kjordahl/pascompile/internal/scanner"
	"github.com/kjordahl/pascompile/internal/token"
	"github.com/kjordahl/pascompile/internal/tree"
)

func parse(t *testing.T, src string, strict bool) (*tree.Node, *Parser) {
	t.Helper()
	s := scanner.New("test.src", src)
	for s.NextToken() != token.EOF {
	}
	p := New(s.GetWordList(), s.GetSymbolTable(), strict)
	root := p.Parse()
	return root, p
}

func TestMinimalProgramHasNoDiagnostics(t *testing.T) {
	root, p := parse(t, `PROGRAM P IS BEGIN END PROGRAM.`, true)
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", p.Diagnostics())
	}
	if len(root.Children) != 3 {
		t.Fatalf("expected 3 top-level children (head, body, dot), got %d", len(root.Children))
	}
}

func TestVariableDeclarationAndAssignment(t *testing.T) {
	src := `PROGRAM P IS VARIABLE X : INTEGER; BEGIN X := 1 + 2; END PROGRAM.`
	root, p := parse(t, src, true)
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", p.Diagnostics())
	}
	rec, ok := p.sym.LookupInScope("X", token.Global)
	if !ok || rec.DataType != token.Integer {
		t.Fatalf("expected X inserted in GLOBAL as INTEGER, got %+v", rec)
	}

	body := root.Children[1]
	var assignExpr *tree.Node
	for _, c := range body.Children {
		if c.Tag == tree.Stmt {
			assignExpr = c.Children[0].Children[2] // Stmt -> AssignStmt -> [dest, :=, expr]
		}
	}
	if assignExpr == nil || assignExpr.DataType() != token.Integer {
		t.Fatalf("expected the assigned expression to resolve to INTEGER, got %+v", assignExpr)
	}
}

func TestTypeErrorReportsWrongTypeResolutionAtLiteral(t *testing.T) {
	src := "PROGRAM P IS VARIABLE S : STRING; BEGIN\nS := 1;\nEND PROGRAM."
	_, p := parse(t, src, true)
	if p.Fatal() == nil {
		t.Fatalf("expected a fatal diagnostic in strict mode")
	}
	if p.Fatal().Kind != diag.WrongTypeResolution {
		t.Fatalf("expected WrongTypeResolution, got %v", p.Fatal().Kind)
	}
	if p.Fatal().Pos.Line != 2 || p.Fatal().Pos.Column != 6 {
		t.Fatalf("expected the diagnostic anchored at the literal '1' (2,6), got %v", p.Fatal().Pos)
	}
}

func TestUndeclaredIdentifierAfterProcedureScopeCloses(t *testing.T) {
	src := `PROGRAM P IS
PROCEDURE F : INTEGER ( VARIABLE A : INTEGER ) BEGIN RETURN A; END PROCEDURE;
BEGIN
A := 1;
END PROGRAM.`
	_, p := parse(t, src, false)
	found := false
	for _, d := range p.Diagnostics() {
		if d.Kind == diag.UndeclaredIdentifier {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected UndeclaredIdentifier for A used outside F, got %+v", p.Diagnostics())
	}
}

func TestArrayBoundOutOfRange(t *testing.T) {
	src := `PROGRAM P IS VARIABLE V : INTEGER[3]; BEGIN V[3] := 0; END PROGRAM.`
	_, p := parse(t, src, false)
	found := false
	for _, d := range p.Diagnostics() {
		if d.Kind == diag.BadArrayBound {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected BadArrayBound for V[3], got %+v", p.Diagnostics())
	}
}

func TestProcCallArgListMismatch(t *testing.T) {
	src := `PROGRAM P IS VARIABLE B : BOOL; BEGIN B := PUTINTEGER(TRUE); END PROGRAM.`
	_, p := parse(t, src, false)
	found := false
	for _, d := range p.Diagnostics() {
		if d.Kind == diag.ArgListMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ArgListMismatch for PUTINTEGER(TRUE), got %+v", p.Diagnostics())
	}
}

func TestScopeDepthRestoredAfterProcedure(t *testing.T) {
	src := `PROGRAM P IS
PROCEDURE F : INTEGER ( VARIABLE A : INTEGER ) BEGIN RETURN A; END PROCEDURE;
BEGIN
END PROGRAM.`
	s := scanner.New("test.src", src)
	for s.NextToken() != token.EOF {
	}
	p := New(s.GetWordList(), s.GetSymbolTable(), false)
	depthBefore := p.scopes.Depth()
	p.Parse()
	if p.scopes.Depth() != depthBefore {
		t.Fatalf("scope depth not restored: before=%d after=%d", depthBefore, p.scopes.Depth())
	}
}

func TestIdentifierFoldingIsCaseInsensitive(t *testing.T) {
	src := `PROGRAM P IS VARIABLE tmp : INTEGER; BEGIN TMP := 1; tMp := 2; END PROGRAM.`
	_, p := parse(t, src, true)
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("expected case-folded references to resolve, got %+v", p.Diagnostics())
	}
}

func TestSerializedTreeSnapshot(t *testing.T) {
	src := `PROGRAM P IS VARIABLE X : INTEGER; BEGIN X := 1 + 2; END PROGRAM.`
	root, _ := parse(t, src, true)

	var sb strings.Builder
	if err := tree.Serialize(root, &sb); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	snaps.MatchSnapshot(t, sb.String())
}
