package tree

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/kjordahl/pascompile/internal/token"
)

func word(kind token.Kind, str string, line, col int) token.Word {
	return token.NewWord(kind, str, token.Position{Line: line, Column: col})
}

func TestSerializeMinimalProgram(t *testing.T) {
	// PROGRAM P IS BEGIN END PROGRAM.
	root := New(Program,
		New(ProgHead,
			NewLeaf(word(token.PROGRAM, "PROGRAM", 1, 1)),
			NewLeaf(word(token.IDENT, "P", 1, 9)),
			NewLeaf(word(token.IS, "IS", 1, 11)),
		),
		New(ProgBody,
			NewLeaf(word(token.BEGIN, "BEGIN", 1, 14)),
			NewLeaf(word(token.END, "END", 1, 20)),
			NewLeaf(word(token.PROGRAM, "PROGRAM", 1, 24)),
		),
		NewLeaf(word(token.DOT, ".", 1, 31)),
	)

	var sb strings.Builder
	if err := Serialize(root, &sb); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	snaps.MatchSnapshot(t, sb.String())
}

func TestLeavesConcatenateInOrder(t *testing.T) {
	a := NewLeaf(word(token.IDENT, "A", 1, 1))
	plus := NewLeaf(word(token.PLUS, "+", 1, 3))
	b := NewLeaf(word(token.IDENT, "B", 1, 5))
	root := New(Expression, a, New(ExpressionPrime, plus, b))

	leaves := Leaves(root)
	if len(leaves) != 3 {
		t.Fatalf("expected 3 leaves, got %d", len(leaves))
	}
	if leaves[0].String != "A" || leaves[1].String != "+" || leaves[2].String != "B" {
		t.Fatalf("leaves out of order: %+v", leaves)
	}
}

func TestDataTypePropagatesFromSynth(t *testing.T) {
	n := New(Expression)
	if n.DataType() != token.Unset {
		t.Fatalf("expected Unset before SetDataType, got %v", n.DataType())
	}
	n.SetDataType(token.Integer)
	if n.DataType() != token.Integer {
		t.Fatalf("DataType() = %v, want Integer", n.DataType())
	}
}

func TestLeafDataTypeComesFromToken(t *testing.T) {
	w := word(token.INTLIT, "1", 1, 1)
	w.DataType = token.Integer
	leaf := NewLeaf(w)
	if leaf.DataType() != token.Integer {
		t.Fatalf("leaf DataType() = %v, want Integer", leaf.DataType())
	}
}

func TestTagStringUnknown(t *testing.T) {
	if Tag(999).String() != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for out-of-range tag")
	}
}
