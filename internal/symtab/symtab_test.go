package symtab

import (
	"testing"

	"github.com/kjordahl/pascompile/internal/token"
)

func TestSeedGlobalHasReservedAndBuiltins(t *testing.T) {
	st := New()

	tests := []struct {
		name     string
		wantKind RecordKind
	}{
		{"PROGRAM", KindReserved},
		{";", KindReserved},
		{"INTEGER", KindLiteralMarker},
		{"PUTINTEGER", KindIdentifier},
	}

	for _, tt := range tests {
		rec, ok := st.LookupInScope(tt.name, token.Global)
		if !ok {
			t.Fatalf("expected %q to be seeded in GLOBAL", tt.name)
		}
		if rec.Kind != tt.wantKind {
			t.Fatalf("%q kind = %v, want %v", tt.name, rec.Kind, tt.wantKind)
		}
	}

	rec, ok := st.LookupInScope("PUTINTEGER", token.Global)
	if !ok || len(rec.ParamTypes) != 1 || rec.ParamTypes[0] != token.Integer {
		t.Fatalf("PUTINTEGER should declare one INTEGER parameter, got %+v", rec)
	}
	if rec.DataType != token.Bool {
		t.Fatalf("PUTINTEGER should return BOOL, got %v", rec.DataType)
	}
}

func TestLookupFailureSentinel(t *testing.T) {
	st := New()
	rec, ok := st.LookupInScope("NOPE", token.Global)
	if ok {
		t.Fatalf("expected lookup miss")
	}
	if rec.Kind != KindReserved || rec.TokenString != "" {
		t.Fatalf("expected zero-value sentinel record, got %+v", rec)
	}
}

func TestInsertNoOpWithoutScope(t *testing.T) {
	st := New()
	ghost := token.NewWord(token.IDENT, "GHOST", token.Position{Line: 1, Column: 1})
	st.Insert(&Record{TokenString: "X", Scope: ghost})

	if _, ok := st.LookupInScope("X", ghost); ok {
		t.Fatalf("insert into a non-existent scope must be a no-op")
	}
}

func TestDoubleDeclarationDetectedViaLookupInScope(t *testing.T) {
	st := New()
	proc := token.NewWord(token.IDENT, "F", token.Position{Line: 2, Column: 1})
	st.CreateScope(proc)

	st.Insert(&Record{TokenString: "A", Kind: KindIdentifier, DataType: token.Integer, Scope: proc})
	if _, ok := st.LookupInScope("A", proc); !ok {
		t.Fatalf("expected A to be found in its own scope")
	}

	// Simulate the parser's pre-insertion check.
	if _, exists := st.LookupInScope("A", proc); !exists {
		t.Fatalf("double-declaration check should find the existing record")
	}
}

func TestScopeRemovalKeepsOuterLookupWorking(t *testing.T) {
	st := New()
	stack := NewScopeStack()

	proc := token.NewWord(token.IDENT, "F", token.Position{Line: 5, Column: 1})
	st.CreateScope(proc)
	stack.Push(proc)
	st.Insert(&Record{TokenString: "A", Kind: KindIdentifier, DataType: token.Integer, Scope: proc})

	if _, ok := st.Lookup("A", stack.Snapshot()); !ok {
		t.Fatalf("A should resolve while F's scope is active")
	}

	stack.Pop()
	st.RemoveScope(proc)

	if _, ok := st.Lookup("A", stack.Snapshot()); ok {
		t.Fatalf("A must not resolve once F's scope has been removed")
	}
	if _, ok := st.Lookup("PROGRAM", stack.Snapshot()); !ok {
		t.Fatalf("GLOBAL lookups should still succeed after popping an inner scope")
	}
}

func TestScopeStackNeverPopsBelowGlobal(t *testing.T) {
	stack := NewScopeStack()
	stack.Pop()
	stack.Pop()
	if stack.Depth() != 1 {
		t.Fatalf("depth = %d, want 1 (GLOBAL only)", stack.Depth())
	}
	if stack.Top().ScopeKey() != token.Global.ScopeKey() {
		t.Fatalf("top should remain GLOBAL")
	}
}

func TestSetArgTypes(t *testing.T) {
	st := New()
	proc := token.NewWord(token.IDENT, "F", token.Position{Line: 1, Column: 1})
	st.Insert(&Record{TokenString: "F", Kind: KindIdentifier, DataType: token.Integer, Scope: token.Global})

	st.SetArgTypes([]token.DataType{token.Integer, token.Bool}, "F", token.Global)

	rec, ok := st.LookupInScope("F", token.Global)
	if !ok {
		t.Fatalf("F should still resolve")
	}
	if !rec.IsProcedure() {
		t.Fatalf("F should be classified as a procedure after SetArgTypes")
	}
	if len(rec.ParamTypes) != 2 || rec.ParamTypes[1] != token.Bool {
		t.Fatalf("unexpected param types: %+v", rec.ParamTypes)
	}
	_ = proc
}
