// Package symtab implements a scoped dictionary keyed by scope identity,
// seeded at construction with reserved words, punctuation, and built-in
// procedures.
package symtab

import "github.com/kjordahl/pascompile/internal/token"

// RecordKind classifies a symbol table entry: a reserved word, a user
// identifier, or a literal-type marker (the four built-in type names,
// seeded in GLOBAL so they can never be declared as identifiers).
type RecordKind int

const (
	KindReserved RecordKind = iota
	KindIdentifier
	KindLiteralMarker
)

// Record is one symbol table entry.
type Record struct {
	TokenString string
	Kind        RecordKind
	DataType    token.DataType
	ArrayLength int
	Scope       token.Word

	// ParamTypes is non-nil only for procedure records: the ordered
	// parameter data types, populated by SetArgTypes once the header's
	// parameter list has been parsed.
	ParamTypes []token.DataType
}

// IsProcedure reports whether r declares a procedure (has a parameter
// list, possibly empty-but-set via SetArgTypes).
func (r *Record) IsProcedure() bool {
	return r.ParamTypes != nil
}

// emptyRecord is the sentinel returned for a failed lookup: a zero-valued
// Record, since KindReserved is Go's zero value for RecordKind. It is
// returned by value, never aliased, so callers can't mutate shared state
// by mistake.
var emptyRecord = Record{}

// SymbolTable maps Scope (a token.Word, compared via its ScopeKey) to an
// inner map from canonical string to Record.
type SymbolTable struct {
	tables map[token.ScopeKey]map[string]*Record
}

// New constructs a symbol table with GLOBAL created and seeded with
// reserved words, punctuation, and built-in procedures.
func New() *SymbolTable {
	st := &SymbolTable{tables: make(map[token.ScopeKey]map[string]*Record)}
	st.CreateScope(token.Global)
	st.seedGlobal()
	return st
}

// CreateScope adds a new empty inner map keyed by scope, if absent.
func (st *SymbolTable) CreateScope(scope token.Word) {
	key := scope.ScopeKey()
	if _, ok := st.tables[key]; ok {
		return
	}
	st.tables[key] = make(map[string]*Record)
}

// RemoveScope drops the inner map for scope. Lookups through the scope
// stack for outer scopes are unaffected.
func (st *SymbolTable) RemoveScope(scope token.Word) {
	delete(st.tables, scope.ScopeKey())
}

// Insert places record into the map keyed by record.Scope. No-op if the
// outer scope is absent.
func (st *SymbolTable) Insert(record *Record) {
	inner, ok := st.tables[record.Scope.ScopeKey()]
	if !ok {
		return
	}
	inner[record.TokenString] = record
}

// LookupInScope looks up name only within the given scope (used before
// insertion to detect double declaration, and for reserved-word lookup
// against GLOBAL).
func (st *SymbolTable) LookupInScope(name string, scope token.Word) (Record, bool) {
	inner, ok := st.tables[scope.ScopeKey()]
	if !ok {
		return emptyRecord, false
	}
	rec, ok := inner[name]
	if !ok {
		return emptyRecord, false
	}
	return *rec, true
}

// Lookup walks scopeStack top (deepest, last element) to bottom (GLOBAL,
// first element) and returns the first match.
func (st *SymbolTable) Lookup(name string, scopeStack []token.Word) (Record, bool) {
	for i := len(scopeStack) - 1; i >= 0; i-- {
		if rec, ok := st.LookupInScope(name, scopeStack[i]); ok {
			return rec, true
		}
	}
	return emptyRecord, false
}

// SetArgTypes retrofits the parameter-type list on a procedure's Record
// after its parameter list has been parsed.
func (st *SymbolTable) SetArgTypes(argTypes []token.DataType, procName string, declaringScope token.Word) {
	inner, ok := st.tables[declaringScope.ScopeKey()]
	if !ok {
		return
	}
	rec, ok := inner[procName]
	if !ok {
		return
	}
	if argTypes == nil {
		argTypes = []token.DataType{}
	}
	rec.ParamTypes = argTypes
}

// builtin describes one seeded built-in procedure.
type builtin struct {
	name    string
	params  []token.DataType
	returns token.DataType
}

var builtins = []builtin{
	{"GETBOOL", nil, token.Bool},
	{"GETINTEGER", nil, token.Integer},
	{"GETFLOAT", nil, token.Float},
	{"GETSTRING", nil, token.String},
	{"PUTBOOL", []token.DataType{token.Bool}, token.Bool},
	{"PUTINTEGER", []token.DataType{token.Integer}, token.Bool},
	{"PUTFLOAT", []token.DataType{token.Float}, token.Bool},
	{"PUTSTRING", []token.DataType{token.String}, token.Bool},
	{"SQRT", []token.DataType{token.Integer}, token.Float},
}

// BuiltinNames returns the canonical names of every seeded built-in
// procedure, in table order. The scanner seeds its procedure-name list
// with these so the very first call site of e.g. PUTINTEGER is already
// classified isProcedure before any PROCEDURE header could introduce it.
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}

var punctuation = []string{
	";", "(", ")", "*", ",", ":", "[", "]", "{", "}",
	"&", "|", "+", "-", ".", "<", ">", "/",
	":=", "==", ">=", "<=", "!=",
}

// reservedWords includes WHILE even though no grammar production consumes
// it: it is reserved so it can never be declared as an identifier, the
// same stance the original compiler takes on it.
var reservedWords = []string{
	"PROGRAM", "IS", "GLOBAL", "VARIABLE", "PROCEDURE",
	"BEGIN", "END", "IF", "THEN", "ELSE", "FOR", "RETURN", "NOT",
	"TRUE", "FALSE", "WHILE",
}

var typeMarks = []string{"INTEGER", "FLOAT", "STRING", "BOOL"}

func (st *SymbolTable) seedGlobal() {
	for _, p := range punctuation {
		st.Insert(&Record{TokenString: p, Kind: KindReserved, Scope: token.Global})
	}
	for _, w := range reservedWords {
		st.Insert(&Record{TokenString: w, Kind: KindReserved, Scope: token.Global})
	}
	for _, tm := range typeMarks {
		st.Insert(&Record{TokenString: tm, Kind: KindLiteralMarker, Scope: token.Global})
	}
	for _, b := range builtins {
		params := b.params
		if params == nil {
			params = []token.DataType{}
		}
		st.Insert(&Record{
			TokenString: b.name,
			Kind:        KindIdentifier,
			DataType:    b.returns,
			ArrayLength: 1,
			Scope:       token.Global,
			ParamTypes:  params,
		})
	}
}
