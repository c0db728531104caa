// Package parser implements a recursive-descent parser with integrated
// semantic analysis: single-token lookahead over an LL(1) grammar
// obtained by eliminating left recursion from the expression family,
// building a tree.Node tree while threading a scope stack through the
// symbol table.
//
// A Parser holds a token cursor plus peek/advance/match primitives, one
// method per grammar production, and diagnostics collected in a slice
// rather than returned per call, in the style of a hand-written
// recursive-descent lexer/parser pairing: single-token lookahead,
// structured diagnostic values instead of bare fmt.Errorf.
package parser

import (
	"fmt"

	"github.com/kjordahl/pascompile/internal/diag"
	"github.com/kjordahl/pascompile/internal/symtab"
	"github.com/kjordahl/pascompile/internal/token"
	"github.com/kjordahl/pascompile/internal/tree"
)

// Parser consumes a finished token list (scanner.GetWordList(), terminated
// by EOF) and a symbol table already seeded with reserved words,
// punctuation, and built-ins (scanner.GetSymbolTable()).
type Parser struct {
	words []token.Word
	pos   int

	sym    *symtab.SymbolTable
	scopes *symtab.ScopeStack

	// Trace, when non-nil, is called once per production entered with the
	// production's name and the source position of the next token. nil
	// means tracing is off. cmd/compile wires this to a stdout "TRACE"
	// line under --debug; the parser itself has no notion of stdout.
	Trace func(production string, pos token.Position)

	strict bool

	diags []*diag.Diagnostic
	fatal *diag.Diagnostic
}

// New constructs a Parser. strict marks the first semantic error
// encountered as fatal so the caller can abort with a nonzero exit status.
func New(words []token.Word, sym *symtab.SymbolTable, strict bool) *Parser {
	return &Parser{
		words:  words,
		sym:    sym,
		scopes: symtab.NewScopeStack(),
		strict: strict,
	}
}

// Diagnostics returns every diagnostic accumulated during the parse, in
// source order.
func (p *Parser) Diagnostics() []*diag.Diagnostic { return p.diags }

// Fatal returns the diagnostic that should abort the process in strict
// mode, or nil if no semantic error occurred (or the parser is in debug
// mode, where semantic errors are recoverable).
func (p *Parser) Fatal() *diag.Diagnostic { return p.fatal }

// Parse runs the program production to completion and returns its tree.
// The tree is a best-effort parse even when Fatal() is non-nil; callers
// in strict mode should check Fatal() before trusting or serializing it.
func (p *Parser) Parse() *tree.Node {
	return p.parseProgram()
}

func (p *Parser) peek() token.Word {
	return p.words[p.pos]
}

func (p *Parser) match(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) advance() token.Word {
	w := p.words[p.pos]
	if p.pos < len(p.words)-1 {
		p.pos++
	}
	return w
}

func (p *Parser) trace(production string) {
	if p.Trace == nil {
		return
	}
	p.Trace(production, p.peek().Pos)
}

func (p *Parser) syntaxError(format string, args ...any) {
	pos := p.peek().Pos
	p.diags = append(p.diags, diag.New(diag.SyntaxError, pos, fmt.Sprintf(format, args...)))
}

// reportSemantic records a semantic diagnostic. In strict mode the first
// one latches as Fatal so the caller can terminate the process after
// printing it; process termination itself is cmd/compile's job, not the
// parser's.
func (p *Parser) reportSemantic(kind diag.Kind, pos token.Position, format string, args ...any) {
	d := diag.New(kind, pos, fmt.Sprintf(format, args...))
	p.diags = append(p.diags, d)
	if p.strict && p.fatal == nil {
		p.fatal = d
	}
}

// follow consumes the expected reserved word or punctuation spelling,
// looked up in token's keyword and punctuation tables. On mismatch it reports a syntax error and
// discards the offending token.
func (p *Parser) follow(expected string) (token.Word, bool) {
	kind, ok := token.LookupKeyword(expected)
	if !ok {
		kind, ok = token.LookupPunctuation(expected)
	}
	if ok && p.peek().Kind == kind {
		return p.advance(), true
	}
	p.syntaxError("expected %q, got %q", expected, p.peek().String)
	return p.advance(), false
}

// followUndeclared requires the next token be an identifier not already
// present in the target scope (GLOBAL if globalFlag, else the top of the
// scope stack). On a name clash it raises DoubleDeclaration.
func (p *Parser) followUndeclared(globalFlag bool) (token.Word, bool) {
	w := p.peek()
	if w.Kind != token.IDENT {
		p.syntaxError("expected an identifier, got %q", w.String)
		return p.advance(), false
	}
	scope := p.scopes.Top()
	if globalFlag {
		scope = token.Global
	}
	if _, exists := p.sym.LookupInScope(w.String, scope); exists {
		p.reportSemantic(diag.DoubleDeclaration, w.Pos, "%s already declared in this scope", w.String)
		return p.advance(), false
	}
	return p.advance(), true
}

// followDeclared requires the next token be an identifier that resolves
// through the scope stack, and returns it enriched with its Record's
// dataType, arrayLength, and (for procedures) paramTypes.
func (p *Parser) followDeclared() (token.Word, bool) {
	w := p.peek()
	if w.Kind != token.IDENT {
		p.syntaxError("expected an identifier, got %q", w.String)
		return p.advance(), false
	}
	rec, ok := p.sym.Lookup(w.String, p.scopes.Snapshot())
	if !ok {
		p.reportSemantic(diag.UndeclaredIdentifier, w.Pos, "%s not declared or out of scope", w.String)
		return p.advance(), false
	}
	enriched := w
	enriched.DataType = rec.DataType
	enriched.ArrayLength = rec.ArrayLength
	enriched.ParamTypes = rec.ParamTypes
	enriched.IsProcedure = rec.IsProcedure()
	p.advance()
	return enriched, true
}

// followLiteral consumes the next token if its kind matches.
func (p *Parser) followLiteral(kind token.Kind) (token.Word, bool) {
	if p.peek().Kind == kind {
		return p.advance(), true
	}
	p.syntaxError("expected a %s literal, got %q", kind, p.peek().String)
	return p.advance(), false
}

func (p *Parser) declStarts() bool {
	k := p.peek().Kind
	return k == token.GLOBAL || k == token.VARIABLE || k == token.PROCEDURE
}

func (p *Parser) stmtStarts() bool {
	k := p.peek().Kind
	return k == token.IDENT || k == token.IF || k == token.FOR || k == token.RETURN
}

// program ::= progHead progBody '.'
func (p *Parser) parseProgram() *tree.Node {
	p.trace("program")
	head := p.parseProgHead()
	body := p.parseProgBody()
	dot, _ := p.follow(".")
	return tree.New(tree.Program, head, body, tree.NewLeaf(dot))
}

// progHead ::= 'PROGRAM' id 'IS'
func (p *Parser) parseProgHead() *tree.Node {
	p.trace("progHead")
	kw, _ := p.follow("PROGRAM")
	var name token.Word
	if p.match(token.IDENT) {
		name = p.advance()
	} else {
		p.syntaxError("expected the program name, got %q", p.peek().String)
		name = p.advance()
	}
	is, _ := p.follow("IS")
	return tree.New(tree.ProgHead, tree.NewLeaf(kw), tree.NewLeaf(name), tree.NewLeaf(is))
}

// progBody ::= (decl ';')* 'BEGIN' (stmt ';')* 'END' 'PROGRAM'
func (p *Parser) parseProgBody() *tree.Node {
	p.trace("progBody")
	var children []*tree.Node
	for p.declStarts() {
		children = append(children, p.parseDecl())
		semi, _ := p.follow(";")
		children = append(children, tree.NewLeaf(semi))
	}
	begin, _ := p.follow("BEGIN")
	children = append(children, tree.NewLeaf(begin))
	for p.stmtStarts() {
		children = append(children, p.parseStmt())
		semi, _ := p.follow(";")
		children = append(children, tree.NewLeaf(semi))
	}
	end, _ := p.follow("END")
	prog, _ := p.follow("PROGRAM")
	children = append(children, tree.NewLeaf(end), tree.NewLeaf(prog))
	return tree.New(tree.ProgBody, children...)
}

// decl ::= 'GLOBAL'? (procDecl | varDecl)
func (p *Parser) parseDecl() *tree.Node {
	p.trace("decl")
	var children []*tree.Node
	globalFlag := false
	if p.match(token.GLOBAL) {
		g := p.advance()
		children = append(children, tree.NewLeaf(g))
		globalFlag = true
	}

	var inner *tree.Node
	switch {
	case p.match(token.PROCEDURE):
		inner = p.parseProcDecl(globalFlag)
	case p.match(token.VARIABLE):
		inner = p.parseVarDecl(globalFlag)
	default:
		p.syntaxError("expected a declaration, got %q", p.peek().String)
		inner = tree.NewLeaf(p.advance())
	}
	children = append(children, inner)
	return tree.New(tree.Decl, children...)
}

// procDecl ::= procHead procBody
func (p *Parser) parseProcDecl(globalFlag bool) *tree.Node {
	p.trace("procDecl")
	head := p.parseProcHead(globalFlag)
	body := p.parseProcBody()
	return tree.New(tree.ProcDecl, head, body)
}

// procHead ::= 'PROCEDURE' id ':' typeMark '(' paramList ')'
func (p *Parser) parseProcHead(globalFlag bool) *tree.Node {
	p.trace("procHead")
	kw := p.advance() // PROCEDURE, already matched by caller

	declaringScope := p.scopes.Top()
	insertScope := declaringScope
	if globalFlag {
		insertScope = token.Global
	}

	name, declared := p.followUndeclared(globalFlag)
	colon, _ := p.follow(":")
	tm := p.parseTypeMark()

	if declared {
		p.sym.Insert(&symtab.Record{
			TokenString: name.String,
			Kind:        symtab.KindIdentifier,
			DataType:    tm.DataType(),
			ArrayLength: 1,
			Scope:       insertScope,
		})
	}

	// Push the procedure's own scope before the parameter list so each
	// parameter is inserted into the procedure's scope, not the caller's.
	p.sym.CreateScope(name)
	p.scopes.Push(name)

	lp, _ := p.follow("(")
	params := p.parseParamList()
	rp, _ := p.follow(")")

	var paramTypes []token.DataType
	for _, child := range params.Children {
		if child.IsLeaf() { // skip ',' separators
			continue
		}
		paramTypes = append(paramTypes, child.DataType())
	}
	if declared {
		p.sym.SetArgTypes(paramTypes, name.String, insertScope)
	}

	return tree.New(tree.ProcHead,
		tree.NewLeaf(kw), tree.NewLeaf(name), tree.NewLeaf(colon), tm,
		tree.NewLeaf(lp), params, tree.NewLeaf(rp))
}

// paramList ::= ε | param (',' param)*
func (p *Parser) parseParamList() *tree.Node {
	p.trace("paramList")
	node := tree.New(tree.ParamList)
	if p.match(token.RPAREN) {
		return node
	}
	node.Append(p.parseParam())
	for p.match(token.COMMA) {
		node.Append(tree.NewLeaf(p.advance()))
		node.Append(p.parseParam())
	}
	return node
}

// param ::= varDecl
func (p *Parser) parseParam() *tree.Node {
	p.trace("param")
	// Parameters always land in the procedure's own (already pushed)
	// scope, never GLOBAL, regardless of the enclosing decl's flag.
	decl := p.parseVarDecl(false)
	node := tree.New(tree.Param, decl)
	node.SetDataType(decl.Children[3].DataType()) // the varDecl's typeMark
	return node
}

// procBody ::= (decl ';')* 'BEGIN' (stmt ';')* 'END' 'PROCEDURE'
func (p *Parser) parseProcBody() *tree.Node {
	p.trace("procBody")
	var children []*tree.Node
	for p.declStarts() {
		children = append(children, p.parseDecl())
		semi, _ := p.follow(";")
		children = append(children, tree.NewLeaf(semi))
	}
	begin, _ := p.follow("BEGIN")
	children = append(children, tree.NewLeaf(begin))
	for p.stmtStarts() {
		children = append(children, p.parseStmt())
		semi, _ := p.follow(";")
		children = append(children, tree.NewLeaf(semi))
	}
	end, _ := p.follow("END")
	procEnd, _ := p.follow("PROCEDURE")
	children = append(children, tree.NewLeaf(end), tree.NewLeaf(procEnd))

	popped := p.scopes.Top()
	p.scopes.Pop()
	p.sym.RemoveScope(popped)

	return tree.New(tree.ProcBody, children...)
}

// varDecl ::= 'VARIABLE' id ':' typeMark ('[' intLiteral ']')?
func (p *Parser) parseVarDecl(globalFlag bool) *tree.Node {
	p.trace("varDecl")
	kw := p.advance() // VARIABLE, already matched by caller

	scope := p.scopes.Top()
	if globalFlag {
		scope = token.Global
	}

	name, declared := p.followUndeclared(globalFlag)
	colon, _ := p.follow(":")
	tm := p.parseTypeMark()

	children := []*tree.Node{tree.NewLeaf(kw), tree.NewLeaf(name), tree.NewLeaf(colon), tm}
	arrayLen := 1
	if p.match(token.LBRACK) {
		lb := p.advance()
		lenWord, _ := p.followLiteral(token.INTLIT)
		rb, _ := p.follow("]")
		children = append(children, tree.NewLeaf(lb), tree.NewLeaf(lenWord), tree.NewLeaf(rb))
		if v, ok := lenWord.Value.(int64); ok {
			arrayLen = int(v)
			if arrayLen <= 0 {
				p.reportSemantic(diag.BadArrayBound, lenWord.Pos, "array length must be positive, got %d", arrayLen)
			}
		}
	}

	if declared {
		p.sym.Insert(&symtab.Record{
			TokenString: name.String,
			Kind:        symtab.KindIdentifier,
			DataType:    tm.DataType(),
			ArrayLength: arrayLen,
			Scope:       scope,
		})
	}

	return tree.New(tree.VarDecl, children...)
}

// typeMark ::= 'INTEGER' | 'FLOAT' | 'STRING' | 'BOOL'
func (p *Parser) parseTypeMark() *tree.Node {
	p.trace("typeMark")
	if !p.peek().Kind.IsTypeMark() {
		p.syntaxError("expected a type mark, got %q", p.peek().String)
		return tree.New(tree.TypeMark, tree.NewLeaf(p.advance()))
	}
	w := p.advance()
	node := tree.New(tree.TypeMark, tree.NewLeaf(w))
	node.SetDataType(w.DataType)
	return node
}

// stmt ::= assignStmt | ifStmt | loopStmt | returnStmt
func (p *Parser) parseStmt() *tree.Node {
	p.trace("stmt")
	var inner *tree.Node
	switch {
	case p.match(token.IDENT):
		inner = p.parseAssignStmt()
	case p.match(token.IF):
		inner = p.parseIfStmt()
	case p.match(token.FOR):
		inner = p.parseLoopStmt()
	case p.match(token.RETURN):
		inner = p.parseReturnStmt()
	default:
		p.syntaxError("expected a statement, got %q", p.peek().String)
		inner = tree.NewLeaf(p.advance())
	}
	return tree.New(tree.Stmt, inner)
}

// assignStmt ::= destination ':=' expression
func (p *Parser) parseAssignStmt() *tree.Node {
	p.trace("assignStmt")
	dest := p.parseDestination()
	assign, _ := p.follow(":=")
	expr := p.parseExpression()
	p.checkAssignCompatible(dest, expr)
	return tree.New(tree.AssignStmt, dest, tree.NewLeaf(assign), expr)
}

// destination ::= id ('[' expression ']')?
func (p *Parser) parseDestination() *tree.Node {
	p.trace("destination")
	w, declared := p.followDeclared()
	node := tree.New(tree.Destination, tree.NewLeaf(w))
	if p.match(token.LBRACK) {
		lb := p.advance()
		idx := p.parseExpression()
		rb, _ := p.follow("]")
		node.Append(tree.NewLeaf(lb))
		node.Append(idx)
		node.Append(tree.NewLeaf(rb))
		if declared {
			p.checkArrayBound(w, idx, lb.Pos)
		}
	}
	node.SetDataType(w.DataType)
	return node
}

// ifStmt ::= 'IF' '(' expression ')' 'THEN' (stmt ';')* ('ELSE' (stmt ';')*)? 'END' 'IF'
func (p *Parser) parseIfStmt() *tree.Node {
	p.trace("ifStmt")
	ifw := p.advance()
	lp, _ := p.follow("(")
	cond := p.parseExpression()
	rp, _ := p.follow(")")
	then, _ := p.follow("THEN")
	p.checkCondition(cond, ifw.Pos)

	children := []*tree.Node{tree.NewLeaf(ifw), tree.NewLeaf(lp), cond, tree.NewLeaf(rp), tree.NewLeaf(then)}
	for p.stmtStarts() {
		children = append(children, p.parseStmt())
		semi, _ := p.follow(";")
		children = append(children, tree.NewLeaf(semi))
	}
	if p.match(token.ELSE) {
		els := p.advance()
		children = append(children, tree.NewLeaf(els))
		for p.stmtStarts() {
			children = append(children, p.parseStmt())
			semi, _ := p.follow(";")
			children = append(children, tree.NewLeaf(semi))
		}
	}
	end, _ := p.follow("END")
	ifEnd, _ := p.follow("IF")
	children = append(children, tree.NewLeaf(end), tree.NewLeaf(ifEnd))
	return tree.New(tree.IfStmt, children...)
}

// loopStmt ::= 'FOR' '(' assignStmt ';' expression ')' (stmt ';')* 'END' 'FOR'
func (p *Parser) parseLoopStmt() *tree.Node {
	p.trace("loopStmt")
	forw := p.advance()
	lp, _ := p.follow("(")
	init := p.parseAssignStmt()
	semi1, _ := p.follow(";")
	cond := p.parseExpression()
	rp, _ := p.follow(")")
	p.checkCondition(cond, forw.Pos)

	children := []*tree.Node{tree.NewLeaf(forw), tree.NewLeaf(lp), init, tree.NewLeaf(semi1), cond, tree.NewLeaf(rp)}
	for p.stmtStarts() {
		children = append(children, p.parseStmt())
		semi, _ := p.follow(";")
		children = append(children, tree.NewLeaf(semi))
	}
	end, _ := p.follow("END")
	forEnd, _ := p.follow("FOR")
	children = append(children, tree.NewLeaf(end), tree.NewLeaf(forEnd))
	return tree.New(tree.LoopStmt, children...)
}

// returnStmt ::= 'RETURN' expression
func (p *Parser) parseReturnStmt() *tree.Node {
	p.trace("returnStmt")
	ret := p.advance()
	expr := p.parseExpression()
	return tree.New(tree.ReturnStmt, tree.NewLeaf(ret), expr)
}

func (p *Parser) checkCondition(cond *tree.Node, pos token.Position) {
	dt := cond.DataType()
	if dt != token.Bool && dt != token.Integer {
		p.reportSemantic(diag.WrongTypeResolution, pos, "condition must resolve to BOOL, got %s", dt)
	}
}

func (p *Parser) checkAssignCompatible(dest, expr *tree.Node) {
	if !compatible(dest.DataType(), expr.DataType()) {
		p.reportSemantic(diag.WrongTypeResolution, firstPos(expr),
			"cannot assign %s to %s", expr.DataType(), dest.DataType())
	}
}

// compatible reports whether a value of type b can be assigned to a
// destination of type a without an explicit conversion: same type, or
// INTEGER<->BOOL, or INTEGER<->FLOAT. STRING is only compatible with itself.
func compatible(a, b token.DataType) bool {
	if a == b {
		return true
	}
	pair := func(x, y token.DataType) bool {
		return (a == x && b == y) || (a == y && b == x)
	}
	return pair(token.Integer, token.Bool) || pair(token.Integer, token.Float)
}

// firstPos returns the source position of n's leftmost leaf, so a
// type-mismatch diagnostic points at the offending literal rather than at
// the operator or the whole expression.
func firstPos(n *tree.Node) token.Position {
	if n.IsLeaf() {
		return n.Leaf.Pos
	}
	if len(n.Children) == 0 {
		return token.Position{}
	}
	return firstPos(n.Children[0])
}

func (p *Parser) checkArrayBound(base token.Word, idx *tree.Node, pos token.Position) {
	if idx.DataType() != token.Integer {
		p.reportSemantic(diag.BadArrayBound, pos, "array index must resolve to INTEGER, got %s", idx.DataType())
		return
	}
	if v, ok := constantInt(idx); ok {
		if v < 0 || v >= int64(base.ArrayLength) {
			p.reportSemantic(diag.BadArrayBound, pos, "index %d out of bounds for array of length %d", v, base.ArrayLength)
		}
	}
}

// constantInt extracts a compile-time integer value from an expression
// subtree when it is a plain (possibly parenthesized, possibly negated)
// integer literal with no operators applied. This compiler does no
// constant folding, so that is the only shape from which an array index's
// bounds (not just its type) can be checked at parse time.
func constantInt(n *tree.Node) (int64, bool) {
	if n.IsLeaf() {
		if n.Leaf.Kind == token.INTLIT {
			if v, ok := n.Leaf.Value.(int64); ok {
				return v, true
			}
		}
		return 0, false
	}
	switch n.Tag {
	case tree.Expression, tree.MathOp, tree.Relation, tree.Term:
		if len(n.Children) != 2 { // NOT-prefixed expression: not constant-foldable here
			return 0, false
		}
		if len(n.Children[1].Children) != 0 { // the prime has an operator
			return 0, false
		}
		return constantInt(n.Children[0])
	case tree.Factor:
		switch len(n.Children) {
		case 1:
			return constantInt(n.Children[0])
		case 2:
			if n.Children[0].IsLeaf() && n.Children[0].Leaf.Kind == token.MINUS {
				v, ok := constantInt(n.Children[1])
				if !ok {
					return 0, false
				}
				return -v, true
			}
		case 3:
			if n.Children[0].IsLeaf() && n.Children[0].Leaf.Kind == token.LPAREN {
				return constantInt(n.Children[1])
			}
		}
	}
	return 0, false
}
