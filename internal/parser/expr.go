package parser

import (
	"github.com/kjordahl/pascompile/internal/diag"
	"github.com/kjordahl/pascompile/internal/token"
	"github.com/kjordahl/pascompile/internal/tree"
)

// expression ::= 'NOT'? mathOp expression'
func (p *Parser) parseExpression() *tree.Node {
	p.trace("expression")
	var children []*tree.Node
	negated := false
	var notPos token.Position

	if p.match(token.NOT) {
		w := p.advance()
		children = append(children, tree.NewLeaf(w))
		negated, notPos = true, w.Pos
	}

	lhs := p.parseMathOp()
	prime := p.parseExpressionPrime()
	children = append(children, lhs, prime)

	dt := p.foldPrime(lhs.DataType(), prime, p.bitwiseOrBoolResult)
	if negated {
		dt = p.applyNot(dt, notPos)
	}

	node := tree.New(tree.Expression, children...)
	node.SetDataType(dt)
	return node
}

// expression' ::= ( ('&'|'|') mathOp expression' )?
func (p *Parser) parseExpressionPrime() *tree.Node {
	p.trace("expression'")
	if p.match(token.AMP) || p.match(token.PIPE) {
		op := p.advance()
		rhs := p.parseMathOp()
		tail := p.parseExpressionPrime()
		return tree.New(tree.ExpressionPrime, tree.NewLeaf(op), rhs, tail)
	}
	return tree.New(tree.ExpressionPrime)
}

// mathOp ::= relation mathOp'
func (p *Parser) parseMathOp() *tree.Node {
	p.trace("mathOp")
	lhs := p.parseRelation()
	prime := p.parseMathOpPrime()
	node := tree.New(tree.MathOp, lhs, prime)
	node.SetDataType(p.foldPrime(lhs.DataType(), prime, p.arithmeticResult))
	return node
}

// mathOp' ::= ( ('+'|'-') relation mathOp' )?
func (p *Parser) parseMathOpPrime() *tree.Node {
	p.trace("mathOp'")
	if p.match(token.PLUS) || p.match(token.MINUS) {
		op := p.advance()
		rhs := p.parseRelation()
		tail := p.parseMathOpPrime()
		return tree.New(tree.MathOpPrime, tree.NewLeaf(op), rhs, tail)
	}
	return tree.New(tree.MathOpPrime)
}

// relation ::= term relation'
func (p *Parser) parseRelation() *tree.Node {
	p.trace("relation")
	lhs := p.parseTerm()
	prime := p.parseRelationPrime()
	node := tree.New(tree.Relation, lhs, prime)
	node.SetDataType(p.foldPrime(lhs.DataType(), prime, p.relationalResult))
	return node
}

func (p *Parser) isRelOp() bool {
	switch p.peek().Kind {
	case token.LESS, token.LE, token.GREATER, token.GE, token.EQ, token.NE:
		return true
	default:
		return false
	}
}

// relation' ::= ( ('<'|'<='|'>'|'>='|'=='|'!=') term relation' )?
func (p *Parser) parseRelationPrime() *tree.Node {
	p.trace("relation'")
	if p.isRelOp() {
		op := p.advance()
		rhs := p.parseTerm()
		tail := p.parseRelationPrime()
		return tree.New(tree.RelationPrime, tree.NewLeaf(op), rhs, tail)
	}
	return tree.New(tree.RelationPrime)
}

// term ::= factor term'
func (p *Parser) parseTerm() *tree.Node {
	p.trace("term")
	lhs := p.parseFactor()
	prime := p.parseTermPrime()
	node := tree.New(tree.Term, lhs, prime)
	node.SetDataType(p.foldPrime(lhs.DataType(), prime, p.arithmeticResult))
	return node
}

// term' ::= ( ('*'|'/') factor term' )?
func (p *Parser) parseTermPrime() *tree.Node {
	p.trace("term'")
	if p.match(token.ASTERISK) || p.match(token.SLASH) {
		op := p.advance()
		rhs := p.parseFactor()
		tail := p.parseTermPrime()
		return tree.New(tree.TermPrime, tree.NewLeaf(op), rhs, tail)
	}
	return tree.New(tree.TermPrime)
}

// foldPrime walks a left-recursion-eliminated prime chain, combining the
// running type with each (operator, operand) pair it finds. An empty
// prime node passes the type through unchanged; a non-empty one combines
// lhs, op, and the recursive tail, left to right.
func (p *Parser) foldPrime(lhsType token.DataType, prime *tree.Node, combine func(op token.Kind, lhs, rhs token.DataType, pos token.Position) token.DataType) token.DataType {
	if len(prime.Children) == 0 {
		return lhsType
	}
	opLeaf, rhsNode, tail := prime.Children[0], prime.Children[1], prime.Children[2]
	combined := combine(opLeaf.Leaf.Kind, lhsType, rhsNode.DataType(), opLeaf.Leaf.Pos)
	return p.foldPrime(combined, tail, combine)
}

// arithmeticResult types '+' '-' '*' '/': both INTEGER -> INTEGER; any
// FLOAT present (with the other operand INTEGER or FLOAT) -> FLOAT;
// anything else is a WrongOperator mismatch.
func (p *Parser) arithmeticResult(op token.Kind, lhs, rhs token.DataType, pos token.Position) token.DataType {
	if lhs == token.Integer && rhs == token.Integer {
		return token.Integer
	}
	numeric := func(d token.DataType) bool { return d == token.Integer || d == token.Float }
	if numeric(lhs) && numeric(rhs) {
		return token.Float
	}
	p.reportSemantic(diag.WrongOperator, pos, "operator %s not valid between %s and %s", op, lhs, rhs)
	return lhs
}

// bitwiseOrBoolResult implements the '&' '|' row: both INTEGER ->
// INTEGER (bitwise); else -> BOOL. STRING operands are rejected outright
// since neither bitwise nor boolean combination is meaningful for them.
func (p *Parser) bitwiseOrBoolResult(op token.Kind, lhs, rhs token.DataType, pos token.Position) token.DataType {
	if lhs == token.String || rhs == token.String {
		p.reportSemantic(diag.WrongOperator, pos, "operator %s not valid on STRING operands", op)
		return token.Bool
	}
	if lhs == token.Integer && rhs == token.Integer {
		return token.Integer
	}
	return token.Bool
}

// relationalResult implements the comparison row: any compatible pair ->
// BOOL. Incompatible pairs still resolve to BOOL (debug-mode best effort)
// but raise WrongOperator.
func (p *Parser) relationalResult(op token.Kind, lhs, rhs token.DataType, pos token.Position) token.DataType {
	if !compatible(lhs, rhs) {
		p.reportSemantic(diag.WrongOperator, pos, "operator %s not valid between %s and %s", op, lhs, rhs)
	}
	return token.Bool
}

// applyNot implements unary NOT: INTEGER -> INTEGER, BOOL -> BOOL; any
// other operand type is a WrongOperator mismatch.
func (p *Parser) applyNot(dt token.DataType, pos token.Position) token.DataType {
	if dt == token.Integer || dt == token.Bool {
		return dt
	}
	p.reportSemantic(diag.WrongOperator, pos, "NOT not valid for %s", dt)
	return dt
}

// applyNegation implements unary '-': valid only for INTEGER or FLOAT.
func (p *Parser) applyNegation(dt token.DataType, pos token.Position) token.DataType {
	if dt == token.Integer || dt == token.Float {
		return dt
	}
	p.reportSemantic(diag.WrongOperator, pos, "unary '-' not valid for %s", dt)
	return dt
}

// factor ::= '(' expression ')' | '-'? (name | numLiteral) | procCall | stringLit | 'TRUE' | 'FALSE'
func (p *Parser) parseFactor() *tree.Node {
	p.trace("factor")
	switch {
	case p.match(token.LPAREN):
		lp := p.advance()
		inner := p.parseExpression()
		rp, _ := p.follow(")")
		node := tree.New(tree.Factor, tree.NewLeaf(lp), inner, tree.NewLeaf(rp))
		node.SetDataType(inner.DataType())
		return node

	case p.match(token.STRINGLIT):
		w := p.advance()
		node := tree.New(tree.Factor, tree.NewLeaf(w))
		node.SetDataType(token.String)
		return node

	case p.match(token.TRUE), p.match(token.FALSE):
		w := p.advance()
		node := tree.New(tree.Factor, tree.NewLeaf(w))
		node.SetDataType(token.Bool)
		return node

	case p.match(token.MINUS):
		minus := p.advance()
		inner := p.parseFactorOperand()
		if inner.IsLeaf() {
			inner.Leaf.Negated = true
		} else {
			inner.Synth.Negated = true
		}
		node := tree.New(tree.Factor, tree.NewLeaf(minus), inner)
		node.SetDataType(p.applyNegation(inner.DataType(), minus.Pos))
		return node

	case p.match(token.INTLIT), p.match(token.FLOATLIT):
		inner := p.parseNumLiteral()
		node := tree.New(tree.Factor, inner)
		node.SetDataType(inner.DataType())
		return node

	case p.match(token.IDENT):
		inner := p.parseFactorOperand()
		node := tree.New(tree.Factor, inner)
		node.SetDataType(inner.DataType())
		return node

	default:
		p.syntaxError("unexpected token %q in expression", p.peek().String)
		return tree.New(tree.Factor, tree.NewLeaf(p.advance()))
	}
}

// parseFactorOperand handles the (name | numLiteral | procCall) choice
// shared by the '-'-prefixed and bare-identifier/literal branches of
// factor. A leading identifier routes to procCall when the scanner
// already classified it as a procedure name at scan time; otherwise
// it's a name.
func (p *Parser) parseFactorOperand() *tree.Node {
	if p.match(token.IDENT) {
		if p.peek().IsProcedure {
			return p.parseProcCall()
		}
		return p.parseName()
	}
	return p.parseNumLiteral()
}

func (p *Parser) parseNumLiteral() *tree.Node {
	if p.match(token.FLOATLIT) {
		w, _ := p.followLiteral(token.FLOATLIT)
		return tree.NewLeaf(w)
	}
	w, _ := p.followLiteral(token.INTLIT)
	return tree.NewLeaf(w)
}

// name ::= id ('[' expression ']')?
func (p *Parser) parseName() *tree.Node {
	p.trace("name")
	w, declared := p.followDeclared()
	node := tree.New(tree.Name, tree.NewLeaf(w))
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

// procCall ::= id '(' argList ')'
func (p *Parser) parseProcCall() *tree.Node {
	p.trace("procCall")
	w, declared := p.followDeclared()
	lp, _ := p.follow("(")
	args := p.parseArgList()
	rp, _ := p.follow(")")

	node := tree.New(tree.ProcCall, tree.NewLeaf(w), tree.NewLeaf(lp), args, tree.NewLeaf(rp))
	node.SetDataType(w.DataType)
	if declared {
		p.checkArgList(w, args)
	}
	return node
}

// argList ::= ε | expression (',' expression)*
func (p *Parser) parseArgList() *tree.Node {
	p.trace("argList")
	node := tree.New(tree.ArgList)
	if p.match(token.RPAREN) {
		return node
	}
	node.Append(p.parseExpression())
	for p.match(token.COMMA) {
		node.Append(tree.NewLeaf(p.advance()))
		node.Append(p.parseExpression())
	}
	return node
}

// checkArgList validates argument types against proc's declared
// parameter list by strict elementwise equality; assignment-compatible
// but distinct types (e.g. INTEGER where FLOAT is declared) still mismatch.
func (p *Parser) checkArgList(proc token.Word, args *tree.Node) {
	var argTypes []token.DataType
	for _, c := range args.Children {
		if c.IsLeaf() { // ',' separator
			continue
		}
		argTypes = append(argTypes, c.DataType())
	}
	want := proc.ParamTypes
	if len(argTypes) != len(want) {
		p.reportSemantic(diag.ArgListMismatch, proc.Pos,
			"%s expects %d argument(s), got %d", proc.String, len(want), len(argTypes))
		return
	}
	for i := range want {
		if argTypes[i] != want[i] {
			p.reportSemantic(diag.ArgListMismatch, proc.Pos,
				"%s argument %d: expected %s, got %s", proc.String, i+1, want[i], argTypes[i])
		}
	}
}
