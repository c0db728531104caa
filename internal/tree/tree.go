// Package tree implements the parse tree and its depth-first serializer: a
// rooted ordered tree whose internal nodes carry a grammar-production tag
// plus a synthesized Word, and whose leaves each carry exactly one scanned
// Token.
//
// The Tag enum follows the iota-plus-array-indexed-String() idiom used
// throughout this module, and Serialize writes a depth-first, tab-indented
// dump with one node per line rather than pulling in a generic AST-printer
// dependency; no such library owns this narrow a format.
package tree

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/kjordahl/pascompile/internal/token"
)

// Tag identifies the grammar production a parse tree's internal node was
// built from.
type Tag int

const (
	Program Tag = iota
	ProgHead
	ProgBody
	Decl
	ProcDecl
	ProcHead
	ProcBody
	ParamList
	Param
	VarDecl
	TypeMark
	Stmt
	AssignStmt
	Destination
	IfStmt
	LoopStmt
	ReturnStmt
	Expression
	ExpressionPrime
	MathOp
	MathOpPrime
	Relation
	RelationPrime
	Term
	TermPrime
	Factor
	ProcCall
	Name
	ArgList
)

var tagStrings = [...]string{
	Program:         "PROGRAM",
	ProgHead:        "PROG_HEAD",
	ProgBody:        "PROG_BODY",
	Decl:            "DECL",
	ProcDecl:        "PROC_DECL",
	ProcHead:        "PROC_HEAD",
	ProcBody:        "PROC_BODY",
	ParamList:       "PARAM_LIST",
	Param:           "PARAM",
	VarDecl:         "VAR_DEC",
	TypeMark:        "TYPE_MARK",
	Stmt:            "STMT",
	AssignStmt:      "ASSIGN_STMT",
	Destination:     "DESTINATION",
	IfStmt:          "IF_STMT",
	LoopStmt:        "LOOP_STMT",
	ReturnStmt:      "RETURN_STMT",
	Expression:      "EXPR",
	ExpressionPrime: "EXPR_PRIME",
	MathOp:          "MATH_OP",
	MathOpPrime:     "MATH_OP_PRIME",
	Relation:        "RELATION",
	RelationPrime:   "RELATION_PRIME",
	Term:            "TERM",
	TermPrime:       "TERM_PRIME",
	Factor:          "FACTOR",
	ProcCall:        "PROC_CALL",
	Name:            "NAME",
	ArgList:         "ARG_LIST",
}

func (t Tag) String() string {
	if int(t) >= 0 && int(t) < len(tagStrings) {
		return tagStrings[t]
	}
	return "UNKNOWN"
}

// Node is either a leaf, wrapping exactly one Token, or an internal node
// carrying a Tag, a synthesized Word (used to propagate dataType upward
// through the tree), and ordered children. Each node exclusively owns its
// Children: there is no node with more than one parent.
type Node struct {
	Leaf     *token.Word
	Tag      Tag
	Synth    token.Word
	Children []*Node
}

// NewLeaf wraps a single scanned Token as a leaf node.
func NewLeaf(w token.Word) *Node {
	return &Node{Leaf: &w}
}

// New builds an internal node for the given production, with children in
// left-to-right grammar order.
func New(tag Tag, children ...*Node) *Node {
	return &Node{Tag: tag, Children: children}
}

// IsLeaf reports whether n wraps a Token rather than a production.
func (n *Node) IsLeaf() bool { return n.Leaf != nil }

// DataType returns the node's resolved semantic type: the leaf Token's
// dataType, or the internal node's synthesized dataType.
func (n *Node) DataType() token.DataType {
	if n.IsLeaf() {
		return n.Leaf.DataType
	}
	return n.Synth.DataType
}

// SetDataType records the dataType computed for an internal node by the
// parser's operator-typing rules.
func (n *Node) SetDataType(dt token.DataType) {
	n.Synth.DataType = dt
}

// Append adds a child in left-to-right order.
func (n *Node) Append(child *Node) {
	n.Children = append(n.Children, child)
}

// Leaves returns every leaf Token under n, in left-to-right order. Used by
// tests to check leaf order.
func Leaves(n *Node) []token.Word {
	if n.IsLeaf() {
		return []token.Word{*n.Leaf}
	}
	var out []token.Word
	for _, c := range n.Children {
		out = append(out, Leaves(c)...)
	}
	return out
}

// Serialize writes a depth-first dump: one node per line, indented by tabs
// equal to its depth. Leaves print as
// "<tokenString>(<line>,<col>)"; internal nodes print as
// "<productionTag> {'dataType' = <dataType>}", where <dataType> is the
// type's name (INTEGER, FLOAT, STRING, BOOL, or UNSET).
func Serialize(root *Node, w io.Writer) error {
	bw := bufio.NewWriter(w)
	writeNode(bw, root, 0)
	return bw.Flush()
}

func writeNode(w *bufio.Writer, n *Node, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteByte('\t')
	}
	if n.IsLeaf() {
		fmt.Fprintf(w, "%s(%d,%d)\n", n.Leaf.String, n.Leaf.Pos.Line, n.Leaf.Pos.Column)
		return
	}
	fmt.Fprintf(w, "%s {'dataType' = %s}\n", n.Tag, n.DataType())
	for _, c := range n.Children {
		writeNode(w, c, depth+1)
	}
}

// WriteFile serializes root to path, truncating any existing content.
func WriteFile(path string, root *Node) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Serialize(root, f)
}
