// Package ast contains definitions for the in-memory representation of a
// template: the statement nodes that make up the document body, and the
// expression nodes found inside interpolations and statement headers.
package ast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Node represents any singular piece of a template.  For example, a sequence
// of raw text or an interpolation.
type Node interface {
	String() string // String returns the source representation of this node.
	Position() Pos  // byte position of start of node in full original input string
}

// ParentNode is any Node that has descendent nodes.  For example, the Children
// of a AddNode are the two nodes that should be added.
type ParentNode interface {
	Node
	Children() []Node
}

// Pos represents a byte position in the original input text from which this
// template was parsed.  It is useful to construct helpful error messages.
type Pos int

// Position returns this position.  It is implemented as a method so that Nodes
// may embed a Pos and fulfill this part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

// ListNode holds a sequence of nodes.
type ListNode struct {
	Pos
	Nodes []Node // The element nodes in lexical order.
}

func (l *ListNode) String() string {
	b := new(bytes.Buffer)
	for _, n := range l.Nodes {
		fmt.Fprint(b, n)
	}
	return b.String()
}

func (l *ListNode) Children() []Node {
	return l.Nodes
}

// TextNode is a run of literal text, emitted verbatim.
type TextNode struct {
	Pos
	Text string // The text; may span newlines.
}

func (t *TextNode) String() string {
	return t.Text
}

// InterpolationNode prints the value of an expression: {{ expression }}
type InterpolationNode struct {
	Pos
	Expression string // source text of the expression
	Expr       Node
}

func (n *InterpolationNode) String() string {
	return "{{ " + n.Expression + " }}"
}

func (n *InterpolationNode) Children() []Node {
	return []Node{n.Expr}
}

// Control flow ----------

// BranchKind identifies the keyword that introduced an if or switch branch.
type BranchKind int

const (
	IfBranch BranchKind = iota
	ElseIfBranch
	ElseBranch
	CaseBranch
	DefaultBranch
)

var branchKeywords = [...]string{
	IfBranch:      "@if",
	ElseIfBranch:  "@else if",
	ElseBranch:    "@else",
	CaseBranch:    "@case",
	DefaultBranch: "@default",
}

func (k BranchKind) String() string {
	if int(k) < len(branchKeywords) {
		return branchKeywords[k]
	}
	return "BranchKind(" + strconv.Itoa(int(k)) + ")"
}

// IfNode is an @if statement with its @else if and @else branches.  At most
// one ElseBranch is present, and it is last.
type IfNode struct {
	Pos
	Branches []*IfBranchNode
}

func (n *IfNode) String() string {
	var parts = make([]string, len(n.Branches))
	for i, branch := range n.Branches {
		parts[i] = branch.String()
	}
	return strings.Join(parts, " ")
}

func (n *IfNode) Children() []Node {
	var nodes []Node
	for _, child := range n.Branches {
		nodes = append(nodes, child)
	}
	return nodes
}

type IfBranchNode struct {
	Pos
	Kind       BranchKind
	Expression string // empty for else
	Cond       Node   // nil for else
	Body       *ListNode
}

func (n *IfBranchNode) String() string {
	return header(n.Kind, n.Expression, n.Cond != nil) + "{" + n.Body.String() + "}"
}

func (n *IfBranchNode) Children() []Node {
	if n.Cond == nil {
		return []Node{n.Body}
	}
	return []Node{n.Cond, n.Body}
}

// ForNode is an @for statement.  The header "item of items" or
// "(item, index) of items" has been split into its parts.
type ForNode struct {
	Pos
	Expression string // the full loop header
	Item       string
	Index      string // empty if the header names no index variable
	Iterable   Node
	Body       *ListNode
}

func (n *ForNode) String() string {
	return "@for (" + n.Expression + ") {" + n.Body.String() + "}"
}

func (n *ForNode) Children() []Node {
	return []Node{n.Iterable, n.Body}
}

// SwitchNode is an @switch statement.  At most one DefaultBranch is present,
// and it is last.
type SwitchNode struct {
	Pos
	Expression string
	Value      Node
	Branches   []*SwitchBranchNode
}

func (n *SwitchNode) String() string {
	var expr = "@switch (" + n.Expression + ") {"
	for _, branch := range n.Branches {
		expr += " " + branch.String()
	}
	return expr + " }"
}

func (n *SwitchNode) Children() []Node {
	var nodes = []Node{n.Value}
	for _, child := range n.Branches {
		nodes = append(nodes, child)
	}
	return nodes
}

type SwitchBranchNode struct {
	Pos
	Kind       BranchKind
	Expression string // empty for default
	Value      Node   // nil for default
	Body       *ListNode
}

func (n *SwitchBranchNode) String() string {
	return header(n.Kind, n.Expression, n.Value != nil) + "{" + n.Body.String() + "}"
}

func (n *SwitchBranchNode) Children() []Node {
	if n.Value == nil {
		return []Node{n.Body}
	}
	return []Node{n.Value, n.Body}
}

func header(kind BranchKind, expression string, hasExpr bool) string {
	if !hasExpr {
		return kind.String() + " "
	}
	return kind.String() + " (" + expression + ") "
}

// Values ----------

type NullNode struct {
	Pos
}

func (s *NullNode) String() string {
	return "null"
}

type UndefinedNode struct {
	Pos
}

func (s *UndefinedNode) String() string {
	return "undefined"
}

type BoolNode struct {
	Pos
	True bool
}

func (b *BoolNode) String() string {
	if b.True {
		return "true"
	}
	return "false"
}

type IntNode struct {
	Pos
	Value int64
}

func (n *IntNode) String() string {
	return strconv.FormatInt(n.Value, 10)
}

type FloatNode struct {
	Pos
	Value float64
}

func (n *FloatNode) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

type StringNode struct {
	Pos
	Quoted string // e.g. 'hello\tworld'
	Value  string // e.g. hello	world
}

func (s *StringNode) String() string {
	return s.Quoted
}

type ListLiteralNode struct {
	Pos
	Items []Node
}

func (n *ListLiteralNode) String() string {
	var expr = "["
	for i, item := range n.Items {
		if i > 0 {
			expr += ", "
		}
		expr += item.String()
	}
	return expr + "]"
}

func (n *ListLiteralNode) Children() []Node {
	return n.Items
}

// MapLiteralNode is an object literal.  Keys are kept in source order; a
// repeated key overwrites the earlier value when evaluated.
type MapLiteralNode struct {
	Pos
	Keys   []string
	Values []Node
}

func (n *MapLiteralNode) String() string {
	if len(n.Keys) == 0 {
		return "{}"
	}
	var expr = "{ "
	for i, k := range n.Keys {
		if i > 0 {
			expr += ", "
		}
		expr += strconv.Quote(k) + ": " + n.Values[i].String()
	}
	return expr + " }"
}

func (n *MapLiteralNode) Children() []Node {
	return n.Values
}

// References ----------

// IdentNode names a variable: a loop variable, a global, or a built-in.
type IdentNode struct {
	Pos
	Name string
}

func (n *IdentNode) String() string {
	return n.Name
}

// MemberNode is a property access, obj.name or obj?.name.
type MemberNode struct {
	Pos
	Obj      Node
	Name     string
	Optional bool
}

func (n *MemberNode) String() string {
	if n.Optional {
		return n.Obj.String() + "?." + n.Name
	}
	return n.Obj.String() + "." + n.Name
}

func (n *MemberNode) Children() []Node {
	return []Node{n.Obj}
}

// IndexNode is a computed property access, obj[index] or obj?.[index].
type IndexNode struct {
	Pos
	Obj      Node
	Index    Node
	Optional bool
}

func (n *IndexNode) String() string {
	var expr = "["
	if n.Optional {
		expr = "?.["
	}
	return n.Obj.String() + expr + n.Index.String() + "]"
}

func (n *IndexNode) Children() []Node {
	return []Node{n.Obj, n.Index}
}

// CallNode calls a function value, fn(args) or fn?.(args).
type CallNode struct {
	Pos
	Func     Node
	Args     []Node
	Optional bool
}

func (n *CallNode) String() string {
	var expr = n.Func.String() + "("
	if n.Optional {
		expr = n.Func.String() + "?.("
	}
	for i, arg := range n.Args {
		if i > 0 {
			expr += ", "
		}
		expr += arg.String()
	}
	return expr + ")"
}

func (n *CallNode) Children() []Node {
	return append([]Node{n.Func}, n.Args...)
}

// Operators ----------

type NotNode struct {
	Pos
	Arg Node
}

func (n *NotNode) String() string {
	return "!" + n.Arg.String()
}

func (n *NotNode) Children() []Node {
	return []Node{n.Arg}
}

type NegateNode struct {
	Pos
	Arg Node
}

func (n *NegateNode) String() string {
	return "-" + n.Arg.String()
}

func (n *NegateNode) Children() []Node {
	return []Node{n.Arg}
}

// PlusNode is the unary plus, which converts its operand to a number.
type PlusNode struct {
	Pos
	Arg Node
}

func (n *PlusNode) String() string {
	return "+" + n.Arg.String()
}

func (n *PlusNode) Children() []Node {
	return []Node{n.Arg}
}

type BinaryOpNode struct {
	Name string
	Pos
	Arg1, Arg2 Node
}

func (n *BinaryOpNode) String() string {
	return "(" + n.Arg1.String() + " " + n.Name + " " + n.Arg2.String() + ")"
}

func (n *BinaryOpNode) Children() []Node {
	return []Node{n.Arg1, n.Arg2}
}

type (
	MulNode         struct{ BinaryOpNode }
	DivNode         struct{ BinaryOpNode }
	ModNode         struct{ BinaryOpNode }
	AddNode         struct{ BinaryOpNode }
	SubNode         struct{ BinaryOpNode }
	EqNode          struct{ BinaryOpNode }
	NotEqNode       struct{ BinaryOpNode }
	StrictEqNode    struct{ BinaryOpNode }
	StrictNotEqNode struct{ BinaryOpNode }
	GtNode          struct{ BinaryOpNode }
	GteNode         struct{ BinaryOpNode }
	LtNode          struct{ BinaryOpNode }
	LteNode         struct{ BinaryOpNode }
	OrNode          struct{ BinaryOpNode }
	AndNode         struct{ BinaryOpNode }
	NullishNode     struct{ BinaryOpNode }
)

type TernNode struct {
	Pos
	Arg1, Arg2, Arg3 Node
}

func (n *TernNode) String() string {
	return "(" + n.Arg1.String() + " ? " + n.Arg2.String() + " : " + n.Arg3.String() + ")"
}

func (n *TernNode) Children() []Node {
	return []Node{n.Arg1, n.Arg2, n.Arg3}
}
