package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glzr-io/zebar-sub000/ast"
	"github.com/glzr-io/zebar-sub000/errortypes"
)

// exprTree parses the items of a single expression.
type exprTree struct {
	name  string // name of the template, for errors
	text  string // the full template source, for errors
	items []item
	pos   int
}

// Expr parses a standalone expression, such as the right hand side of a
// globals file entry.
func Expr(str string) (node ast.Node, err error) {
	var t = &tree{text: str}
	defer t.recover(&err)
	return t.parseExprText(str, 0), nil
}

// parseExprText parses expression source that begins at offset in the
// template.  The whole text must be consumed.
func (t *tree) parseExprText(expr string, offset int) ast.Node {
	var p = &exprTree{
		name:  t.name,
		text:  t.text,
		items: lexExpr(expr, ast.Pos(offset)),
	}
	var n = p.parseExpr(0)
	if tok := p.next(); tok.typ != itemEOF {
		p.unexpected(tok, "expression")
	}
	return n
}

var precedence = map[itemType]int{
	itemNot:         8,
	itemSub:         8, // as a unary operator
	itemAdd:         8, // as a unary operator
	itemMul:         7,
	itemDiv:         7,
	itemMod:         7,
	itemEq:          4,
	itemNotEq:       4,
	itemStrictEq:    4,
	itemStrictNotEq: 4,
	itemGt:          5,
	itemGte:         5,
	itemLt:          5,
	itemLte:         5,
	itemAnd:         3,
	itemOr:          2,
	itemNullish:     1,
}

// binaryPrecedence returns the precedence of a binary operator.  Additive
// operators bind tighter than relational ones but looser than multiplicative.
func binaryPrecedence(typ itemType) int {
	if typ == itemAdd || typ == itemSub {
		return 6
	}
	return precedence[typ]
}

// parseExpr parses an arbitrary expression involving operators, member
// access and calls.
//
// For handling binary operators, we use the Precedence Climbing algorithm described in:
//   http://www.engr.mun.ca/~theo/Misc/exp_parsing.htm
func (t *exprTree) parseExpr(prec int) ast.Node {
	n := t.parseExprFirstTerm()
	var tok item
	for {
		tok = t.next()
		q := binaryPrecedence(tok.typ)
		if !isBinaryOp(tok.typ) || q < prec {
			break
		}
		q++
		n = newBinaryOpNode(tok, n, t.parseExpr(q))
	}
	if prec == 0 && tok.typ == itemTernIf {
		return t.parseTernary(n)
	}
	t.backup()
	return n
}

// Primary ->   u=UnaryOp PrecExpr(prec(u))
//            | ( "(" Expr ")" | ListLiteral | MapLiteral | Ident | Primitive ) Access*
func (t *exprTree) parseExprFirstTerm() ast.Node {
	switch tok := t.next(); {
	case isUnaryOp(tok):
		return newUnaryOpNode(tok, t.parseExpr(precedence[tok.typ]))
	case tok.typ == itemLeftParen:
		n := t.parseExpr(0)
		t.expect(itemRightParen, "parenthesized expression")
		return t.parseAccess(n)
	case isValue(tok):
		return t.parseAccess(t.newValueNode(tok))
	default:
		t.unexpected(tok, "expression")
	}
	return nil
}

// parseAccess parses any member accesses, index expressions and calls that
// follow a primary expression.
//
// Access ->  ( DotIdent | QuestionDotIdent
//            | "[" Expr "]" | "?.[" Expr "]"
//            | "(" Args ")" | "?.(" Args ")" )*
func (t *exprTree) parseAccess(n ast.Node) ast.Node {
	for {
		switch tok := t.next(); tok.typ {
		case itemDotIdent:
			n = &ast.MemberNode{tok.pos, n, tok.val[1:], false}
		case itemQuestionDotIdent:
			n = &ast.MemberNode{tok.pos, n, tok.val[2:], true}
		case itemLeftBracket, itemQuestionBracket:
			var index = t.parseExpr(0)
			t.expect(itemRightBracket, "index expression")
			n = &ast.IndexNode{tok.pos, n, index, tok.typ == itemQuestionBracket}
		case itemLeftParen, itemQuestionParen:
			var args = t.parseSequence(itemRightParen, "function arguments")
			n = &ast.CallNode{tok.pos, n, args, tok.typ == itemQuestionParen}
		default:
			t.backup()
			return n
		}
	}
}

// parseSequence parses comma separated expressions up to the given closing
// item, allowing a trailing comma.  The opening item has just been read.
func (t *exprTree) parseSequence(end itemType, context string) []ast.Node {
	var nodes []ast.Node
	for {
		if t.peek().typ == end {
			t.next()
			return nodes
		}
		nodes = append(nodes, t.parseExpr(0))
		switch tok := t.next(); tok.typ {
		case itemComma:
			// continue to get the next item
		case end:
			return nodes
		default:
			t.unexpected(tok, context)
		}
	}
}

// "{" has just been read
// MapLiteral -> "{" [ Key ( ":" Expr )? ( "," Key ( ":" Expr )? )* [ "," ] ] "}"
func (t *exprTree) parseMapLiteral(first item) ast.Node {
	var node = &ast.MapLiteralNode{Pos: first.pos}
	for {
		var tok = t.next()
		if tok.typ == itemRightBrace {
			return node
		}

		var key string
		switch tok.typ {
		case itemIdent, itemBool, itemNull, itemUndefined, itemInteger, itemFloat:
			key = tok.val
		case itemString:
			key = t.unquote(tok)
		default:
			t.unexpected(tok, "object literal key")
		}

		var value ast.Node
		switch next := t.next(); {
		case next.typ == itemColon:
			value = t.parseExpr(0)
		case tok.typ == itemIdent && (next.typ == itemComma || next.typ == itemRightBrace):
			// shorthand {cpu} for {cpu: cpu}
			t.backup()
			value = &ast.IdentNode{tok.pos, tok.val}
		default:
			t.unexpected(next, "object literal (expected :)")
		}
		node.Keys = append(node.Keys, key)
		node.Values = append(node.Values, value)

		switch next := t.next(); next.typ {
		case itemComma:
			// continue to get the next entry
		case itemRightBrace:
			return node
		default:
			t.unexpected(next, "object literal")
		}
	}
}

// parseTernary parses the ternary operator within an expression.
// itemTernIf has already been read, and the condition is provided.
func (t *exprTree) parseTernary(cond ast.Node) ast.Node {
	n1 := t.parseExpr(0)
	t.expect(itemColon, "ternary")
	n2 := t.parseExpr(0)
	return &ast.TernNode{cond.Position(), cond, n1, n2}
}

func isBinaryOp(typ itemType) bool {
	switch typ {
	case itemMul, itemDiv, itemMod,
		itemAdd, itemSub,
		itemEq, itemNotEq, itemStrictEq, itemStrictNotEq,
		itemGt, itemGte, itemLt, itemLte,
		itemOr, itemAnd, itemNullish:
		return true
	}
	return false
}

func isUnaryOp(t item) bool {
	switch t.typ {
	case itemNot, itemSub, itemAdd:
		return true
	}
	return false
}

func isValue(t item) bool {
	switch t.typ {
	case itemNull, itemUndefined, itemBool, itemInteger, itemFloat, itemString, itemIdent:
		return true
	case itemLeftBracket, itemLeftBrace:
		return true // list or map literal
	}
	return false
}

func op(n ast.BinaryOpNode, name string) ast.BinaryOpNode {
	n.Name = name
	return n
}

func newBinaryOpNode(t item, n1, n2 ast.Node) ast.Node {
	var bin = ast.BinaryOpNode{"", t.pos, n1, n2}
	switch t.typ {
	case itemMul:
		return &ast.MulNode{op(bin, "*")}
	case itemDiv:
		return &ast.DivNode{op(bin, "/")}
	case itemMod:
		return &ast.ModNode{op(bin, "%")}
	case itemAdd:
		return &ast.AddNode{op(bin, "+")}
	case itemSub:
		return &ast.SubNode{op(bin, "-")}
	case itemEq:
		return &ast.EqNode{op(bin, "==")}
	case itemNotEq:
		return &ast.NotEqNode{op(bin, "!=")}
	case itemStrictEq:
		return &ast.StrictEqNode{op(bin, "===")}
	case itemStrictNotEq:
		return &ast.StrictNotEqNode{op(bin, "!==")}
	case itemGt:
		return &ast.GtNode{op(bin, ">")}
	case itemGte:
		return &ast.GteNode{op(bin, ">=")}
	case itemLt:
		return &ast.LtNode{op(bin, "<")}
	case itemLte:
		return &ast.LteNode{op(bin, "<=")}
	case itemOr:
		return &ast.OrNode{op(bin, "||")}
	case itemAnd:
		return &ast.AndNode{op(bin, "&&")}
	case itemNullish:
		return &ast.NullishNode{op(bin, "??")}
	}
	panic("unimplemented")
}

func newUnaryOpNode(t item, n1 ast.Node) ast.Node {
	switch t.typ {
	case itemNot:
		return &ast.NotNode{t.pos, n1}
	case itemSub:
		return &ast.NegateNode{t.pos, n1}
	case itemAdd:
		return &ast.PlusNode{t.pos, n1}
	}
	panic("unreachable")
}

func (t *exprTree) newValueNode(tok item) ast.Node {
	switch tok.typ {
	case itemNull:
		return &ast.NullNode{tok.pos}
	case itemUndefined:
		return &ast.UndefinedNode{tok.pos}
	case itemBool:
		return &ast.BoolNode{tok.pos, tok.val == "true"}
	case itemInteger:
		var digits, base = tok.val, 10
		if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
			digits, base = digits[2:], 16
		}
		value, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			// too large for an int; numbers are doubles anyway
			f, ferr := strconv.ParseUint(digits, base, 64)
			if ferr != nil {
				return t.newFloatNode(tok)
			}
			return &ast.FloatNode{tok.pos, float64(f)}
		}
		return &ast.IntNode{tok.pos, value}
	case itemFloat:
		return t.newFloatNode(tok)
	case itemString:
		return &ast.StringNode{tok.pos, tok.val, t.unquote(tok)}
	case itemLeftBracket:
		return &ast.ListLiteralNode{tok.pos, t.parseSequence(itemRightBracket, "list literal")}
	case itemLeftBrace:
		return t.parseMapLiteral(tok)
	case itemIdent:
		return &ast.IdentNode{tok.pos, tok.val}
	}
	panic("unreachable")
}

func (t *exprTree) newFloatNode(tok item) ast.Node {
	value, err := strconv.ParseFloat(tok.val, 64)
	if err != nil {
		t.errorf(errortypes.ScanFailure, tok.pos, "bad number syntax: %q", tok.val)
	}
	return &ast.FloatNode{tok.pos, value}
}

func (t *exprTree) unquote(tok item) string {
	s, err := unquoteString(tok.val)
	if err != nil {
		t.errorf(errortypes.ScanFailure, tok.pos, "error unquoting %s: %s", tok.val, err)
	}
	return s
}

// Helpers ----------

// next returns the next item.  Lexical errors terminate parsing.
func (t *exprTree) next() item {
	var tok = t.items[len(t.items)-1]
	if t.pos < len(t.items) {
		tok = t.items[t.pos]
	}
	t.pos++
	if tok.typ == itemError {
		t.errorf(errortypes.ScanFailure, tok.pos, "%s", tok.val)
	}
	return tok
}

// backup backs the input stream up one item.
func (t *exprTree) backup() {
	t.pos--
}

// peek returns but does not consume the next item.
func (t *exprTree) peek() item {
	var tok = t.next()
	t.backup()
	return tok
}

// expect consumes the next item and guarantees it has the required type.
func (t *exprTree) expect(expected itemType, context string) item {
	token := t.next()
	if token.typ != expected {
		t.unexpected(token, fmt.Sprintf("%v (expected %v)", context, expected.String()))
	}
	return token
}

// unexpected complains about the item and terminates processing.
func (t *exprTree) unexpected(token item, context string) {
	t.errorf(errortypes.MissingExpectedToken, token.pos, "unexpected %v in %s", token, context)
}

// errorf formats the error and terminates processing.
func (t *exprTree) errorf(kind errortypes.Kind, pos ast.Pos, format string, args ...interface{}) {
	panic(errortypes.NewSyntaxError(kind, t.name, t.text, int(pos), format, args...))
}
