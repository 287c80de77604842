// Package parse converts a template into its in-memory representation (AST).
//
// Parsing happens in two layers.  Tokenize splits the template into text,
// tag keywords, delimiters and raw expression text.  The parser then builds
// the statement tree from those tokens, parsing each expression into its own
// sub-tree as it goes, so that every syntax error is reported at compile time
// with an offset into the template.
package parse

import (
	"fmt"
	"unicode"

	"github.com/glzr-io/zebar-sub000/ast"
	"github.com/glzr-io/zebar-sub000/errortypes"
)

// tree is the parsed representation of a single template.
type tree struct {
	name   string  // name provided for the input
	text   string  // the full input text
	tokens []Token // tokens produced by Tokenize
	pos    int     // index of the next token
}

// Template parses the input into the list of its top-level nodes.
// The name is used only in error messages.
func Template(name, text string) (list *ast.ListNode, err error) {
	tokens, err := Tokenize(name, text)
	if err != nil {
		return nil, err
	}
	var t = &tree{
		name:   name,
		text:   text,
		tokens: tokens,
	}
	defer t.recover(&err)
	list = t.itemList()
	if tok := t.next(); tok.Kind != tokenEOF {
		t.unexpected(tok, "template")
	}
	return list, nil
}

// itemList:
//	textOrTag*
// Terminates at the first token that can not begin a node, which is left
// for the caller.
func (t *tree) itemList() *ast.ListNode {
	var list = &ast.ListNode{Pos: ast.Pos(t.peek().Start)}
	for {
		switch tok := t.peek(); tok.Kind {
		case TokenText, TokenOpenInterpolation, TokenIf, TokenFor, TokenSwitch:
			list.Nodes = append(list.Nodes, t.textOrTag(t.next()))
		case TokenElseIf, TokenElse:
			t.errorf(errortypes.UnexpectedBranchToken, tok.Start, "%v without a preceding @if", tok.Kind)
		case TokenCase, TokenDefault:
			t.errorf(errortypes.UnexpectedBranchToken, tok.Start, "%v outside of @switch", tok.Kind)
		default:
			return list
		}
	}
}

// textOrTag builds the node that begins with the given token.
func (t *tree) textOrTag(token Token) ast.Node {
	switch token.Kind {
	case TokenText:
		return &ast.TextNode{ast.Pos(token.Start), token.Val}
	case TokenOpenInterpolation:
		return t.parseInterpolation(token)
	case TokenIf:
		return t.parseIf(token)
	case TokenFor:
		return t.parseFor(token)
	case TokenSwitch:
		return t.parseSwitch(token)
	}
	panic("unreachable")
}

// "{{" has just been read.
func (t *tree) parseInterpolation(token Token) ast.Node {
	var expr = t.need(TokenExpression, "interpolation")
	var node = &ast.InterpolationNode{ast.Pos(token.Start), expr.Val, t.parseExpression(expr)}
	t.need(TokenCloseInterpolation, "interpolation")
	return node
}

// "@if" has just been read.
func (t *tree) parseIf(token Token) ast.Node {
	var node = &ast.IfNode{Pos: ast.Pos(token.Start)}
	var branch, kind = token, ast.IfBranch
	for {
		var cond ast.Node
		var expression string
		if kind != ast.ElseBranch {
			var expr = t.need(TokenExpression, branch.Kind.String())
			cond, expression = t.parseExpression(expr), expr.Val
		}
		var body = t.parseBlock(branch.Kind.String())
		node.Branches = append(node.Branches,
			&ast.IfBranchNode{ast.Pos(branch.Start), kind, expression, cond, body})
		if kind == ast.ElseBranch {
			return node
		}

		// ignore spaces between the closing brace and an @else.
		if next := t.peekPastSpace().Kind; next == TokenElseIf || next == TokenElse {
			t.skipSpace()
		}
		if tok, ok := t.expect(TokenElseIf); ok {
			branch, kind = tok, ast.ElseIfBranch
		} else if tok, ok := t.expect(TokenElse); ok {
			branch, kind = tok, ast.ElseBranch
		} else {
			return node
		}
	}
}

// "@for" has just been read.
func (t *tree) parseFor(token Token) ast.Node {
	var expr = t.need(TokenExpression, "@for")
	var h, ok = parseForHeader(expr.Val)
	if !ok {
		t.errorf(errortypes.MalformedLoopHeader, expr.Start,
			"invalid @for expression %q, expected \"item of items\" or \"(item, index) of items\"", expr.Val)
	}
	var iterable = t.parseExprText(h.iterable, expr.Start+h.iterableOffset)
	var body = t.parseBlock("@for")
	return &ast.ForNode{ast.Pos(token.Start), expr.Val, h.item, h.index, iterable, body}
}

// "@switch" has just been read.
func (t *tree) parseSwitch(token Token) ast.Node {
	const ctx = "@switch"
	var expr = t.need(TokenExpression, ctx)
	var node = &ast.SwitchNode{ast.Pos(token.Start), expr.Val, t.parseExpression(expr), nil}
	t.need(TokenOpenBlock, ctx)

	var seenDefault = false
	for {
		switch tok := t.next(); tok.Kind {
		case TokenText: // ignore spaces between cases. text is an error though.
			if allSpace(tok.Val) {
				continue
			}
			t.errorf(errortypes.MissingExpectedToken, tok.Start,
				"unexpected text %q between @switch cases", tok.Val)
		case TokenCase, TokenDefault:
			if seenDefault {
				t.errorf(errortypes.UnexpectedBranchToken, tok.Start, "%v after @default", tok.Kind)
			}
			node.Branches = append(node.Branches, t.parseCase(tok))
			seenDefault = tok.Kind == TokenDefault
		case TokenCloseBlock:
			return node
		default:
			t.unexpected(tok, ctx+" (expected @case, @default or })")
		}
	}
}

// "@case" or "@default" has just been read.
func (t *tree) parseCase(token Token) *ast.SwitchBranchNode {
	var branch = &ast.SwitchBranchNode{Pos: ast.Pos(token.Start), Kind: ast.DefaultBranch}
	if token.Kind == TokenCase {
		var expr = t.need(TokenExpression, "@case")
		branch.Kind, branch.Expression, branch.Value = ast.CaseBranch, expr.Val, t.parseExpression(expr)
	}
	branch.Body = t.parseBlock(token.Kind.String())
	return branch
}

// parseBlock parses a brace-delimited statement body.
func (t *tree) parseBlock(context string) *ast.ListNode {
	t.need(TokenOpenBlock, context)
	var body = t.itemList()
	t.need(TokenCloseBlock, context)
	return body
}

// parseExpression parses the text of an expression token.
func (t *tree) parseExpression(tok Token) ast.Node {
	return t.parseExprText(tok.Val, tok.Start)
}

// Helpers ----------

// next returns the next token, or an EOF token past the end.
func (t *tree) next() Token {
	var tok = t.peek()
	if t.pos < len(t.tokens) {
		t.pos++
	}
	return tok
}

// peek returns but does not consume the next token.
func (t *tree) peek() Token {
	if t.pos < len(t.tokens) {
		return t.tokens[t.pos]
	}
	return Token{Kind: tokenEOF, Start: len(t.text), End: len(t.text)}
}

// peekPastSpace returns the next token that is not whitespace-only text.
func (t *tree) peekPastSpace() Token {
	var pos = t.pos
	for pos < len(t.tokens) && t.tokens[pos].Kind == TokenText && allSpace(t.tokens[pos].Val) {
		pos++
	}
	if pos < len(t.tokens) {
		return t.tokens[pos]
	}
	return Token{Kind: tokenEOF, Start: len(t.text), End: len(t.text)}
}

// skipSpace consumes any whitespace-only text tokens.
func (t *tree) skipSpace() {
	for tok := t.peek(); tok.Kind == TokenText && allSpace(tok.Val); tok = t.peek() {
		t.pos++
	}
}

// recover is the handler that turns panics into returns from the top level of Parse.
func (t *tree) recover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if err, ok := e.(*errortypes.SyntaxError); ok {
		*errp = err
		return
	}
	panic(e)
}

// expect consumes the next token if it has the given kind.
func (t *tree) expect(kind TokenKind) (Token, bool) {
	if tok := t.peek(); tok.Kind == kind {
		t.pos++
		return tok, true
	}
	return Token{}, false
}

// need consumes the next token and guarantees it has the required kind.
func (t *tree) need(expected TokenKind, context string) Token {
	token := t.next()
	if token.Kind != expected {
		t.unexpected(token, fmt.Sprintf("%s (expected %v)", context, expected))
	}
	return token
}

// unexpected complains about the token and terminates processing.
func (t *tree) unexpected(token Token, context string) {
	t.errorf(errortypes.MissingExpectedToken, token.Start, "unexpected %v in %s", token, context)
}

// errorf formats the error and terminates processing.
func (t *tree) errorf(kind errortypes.Kind, offset int, format string, args ...interface{}) {
	panic(errortypes.NewSyntaxError(kind, t.name, t.text, offset, format, args...))
}

func allSpace(str string) bool {
	for _, ch := range str {
		if !unicode.IsSpace(ch) {
			return false
		}
	}
	return true
}
