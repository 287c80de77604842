package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/glzr-io/zebar-sub000/errortypes"
	"github.com/glzr-io/zebar-sub000/scan"
)

// Tokens ---------------------------------------------------------------------

// Token is a lexical unit of a template.  Start and End are byte offsets into
// the template source; Val is never empty.
type Token struct {
	Kind  TokenKind
	Val   string
	Start int
	End   int
}

func (t Token) String() string {
	switch {
	case t.Kind == tokenEOF:
		return "EOF"
	case len(t.Val) > 10:
		return fmt.Sprintf("%v %.10q...", t.Kind, t.Val)
	}
	return fmt.Sprintf("%v %q", t.Kind, t.Val)
}

// TokenKind identifies the type of a template token.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenIf
	TokenElseIf
	TokenElse
	TokenFor
	TokenSwitch
	TokenCase
	TokenDefault
	TokenOpenBlock
	TokenCloseBlock
	TokenOpenInterpolation
	TokenCloseInterpolation
	TokenExpression

	tokenEOF // returned by the parser when it runs off the end of the tokens
)

var tokenNames = map[TokenKind]string{
	TokenText:               "text",
	TokenIf:                 "@if",
	TokenElseIf:             "@else if",
	TokenElse:               "@else",
	TokenFor:                "@for",
	TokenSwitch:             "@switch",
	TokenCase:               "@case",
	TokenDefault:            "@default",
	TokenOpenBlock:          "{",
	TokenCloseBlock:         "}",
	TokenOpenInterpolation:  "{{",
	TokenCloseInterpolation: "}}",
	TokenExpression:         "expression",
	tokenEOF:                "end of input",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Lexer ----------------------------------------------------------------------

// stateKind identifies what the tokenizer is in the middle of.
type stateKind int

const (
	stateDefault       stateKind = iota // document body
	stateArgs                           // after a tag keyword, before its block
	stateBlock                          // between a statement's { and }
	stateInterpolation                  // between {{ and }}
	stateExpression                     // inside free-form expression text
)

// state is one entry of the tokenizer's state stack.  Expression states carry
// the symbol that ends them, the offset where their text began, and the
// wrapping symbols (quotes and brackets) currently open.
type state struct {
	kind  stateKind
	close *regexp.Regexp
	start int
	wraps []byte
}

var (
	keywordPattern = regexp.MustCompile(`^@(?:else\s+if|if|else|for|switch|case|default)\b`)
	textPattern    = regexp.MustCompile(`\{\{|@|\}`)
	openInterp     = regexp.MustCompile(`^\{\{`)
	closeInterp    = regexp.MustCompile(`^\}\}`)
	openParen      = regexp.MustCompile(`^\(`)
	closeParen     = regexp.MustCompile(`^\)`)
	openBlock      = regexp.MustCompile(`^\{`)
	closeBlock     = regexp.MustCompile(`^\}`)
	argsSpace      = regexp.MustCompile(`^\s*\)?\s*`)
	space          = regexp.MustCompile(`^\s+`)
	wrapChar       = regexp.MustCompile("^['\"`()\\[\\]{}]")
	wrapSearch     = regexp.MustCompile("['\"`()\\[\\]{}]")
	escapeSeq      = regexp.MustCompile(`^(?s)\\.?`)
	anyChar        = regexp.MustCompile(`^(?s).`)

	// quoteEnd finds the next backslash or closing quote, by quote character.
	quoteEnd = map[byte]*regexp.Regexp{
		'\'': regexp.MustCompile(`[\\']`),
		'"':  regexp.MustCompile(`[\\"]`),
		'`':  regexp.MustCompile("[\\\\`]"),
	}

	closers = map[byte]byte{'(': ')', '[': ']', '{': '}'}
)

var keywordTokens = map[string]TokenKind{
	"@if":      TokenIf,
	"@else if": TokenElseIf,
	"@else":    TokenElse,
	"@for":     TokenFor,
	"@switch":  TokenSwitch,
	"@case":    TokenCase,
	"@default": TokenDefault,
}

// lexer holds the state of the tokenization.
type lexer struct {
	name   string
	s      *scan.Scanner
	stack  []*state
	tokens []Token
}

// Tokenize splits a template into tokens.  The name is used only in error
// messages.
func Tokenize(name, input string) (tokens []Token, err error) {
	var l = &lexer{
		name:  name,
		s:     scan.New(input),
		stack: []*state{{kind: stateDefault}},
	}
	defer l.recover(&err)
	l.run()
	return l.tokens, nil
}

// run steps the state machine until the input is consumed.
func (l *lexer) run() {
	for !l.s.EOF() {
		switch top := l.top(); top.kind {
		case stateDefault:
			l.lexDefault()
		case stateArgs:
			l.lexArgs()
		case stateBlock:
			l.lexBlock()
		case stateInterpolation:
			l.lexInterpolation()
		case stateExpression:
			l.lexExpression(top)
		}
	}
	if len(l.stack) == 1 {
		return
	}
	var kind = errortypes.UnterminatedTag
	for _, st := range l.stack {
		if len(st.wraps) > 0 {
			kind = errortypes.UnterminatedExpression
		}
	}
	l.errorf(kind, len(l.s.Input()), "missing close symbol")
}

func (l *lexer) top() *state {
	return l.stack[len(l.stack)-1]
}

func (l *lexer) push(st *state) {
	l.stack = append(l.stack, st)
}

func (l *lexer) pop() {
	l.stack = l.stack[:len(l.stack)-1]
}

// emit records the latest match as a token.  Adjacent text tokens are merged.
func (l *lexer) emit(kind TokenKind) {
	l.emitRange(kind, l.s.Start(), l.s.End())
}

func (l *lexer) emitRange(kind TokenKind, start, end int) {
	if start == end {
		return
	}
	if n := len(l.tokens); kind == TokenText && n > 0 {
		if last := &l.tokens[n-1]; last.Kind == TokenText && last.End == start {
			last.End = end
			last.Val = l.s.Input()[last.Start:end]
			return
		}
	}
	l.tokens = append(l.tokens, Token{kind, l.s.Input()[start:end], start, end})
}

// State functions ------------------------------------------------------------

// lexDefault scans document body: tag keywords, interpolations and text.
func (l *lexer) lexDefault() {
	switch {
	case l.s.Scan(keywordPattern):
		var keyword = strings.Join(strings.Fields(l.s.Matched()), " ")
		l.emit(keywordTokens[keyword])
		l.push(&state{kind: stateArgs})
	case l.s.Scan(openInterp):
		l.emit(TokenOpenInterpolation)
		l.push(&state{kind: stateInterpolation})
	default:
		// An @ that begins no keyword is plain text.
		var skip = 0
		if strings.HasPrefix(l.s.Rest(), "@") {
			skip = 1
		}
		if !l.s.ScanUntilFrom(textPattern, skip) {
			l.errorf(errortypes.ScanFailure, l.s.Pos(), "no valid tokens found at %q", l.s.Rest()[:1])
		}
		l.emit(TokenText)
	}
}

// lexArgs scans the part of a statement between its keyword and its block.
func (l *lexer) lexArgs() {
	l.s.Scan(argsSpace)
	switch {
	case l.s.EOF():
	case l.s.Scan(openParen):
		l.push(&state{kind: stateExpression, close: closeParen, start: l.s.Pos()})
	case l.s.Scan(openBlock):
		l.emit(TokenOpenBlock)
		l.top().kind = stateBlock
	default:
		l.errorf(errortypes.UnterminatedTag, l.s.Pos(), "missing closing {")
	}
}

// lexBlock scans a statement body until its closing brace.
func (l *lexer) lexBlock() {
	if l.s.Scan(closeBlock) {
		l.emit(TokenCloseBlock)
		l.pop()
		return
	}
	l.lexDefault()
}

// lexInterpolation scans the inside of {{ }}.
func (l *lexer) lexInterpolation() {
	l.s.Scan(space)
	switch {
	case l.s.EOF():
	case l.s.Scan(closeInterp):
		l.emit(TokenCloseInterpolation)
		l.pop()
	default:
		l.push(&state{kind: stateExpression, close: closeInterp, start: l.s.Pos()})
	}
}

// lexExpression advances through expression text until the state's close
// symbol appears outside of any string literal or bracket pair.  The close
// symbol itself is left for the parent state.
func (l *lexer) lexExpression(st *state) {
	if len(st.wraps) == 0 && l.s.Check(st.close) {
		l.emitExpression(st.start, l.s.Pos())
		l.pop()
		return
	}

	if n := len(st.wraps); n > 0 {
		if end, isQuote := quoteEnd[st.wraps[n-1]]; isQuote {
			l.s.ScanUntil(end)
			switch {
			case l.s.Scan(escapeSeq):
			case l.s.Scan(anyChar):
				st.wraps = st.wraps[:n-1]
			}
			return
		}
	}

	if !l.s.Scan(wrapChar) {
		l.s.ScanUntil(wrapSearch)
		return
	}
	var ch = l.s.Matched()[0]
	switch ch {
	case '\'', '"', '`', '(', '[', '{':
		st.wraps = append(st.wraps, ch)
	default:
		// A closer that matches nothing open is left for the expression parser
		// to report.
		if n := len(st.wraps); n > 0 && closers[st.wraps[n-1]] == ch {
			st.wraps = st.wraps[:n-1]
		}
	}
}

// emitExpression emits the expression text between start and end, with
// surrounding whitespace trimmed.
func (l *lexer) emitExpression(start, end int) {
	var text = l.s.Input()[start:end]
	var trimmed = strings.TrimLeftFunc(text, unicode.IsSpace)
	start += len(text) - len(trimmed)
	end = start + len(strings.TrimRightFunc(trimmed, unicode.IsSpace))
	l.emitRange(TokenExpression, start, end)
}

// Errors ---------------------------------------------------------------------

// errorf terminates tokenization with a syntax error at the given offset.
func (l *lexer) errorf(kind errortypes.Kind, offset int, format string, args ...interface{}) {
	panic(errortypes.NewSyntaxError(kind, l.name, l.s.Input(), offset, format, args...))
}

// recover turns tokenizer panics into errors.  Runtime errors are re-panicked.
func (l *lexer) recover(errp *error) {
	var e = recover()
	if e == nil {
		return
	}
	if err, ok := e.(*errortypes.SyntaxError); ok {
		*errp = err
		return
	}
	panic(e)
}
