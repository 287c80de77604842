package parse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/glzr-io/zebar-sub000/ast"
)

// Lexer design from text/template

// Items ----------------------------------------------------------------------

// item represents a token of an expression.
type item struct {
	typ itemType // The type of this item.
	pos ast.Pos  // The starting position, in bytes, of this item in the template.
	val string   // The value of this item.
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "end of expression"
	case i.typ == itemError:
		return i.val
	case len(i.val) > 10:
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

// itemType identifies the type of expression items.
type itemType int

const (
	itemInvalid itemType = iota // not used
	itemEOF                     // EOF
	itemError                   // error occurred; value is text of error

	// Values
	itemNull      // null
	itemUndefined // undefined
	itemBool      // e.g. true
	itemInteger   // e.g. 42
	itemFloat     // e.g. 1.0
	itemString    // e.g. 'hello world'
	itemIdent     // e.g. cpu
	itemComma     // ,
	itemColon     // : (used in object literals and the ternary operator)

	// Access
	itemDotIdent         // .ident
	itemQuestionDotIdent // ?.ident
	itemQuestionBracket  // ?.[
	itemQuestionParen    // ?.(
	itemLeftBracket      // [
	itemRightBracket     // ]
	itemLeftBrace        // {
	itemRightBrace       // }
	itemLeftParen        // (
	itemRightParen       // )

	// Operators
	itemNot         // !
	itemMul         // *
	itemDiv         // /
	itemMod         // %
	itemAdd         // +
	itemSub         // -
	itemEq          // ==
	itemNotEq       // !=
	itemStrictEq    // ===
	itemStrictNotEq // !==
	itemGt          // >
	itemGte         // >=
	itemLt          // <
	itemLte         // <=
	itemOr          // ||
	itemAnd         // &&
	itemNullish     // ??
	itemTernIf      // ?
)

var keywords = map[string]itemType{
	"true":      itemBool,
	"false":     itemBool,
	"null":      itemNull,
	"undefined": itemUndefined,
}

var symbols = map[string]itemType{
	",":   itemComma,
	":":   itemColon,
	"[":   itemLeftBracket,
	"]":   itemRightBracket,
	"{":   itemLeftBrace,
	"}":   itemRightBrace,
	"(":   itemLeftParen,
	")":   itemRightParen,
	"!":   itemNot,
	"*":   itemMul,
	"/":   itemDiv,
	"%":   itemMod,
	"+":   itemAdd,
	"-":   itemSub,
	"==":  itemEq,
	"!=":  itemNotEq,
	"===": itemStrictEq,
	"!==": itemStrictNotEq,
	">":   itemGt,
	">=":  itemGte,
	"<":   itemLt,
	"<=":  itemLte,
	"||":  itemOr,
	"&&":  itemAnd,
	"??":  itemNullish,
	"?":   itemTernIf,
}

// String converts the itemType into its source string.
// It is only used for error messages.
func (t itemType) String() string {
	for k, v := range symbols {
		if v == t {
			return k
		}
	}
	var r, ok = map[itemType]string{
		itemEOF:              "<eof>",
		itemError:            "<error>",
		itemNull:             "null",
		itemUndefined:        "undefined",
		itemBool:             "<bool>",
		itemInteger:          "<int>",
		itemFloat:            "<float>",
		itemString:           "<string>",
		itemIdent:            "<ident>",
		itemDotIdent:         "<.ident>",
		itemQuestionDotIdent: "<?.ident>",
		itemQuestionBracket:  "?.[",
		itemQuestionParen:    "?.(",
	}[t]
	if ok {
		return r
	}
	return fmt.Sprintf("item(%d)", t)
}

// Lexer ----------------------------------------------------------------------

const (
	eof       = -1
	decDigits = "0123456789"
	hexDigits = "0123456789abcdefABCDEF"
)

// stateFn represents the state of the lexer as a function that returns the
// next state.
type stateFn func(*exprLexer) stateFn

// exprLexer holds the state of the lexical scanning of one expression.
//
// Based on the lexer from the "text/template" package, but collecting the
// items into a slice rather than handing them over a channel.
type exprLexer struct {
	input  string  // the expression being scanned.
	offset ast.Pos // position of the expression within the template.
	pos    ast.Pos // current position in the input.
	start  ast.Pos // start position of this item.
	width  int     // width of last rune read from input.
	items  []item  // scanned items.
}

// lexExpr scans the given expression, which begins at offset in the template.
// The result always ends with an itemEOF or an itemError.
func lexExpr(input string, offset ast.Pos) []item {
	var l = &exprLexer{input: input, offset: offset}
	for fn := lexInsideExpr; fn != nil; {
		fn = fn(l)
	}
	return l.items
}

// next returns the next rune in the input.
func (l *exprLexer) next() (r rune) {
	if l.pos >= ast.Pos(len(l.input)) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += ast.Pos(l.width)
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *exprLexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune. Can only be called once per call of next.
func (l *exprLexer) backup() {
	l.pos -= ast.Pos(l.width)
}

// emit records an item.
func (l *exprLexer) emit(t itemType) {
	l.items = append(l.items, item{t, l.offset + l.start, l.input[l.start:l.pos]})
	l.start = l.pos
}

// ignore skips over the pending input before this point.
func (l *exprLexer) ignore() {
	l.start = l.pos
}

// accept consumes the next rune if it's from the valid set.
func (l *exprLexer) accept(valid string) bool {
	if strings.IndexRune(valid, l.next()) >= 0 {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the valid set.
func (l *exprLexer) acceptRun(valid string) bool {
	pos := l.pos
	for strings.IndexRune(valid, l.next()) >= 0 {
	}
	l.backup()
	return l.pos > pos
}

// errorf records an error item and terminates the scan.
func (l *exprLexer) errorf(format string, args ...interface{}) stateFn {
	l.items = append(l.items, item{itemError, l.offset + l.start, fmt.Sprintf(format, args...)})
	return nil
}

// State functions ------------------------------------------------------------

// lexInsideExpr is called repeatedly to scan the elements of an expression.
func lexInsideExpr(l *exprLexer) stateFn {
	switch r := l.next(); {
	case r == eof:
		l.emit(itemEOF)
		return nil
	case unicode.IsSpace(r):
		l.ignore()
	case r == '.':
		switch p := l.peek(); {
		case isDigit(p):
			l.pos--
			return lexNumber
		case isIdentStart(p):
			return lexIdent(itemDotIdent)
		}
		return l.errorf("unexpected . in expression")
	case r == '?':
		switch l.next() {
		case '?':
			l.emit(itemNullish)
		case '.':
			// a?.5:1 is a ternary, not an optional chain
			switch p := l.peek(); {
			case p == '[':
				l.next()
				l.emit(itemQuestionBracket)
			case p == '(':
				l.next()
				l.emit(itemQuestionParen)
			case isIdentStart(p):
				return lexIdent(itemQuestionDotIdent)
			default:
				l.pos--
				l.emit(itemTernIf)
			}
		default:
			l.backup()
			l.emit(itemTernIf)
		}
	case isDigit(r):
		l.backup()
		return lexNumber
	case r == '"', r == '\'', r == '`':
		return stringLexer(r)
	case isIdentStart(r):
		return lexIdent(itemIdent)
	case r == '=', r == '!':
		// !, !=, !==, ==, ===
		l.accept("=")
		l.accept("=")
		return l.emitSymbol()
	case r == '<', r == '>':
		l.accept("=")
		return l.emitSymbol()
	case r == '|', r == '&':
		if !l.accept(string(r)) {
			return l.errorf("unsupported operator %c", r)
		}
		return l.emitSymbol()
	case strings.ContainsRune(",:[]{}()*/%+-", r):
		return l.emitSymbol()
	default:
		return l.errorf("unrecognized character in expression: %#U", r)
	}
	return lexInsideExpr
}

// emitSymbol emits the operator or punctuation scanned since the last item.
func (l *exprLexer) emitSymbol() stateFn {
	var sym = l.input[l.start:l.pos]
	var typ, ok = symbols[sym]
	if !ok {
		return l.errorf("unexpected symbol: %s", sym)
	}
	l.emit(typ)
	return lexInsideExpr
}

// stringLexer returns a stateFn that lexes strings surrounded by the given quote character.
func stringLexer(quoteChar rune) stateFn {
	// the quote char has already been read.
	return func(l *exprLexer) stateFn {
		for {
			switch l.next() {
			case eof:
				return l.errorf("unexpected eof while scanning string")
			case '\\':
				l.next() // skip escape sequences
			case quoteChar:
				l.emit(itemString)
				return lexInsideExpr
			}
		}
	}
}

// lexIdent returns a stateFn that absorbs an identifier.  For member access
// the leading "." or "?." has already been read.
func lexIdent(typ itemType) stateFn {
	return func(l *exprLexer) stateFn {
		for isAlphaNumeric(l.next()) {
		}
		l.backup()
		if typ == itemIdent {
			if kw, ok := keywords[l.input[l.start:l.pos]]; ok {
				typ = kw
			}
		}
		l.emit(typ)
		return lexInsideExpr
	}
}

// lexNumber scans a number: a float or integer (which can be decimal or hex).
func lexNumber(l *exprLexer) stateFn {
	typ, ok := scanNumber(l)
	if !ok {
		return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
	}
	// Emits itemFloat or itemInteger.
	l.emit(typ)
	return lexInsideExpr
}

// scanNumber scans a number literal.  It returns the scanned itemType
// (itemFloat or itemInteger) and a flag indicating if it was well formed.
//
// Numbers may be:
//
//   - hexadecimal integers, e.g. 0x1F
//   - decimal integers, e.g. 827
//   - decimals with a fraction and/or exponent, e.g. 0.5, .5, 5., 6.02e23
func scanNumber(l *exprLexer) (typ itemType, ok bool) {
	typ = itemInteger
	if strings.HasPrefix(l.input[l.pos:], "0x") || strings.HasPrefix(l.input[l.pos:], "0X") {
		l.pos += 2
		if !l.acceptRun(hexDigits) {
			// Requires at least one digit.
			return
		}
	} else {
		var digits = l.acceptRun(decDigits)
		if l.accept(".") {
			typ = itemFloat
			if !l.acceptRun(decDigits) && !digits {
				return
			}
		}
		if l.accept("eE") {
			l.accept("+-")
			if !l.acceptRun(decDigits) {
				// A digit is required after the exponent.
				return
			}
			typ = itemFloat
		}
	}
	// Next thing must not be alphanumeric.
	if isAlphaNumeric(l.peek()) {
		l.next()
		return
	}
	ok = true
	return
}

// Helpers --------------------------------------------------------------------

// isAlphaNumeric reports whether r may continue an identifier.
func isAlphaNumeric(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isIdentStart reports whether r may begin an identifier.
func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
