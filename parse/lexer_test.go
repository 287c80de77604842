package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/glzr-io/zebar-sub000/errortypes"
)

type lexTest struct {
	name   string
	input  string
	tokens []Token
}

func tok(kind TokenKind, val string, start int) Token {
	return Token{kind, val, start, start + len(val)}
}

var lexTests = []lexTest{
	{"empty", "", nil},
	{"text", "now is the time", []Token{tok(TokenText, "now is the time", 0)}},
	{"spaces", " \t\n", []Token{tok(TokenText, " \t\n", 0)}},
	{"lone at", "mail me@home", []Token{tok(TokenText, "mail me@home", 0)}},
	{"at keyword prefix", "@iffy", []Token{tok(TokenText, "@iffy", 0)}},
	{"single brace", "a { b", []Token{tok(TokenText, "a { b", 0)}},
	{"interpolation", "{{ 1 + 1 }}", []Token{
		tok(TokenOpenInterpolation, "{{", 0),
		tok(TokenExpression, "1 + 1", 3),
		tok(TokenCloseInterpolation, "}}", 9),
	}},
	{"tight interpolation", "a{{b}}c", []Token{
		tok(TokenText, "a", 0),
		tok(TokenOpenInterpolation, "{{", 1),
		tok(TokenExpression, "b", 3),
		tok(TokenCloseInterpolation, "}}", 4),
		tok(TokenText, "c", 6),
	}},
	{"empty interpolation", "{{ }}", []Token{
		tok(TokenOpenInterpolation, "{{", 0),
		tok(TokenCloseInterpolation, "}}", 3),
	}},
	{"close symbol in string", `{{ fn(")") }}`, []Token{
		tok(TokenOpenInterpolation, "{{", 0),
		tok(TokenExpression, `fn(")")`, 3),
		tok(TokenCloseInterpolation, "}}", 11),
	}},
	{"close symbol in escaped string", `{{ '}}\'}}' }}`, []Token{
		tok(TokenOpenInterpolation, "{{", 0),
		tok(TokenExpression, `'}}\'}}'`, 3),
		tok(TokenCloseInterpolation, "}}", 12),
	}},
	{"object literal", "{{ {a: 1}}}", []Token{
		tok(TokenOpenInterpolation, "{{", 0),
		tok(TokenExpression, "{a: 1}", 3),
		tok(TokenCloseInterpolation, "}}", 9),
	}},
	{"if-else", "@if (x > 0) { pos } @else { non-pos }", []Token{
		tok(TokenIf, "@if", 0),
		tok(TokenExpression, "x > 0", 5),
		tok(TokenOpenBlock, "{", 12),
		tok(TokenText, " pos ", 13),
		tok(TokenCloseBlock, "}", 18),
		tok(TokenText, " ", 19),
		tok(TokenElse, "@else", 20),
		tok(TokenOpenBlock, "{", 26),
		tok(TokenText, " non-pos ", 27),
		tok(TokenCloseBlock, "}", 36),
	}},
	{"else if", "@if (a) {x}@else if (b) {y}", []Token{
		tok(TokenIf, "@if", 0),
		tok(TokenExpression, "a", 5),
		tok(TokenOpenBlock, "{", 8),
		tok(TokenText, "x", 9),
		tok(TokenCloseBlock, "}", 10),
		tok(TokenElseIf, "@else if", 11),
		tok(TokenExpression, "b", 21),
		tok(TokenOpenBlock, "{", 24),
		tok(TokenText, "y", 25),
		tok(TokenCloseBlock, "}", 26),
	}},
	{"nested parens", "@if ((a || b) && fn(c)) {}", []Token{
		tok(TokenIf, "@if", 0),
		tok(TokenExpression, "(a || b) && fn(c)", 5),
		tok(TokenOpenBlock, "{", 24),
		tok(TokenCloseBlock, "}", 25),
	}},
	{"for", "@for (item of items) { {{item}}, }", []Token{
		tok(TokenFor, "@for", 0),
		tok(TokenExpression, "item of items", 6),
		tok(TokenOpenBlock, "{", 21),
		tok(TokenText, " ", 22),
		tok(TokenOpenInterpolation, "{{", 23),
		tok(TokenExpression, "item", 25),
		tok(TokenCloseInterpolation, "}}", 29),
		tok(TokenText, ", ", 31),
		tok(TokenCloseBlock, "}", 33),
	}},
	{"switch", "@switch (x) { @case (1) { one } @default { other } }", []Token{
		tok(TokenSwitch, "@switch", 0),
		tok(TokenExpression, "x", 9),
		tok(TokenOpenBlock, "{", 12),
		tok(TokenText, " ", 13),
		tok(TokenCase, "@case", 14),
		tok(TokenExpression, "1", 21),
		tok(TokenOpenBlock, "{", 24),
		tok(TokenText, " one ", 25),
		tok(TokenCloseBlock, "}", 30),
		tok(TokenText, " ", 31),
		tok(TokenDefault, "@default", 32),
		tok(TokenOpenBlock, "{", 41),
		tok(TokenText, " other ", 42),
		tok(TokenCloseBlock, "}", 49),
		tok(TokenText, " ", 50),
		tok(TokenCloseBlock, "}", 51),
	}},
	{"empty args", "@if () {}", []Token{
		tok(TokenIf, "@if", 0),
		tok(TokenOpenBlock, "{", 7),
		tok(TokenCloseBlock, "}", 8),
	}},
}

func TestTokenize(t *testing.T) {
	for _, test := range lexTests {
		tokens, err := Tokenize(test.name, test.input)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if diff := cmp.Diff(test.tokens, tokens); diff != "" {
			t.Errorf("%s: tokens mismatch (-want +got):\n%s", test.name, diff)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	var tests = []struct {
		input  string
		kind   errortypes.Kind
		offset int
	}{
		{"}", errortypes.ScanFailure, 0},
		{"text } more", errortypes.ScanFailure, 5},
		{"@if (true) { unclosed", errortypes.UnterminatedTag, 21},
		{"@if", errortypes.UnterminatedTag, 3},
		{"@if (a) x", errortypes.UnterminatedTag, 8},
		{"{{ a", errortypes.UnterminatedTag, 4},
		{"{{ 'abc }}", errortypes.UnterminatedExpression, 10},
		{"{{ fn(a }}", errortypes.UnterminatedExpression, 10},
		{"@for (x of [1, 2) { }", errortypes.UnterminatedExpression, 21},
	}
	for _, test := range tests {
		_, err := Tokenize("", test.input)
		if err == nil {
			t.Errorf("%q: expected an error", test.input)
			continue
		}
		if kind := errortypes.KindOf(err); kind != test.kind {
			t.Errorf("%q: expected %v, got %v (%v)", test.input, test.kind, kind, err)
		}
		if offset, _ := errortypes.Offset(err); offset != test.offset {
			t.Errorf("%q: expected offset %d, got %d", test.input, test.offset, offset)
		}
	}
}

func TestTokensNeverEmpty(t *testing.T) {
	for _, test := range lexTests {
		tokens, _ := Tokenize("", test.input)
		for _, token := range tokens {
			if token.Val == "" || token.Start == token.End {
				t.Errorf("%s: empty token %v", test.name, token)
			}
			if test.input[token.Start:token.End] != token.Val {
				t.Errorf("%s: token %v does not match its offsets", test.name, token)
			}
		}
	}
}

func TestLexExpr(t *testing.T) {
	var tests = []struct {
		input string
		types []itemType
	}{
		{"1 + 1", []itemType{itemInteger, itemAdd, itemInteger, itemEOF}},
		{"a.b?.c", []itemType{itemIdent, itemDotIdent, itemQuestionDotIdent, itemEOF}},
		{"a?.[0]", []itemType{itemIdent, itemQuestionBracket, itemInteger, itemRightBracket, itemEOF}},
		{"f?.()", []itemType{itemIdent, itemQuestionParen, itemRightParen, itemEOF}},
		{"a ?.5:1", []itemType{itemIdent, itemTernIf, itemFloat, itemColon, itemInteger, itemEOF}},
		{"a ?? b", []itemType{itemIdent, itemNullish, itemIdent, itemEOF}},
		{"a === b !== c", []itemType{itemIdent, itemStrictEq, itemIdent, itemStrictNotEq, itemIdent, itemEOF}},
		{"!a != b", []itemType{itemNot, itemIdent, itemNotEq, itemIdent, itemEOF}},
		{"a <= b && c >= d || e", []itemType{itemIdent, itemLte, itemIdent, itemAnd, itemIdent, itemGte, itemIdent, itemOr, itemIdent, itemEOF}},
		{"0x1F 1.5e3 .5 5.", []itemType{itemInteger, itemFloat, itemFloat, itemFloat, itemEOF}},
		{"true null undefined $x", []itemType{itemBool, itemNull, itemUndefined, itemIdent, itemEOF}},
		{"'a' \"b\" `c`", []itemType{itemString, itemString, itemString, itemEOF}},
		{"{a: [1]}", []itemType{itemLeftBrace, itemIdent, itemColon, itemLeftBracket, itemInteger, itemRightBracket, itemRightBrace, itemEOF}},
		{"a = b", []itemType{itemIdent, itemError}},
		{"a | b", []itemType{itemIdent, itemError}},
		{"'open", []itemType{itemError}},
		{"1abc", []itemType{itemError}},
		{"#", []itemType{itemError}},
	}
	for _, test := range tests {
		var items = lexExpr(test.input, 0)
		var types []itemType
		for _, item := range items {
			types = append(types, item.typ)
		}
		if diff := cmp.Diff(test.types, types); diff != "" {
			t.Errorf("%q: item types mismatch (-want +got):\n%s", test.input, diff)
		}
	}
}

func TestLexExprPositions(t *testing.T) {
	var items = lexExpr("cpu.usage > 50", 10)
	var expected = []item{
		{itemIdent, 10, "cpu"},
		{itemDotIdent, 13, ".usage"},
		{itemGt, 20, ">"},
		{itemInteger, 22, "50"},
		{itemEOF, 24, ""},
	}
	if diff := cmp.Diff(expected, items, cmp.AllowUnexported(item{})); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}
