package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/glzr-io/zebar-sub000/ast"
	"github.com/glzr-io/zebar-sub000/errortypes"
)

type parseTest struct {
	name  string
	input string
	tree  *ast.ListNode
}

// ignorePos compares trees by shape; positions are covered by TestPositions.
var ignorePos = cmpopts.IgnoreTypes(ast.Pos(0))

func tList(nodes ...ast.Node) *ast.ListNode {
	return &ast.ListNode{Nodes: nodes}
}

func tText(text string) ast.Node {
	return &ast.TextNode{Text: text}
}

func tInterp(expr string, node ast.Node) ast.Node {
	return &ast.InterpolationNode{Expression: expr, Expr: node}
}

func tIdent(name string) ast.Node {
	return &ast.IdentNode{Name: name}
}

func tInt(i int64) ast.Node {
	return &ast.IntNode{Value: i}
}

func tStr(quoted, value string) ast.Node {
	return &ast.StringNode{Quoted: quoted, Value: value}
}

func bin(name string, a, b ast.Node) ast.BinaryOpNode {
	return ast.BinaryOpNode{Name: name, Arg1: a, Arg2: b}
}

var parseTests = []parseTest{
	{"empty", "", tList()},
	{"text", "Hello world!", tList(tText("Hello world!"))},
	{"interpolation", "{{ 1 + 1 }}", tList(
		tInterp("1 + 1", &ast.AddNode{bin("+", tInt(1), tInt(1))}),
	)},
	{"text and interpolation", "CPU {{cpu.usage}}%", tList(
		tText("CPU "),
		tInterp("cpu.usage", &ast.MemberNode{Obj: tIdent("cpu"), Name: "usage"}),
		tText("%"),
	)},
	{"if-else", "@if (x > 0) { pos } @else { non-pos }", tList(
		&ast.IfNode{Branches: []*ast.IfBranchNode{
			{Kind: ast.IfBranch, Expression: "x > 0",
				Cond: &ast.GtNode{bin(">", tIdent("x"), tInt(0))},
				Body: tList(tText(" pos "))},
			{Kind: ast.ElseBranch, Body: tList(tText(" non-pos "))},
		}},
	)},
	{"if-elseif", "@if (a) {A}\n@else if (b) {B} tail", tList(
		&ast.IfNode{Branches: []*ast.IfBranchNode{
			{Kind: ast.IfBranch, Expression: "a", Cond: tIdent("a"), Body: tList(tText("A"))},
			{Kind: ast.ElseIfBranch, Expression: "b", Cond: tIdent("b"), Body: tList(tText("B"))},
		}},
		tText(" tail"),
	)},
	{"if keeps following space", "@if (a) {A} ", tList(
		&ast.IfNode{Branches: []*ast.IfBranchNode{
			{Kind: ast.IfBranch, Expression: "a", Cond: tIdent("a"), Body: tList(tText("A"))},
		}},
		tText(" "),
	)},
	{"for", "@for (item of items) { {{item}}, }", tList(
		&ast.ForNode{Expression: "item of items", Item: "item", Iterable: tIdent("items"),
			Body: tList(tText(" "), tInterp("item", tIdent("item")), tText(", "))},
	)},
	{"for with index", "@for ((item, i) of battery.cells) { {{i}} }", tList(
		&ast.ForNode{Expression: "(item, i) of battery.cells", Item: "item", Index: "i",
			Iterable: &ast.MemberNode{Obj: tIdent("battery"), Name: "cells"},
			Body:     tList(tText(" "), tInterp("i", tIdent("i")), tText(" "))},
	)},
	{"switch", "@switch (x) { @case (1) { one } @default { other } }", tList(
		&ast.SwitchNode{Expression: "x", Value: tIdent("x"), Branches: []*ast.SwitchBranchNode{
			{Kind: ast.CaseBranch, Expression: "1", Value: tInt(1), Body: tList(tText(" one "))},
			{Kind: ast.DefaultBranch, Body: tList(tText(" other "))},
		}},
	)},
	{"empty switch", "@switch (x) {}", tList(
		&ast.SwitchNode{Expression: "x", Value: tIdent("x")},
	)},
	{"nested", "@if (a) {@for (b of c) {@switch (b) {@case ('x') {{{b}}}}}}", tList(
		&ast.IfNode{Branches: []*ast.IfBranchNode{
			{Kind: ast.IfBranch, Expression: "a", Cond: tIdent("a"), Body: tList(
				&ast.ForNode{Expression: "b of c", Item: "b", Iterable: tIdent("c"), Body: tList(
					&ast.SwitchNode{Expression: "b", Value: tIdent("b"), Branches: []*ast.SwitchBranchNode{
						{Kind: ast.CaseBranch, Expression: "'x'", Value: tStr("'x'", "x"),
							Body: tList(tInterp("b", tIdent("b")))},
					}},
				)},
			)},
		}},
	)},
}

func TestParse(t *testing.T) {
	for _, test := range parseTests {
		tree, err := Template(test.name, test.input)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if diff := cmp.Diff(test.tree, tree, ignorePos); diff != "" {
			t.Errorf("%s: tree mismatch (-want +got):\n%s", test.name, diff)
		}
	}
}

func TestParseTwiceIsIdentical(t *testing.T) {
	for _, test := range parseTests {
		first, err1 := Template("", test.input)
		second, err2 := Template("", test.input)
		if err1 != nil || err2 != nil {
			t.Errorf("%s: %v / %v", test.name, err1, err2)
			continue
		}
		if !cmp.Equal(first, second) {
			t.Errorf("%s: compiling twice gave different trees", test.name)
		}
	}
}

func TestExpressions(t *testing.T) {
	var tests = []struct {
		input string
		node  ast.Node
	}{
		{"a + b * c", &ast.AddNode{bin("+", tIdent("a"), &ast.MulNode{bin("*", tIdent("b"), tIdent("c"))})}},
		{"(a + b) * c", &ast.MulNode{bin("*", &ast.AddNode{bin("+", tIdent("a"), tIdent("b"))}, tIdent("c"))}},
		{"1 - 2 - 3", &ast.SubNode{bin("-", &ast.SubNode{bin("-", tInt(1), tInt(2))}, tInt(3))}},
		{"a || b && c", &ast.OrNode{bin("||", tIdent("a"), &ast.AndNode{bin("&&", tIdent("b"), tIdent("c"))})}},
		{"a ?? b || c", &ast.NullishNode{bin("??", tIdent("a"), &ast.OrNode{bin("||", tIdent("b"), tIdent("c"))})}},
		{"a < b == c", &ast.EqNode{bin("==", &ast.LtNode{bin("<", tIdent("a"), tIdent("b"))}, tIdent("c"))}},
		{"a + 1 > b", &ast.GtNode{bin(">", &ast.AddNode{bin("+", tIdent("a"), tInt(1))}, tIdent("b"))}},
		{"a !== b", &ast.StrictNotEqNode{bin("!==", tIdent("a"), tIdent("b"))}},
		{"a ? b : c ? d : e", &ast.TernNode{Arg1: tIdent("a"), Arg2: tIdent("b"),
			Arg3: &ast.TernNode{Arg1: tIdent("c"), Arg2: tIdent("d"), Arg3: tIdent("e")}}},
		{"a > 1 ? 'hi' : 'lo'", &ast.TernNode{
			Arg1: &ast.GtNode{bin(">", tIdent("a"), tInt(1))},
			Arg2: tStr("'hi'", "hi"), Arg3: tStr("'lo'", "lo")}},
		{"-a.b", &ast.NegateNode{Arg: &ast.MemberNode{Obj: tIdent("a"), Name: "b"}}},
		{"!a && +b", &ast.AndNode{bin("&&", &ast.NotNode{Arg: tIdent("a")}, &ast.PlusNode{Arg: tIdent("b")})}},
		{"a - -1", &ast.SubNode{bin("-", tIdent("a"), &ast.NegateNode{Arg: tInt(1)})}},
		{"fn(1, 'x')[0]?.y", &ast.MemberNode{Optional: true, Name: "y", Obj: &ast.IndexNode{
			Obj:   &ast.CallNode{Func: tIdent("fn"), Args: []ast.Node{tInt(1), tStr("'x'", "x")}},
			Index: tInt(0)}}},
		{"a?.[k]?.(1)", &ast.CallNode{Optional: true, Args: []ast.Node{tInt(1)},
			Func: &ast.IndexNode{Optional: true, Obj: tIdent("a"), Index: tIdent("k")}}},
		{"Math.round(x)", &ast.CallNode{Func: &ast.MemberNode{Obj: tIdent("Math"), Name: "round"}, Args: []ast.Node{tIdent("x")}}},
		{"f()", &ast.CallNode{Func: tIdent("f")}},
		{"[1, 2,]", &ast.ListLiteralNode{Items: []ast.Node{tInt(1), tInt(2)}}},
		{"[]", &ast.ListLiteralNode{}},
		{"'abc'.length", &ast.MemberNode{Obj: tStr("'abc'", "abc"), Name: "length"}},
		{"{}", &ast.MapLiteralNode{}},
		{"{a: 1, 'b c': 2, d,}", &ast.MapLiteralNode{
			Keys:   []string{"a", "b c", "d"},
			Values: []ast.Node{tInt(1), tInt(2), tIdent("d")}}},
		{"0x1F", tInt(31)},
		{"1.5e3", &ast.FloatNode{Value: 1500}},
		{"null ?? undefined", &ast.NullishNode{bin("??", &ast.NullNode{}, &ast.UndefinedNode{})}},
		{"true", &ast.BoolNode{True: true}},
	}
	for _, test := range tests {
		node, err := Expr(test.input)
		if err != nil {
			t.Errorf("%q: %v", test.input, err)
			continue
		}
		if diff := cmp.Diff(test.node, node, ignorePos); diff != "" {
			t.Errorf("%q: tree mismatch (-want +got):\n%s", test.input, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	var tests = []struct {
		input  string
		kind   errortypes.Kind
		offset int
	}{
		{"@else { x }", errortypes.UnexpectedBranchToken, 0},
		{"@else if (a) { x }", errortypes.UnexpectedBranchToken, 0},
		{"a @case (1) { x }", errortypes.UnexpectedBranchToken, 2},
		{"@default { x }", errortypes.UnexpectedBranchToken, 0},
		{"@if (a) { x } y @else { z }", errortypes.UnexpectedBranchToken, 16},
		{"@if (a) { x } @else { y } @else { z }", errortypes.UnexpectedBranchToken, 26},
		{"@for (a) { @else {} }", errortypes.MalformedLoopHeader, 6},
		{"@for (x) { ... }", errortypes.MalformedLoopHeader, 6},
		{"@for (a, b of c) {}", errortypes.MalformedLoopHeader, 6},
		{"@for ((a, a) of c) {}", errortypes.MalformedLoopHeader, 6},
		{"@for (null of c) {}", errortypes.MalformedLoopHeader, 6},
		{"@for (a of c) { @case (1) {} }", errortypes.UnexpectedBranchToken, 16},
		{"{{ }}", errortypes.MissingExpectedToken, 3},
		{"@if {x}", errortypes.MissingExpectedToken, 4},
		{"@if () {x}", errortypes.MissingExpectedToken, 7},
		{"@switch (x) { text @case (1) {} }", errortypes.MissingExpectedToken, 13},
		{"@switch (x) { @default {} @case (1) {} }", errortypes.UnexpectedBranchToken, 26},
		{"@switch (x) { {{x}} }", errortypes.MissingExpectedToken, 14},
		{"{{ a + }}", errortypes.MissingExpectedToken, 6},
		{"{{ a b }}", errortypes.MissingExpectedToken, 5},
		{"{{ (a }}", errortypes.UnterminatedExpression, 8},
		{"{{ a) }}", errortypes.MissingExpectedToken, 4},
		{"{{ 'a' # }}", errortypes.ScanFailure, 7},
		{"{{ a = 1 }}", errortypes.ScanFailure, 5},
		{"{{ {a b} }}", errortypes.MissingExpectedToken, 6},
		{"@if (true) { unclosed", errortypes.UnterminatedTag, 21},
	}
	for _, test := range tests {
		_, err := Template("", test.input)
		if err == nil {
			t.Errorf("%q: expected an error", test.input)
			continue
		}
		if kind := errortypes.KindOf(err); kind != test.kind {
			t.Errorf("%q: expected %v, got %v (%v)", test.input, test.kind, kind, err)
		}
		if offset, _ := errortypes.Offset(err); offset != test.offset {
			t.Errorf("%q: expected offset %d, got %d (%v)", test.input, test.offset, offset, err)
		}
	}
}

func TestPositions(t *testing.T) {
	tree, err := Template("", "ab {{ cpu.usage }}")
	if err != nil {
		t.Fatal(err)
	}
	var interp = tree.Nodes[1].(*ast.InterpolationNode)
	if interp.Position() != 3 {
		t.Errorf("interpolation at %d, expected 3", interp.Position())
	}
	var member = interp.Expr.(*ast.MemberNode)
	if member.Position() != 9 {
		t.Errorf("member access at %d, expected 9", member.Position())
	}
	if ident := member.Obj.(*ast.IdentNode); ident.Position() != 6 {
		t.Errorf("identifier at %d, expected 6", ident.Position())
	}
}

func TestForIterableOffset(t *testing.T) {
	tree, err := Template("", "@for (x of  list) {}")
	if err != nil {
		t.Fatal(err)
	}
	var iterable = tree.Nodes[0].(*ast.ForNode).Iterable
	if iterable.Position() != 12 {
		t.Errorf("iterable at %d, expected 12", iterable.Position())
	}
}
