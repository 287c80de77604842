package parsepasses

import (
	"errors"
	"reflect"
	"testing"

	"github.com/glzr-io/zebar-sub000/errortypes"
	"github.com/glzr-io/zebar-sub000/parse"
)

type checkerTest struct {
	body    string
	success bool
}

// Test: all variable references are provided by the defined names or an
// enclosing @for.
func TestAllRefsDefined(t *testing.T) {
	runCheckerTests(t, []checkerTest{
		{`no refs`, true},
		{`{{ cpu.usage }}`, true},
		{`{{ Math.round(cpu.usage) }}`, true},
		{`{{ missing }}`, false},
		{`{{ cpu.missing.deeper }}`, true},
		{`@for (ws of workspaces) { {{ ws.name }} }`, true},
		{`@for ((ws, i) of workspaces) { {{ i }}:{{ ws }} }`, true},
		{`@for (ws of workspaces) {} {{ ws }}`, false},
		{`@for (ws of ws) {}`, false},
		{`@for (a of workspaces) { @for (b of a) { {{ a }}{{ b }} } {{ b }} }`, false},
		{`@if (cpu) { {{ cpu }} } @else if (missing) {}`, false},
		{`@switch (cpu) { @case (missing) {} }`, false},
		{`@switch (cpu) { @default { {{ missing }} } }`, false},
		{`{{ {a: missing} }}`, false},
		{`{{ [cpu, workspaces] }}`, true},
		{`{{ f(missing) }}`, false},
		{`{{ cpu[missing] }}`, false},
	})
}

func TestFreeRefs(t *testing.T) {
	var tree, err = parse.Template("", "{{ a }} @for (x of xs) { {{ x + a + b }} } {{ x }}")
	if err != nil {
		t.Fatal(err)
	}
	var refs = FreeRefs(tree)
	var expected = []Ref{
		{"a", 3, "a"},
		{"xs", 19, "x of xs"},
		{"a", 32, "x + a + b"},
		{"b", 36, "x + a + b"},
		{"x", 46, "x"},
	}
	if !reflect.DeepEqual(expected, refs) {
		t.Errorf("expected %v, got %v", expected, refs)
	}
	if names := Names(refs); !reflect.DeepEqual([]string{"a", "xs", "b", "x"}, names) {
		t.Errorf("unexpected names %v", names)
	}
}

func TestCheckRefsError(t *testing.T) {
	var tree, err = parse.Template("", "ok {{ cpu + nope }}")
	if err != nil {
		t.Fatal(err)
	}
	err = CheckRefs(tree, defined)
	var evalErr *errortypes.EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected an EvalError, got %v", err)
	}
	if evalErr.Offset != 12 || evalErr.Expression != "cpu + nope" {
		t.Errorf("unexpected error details: %d %q", evalErr.Offset, evalErr.Expression)
	}
}

func defined(name string) bool {
	switch name {
	case "cpu", "workspaces", "Math", "f":
		return true
	}
	return false
}

func runCheckerTests(t *testing.T, tests []checkerTest) {
	for _, test := range tests {
		var tree, err = parse.Template("", test.body)
		if err != nil {
			t.Error(err)
			continue
		}

		err = CheckRefs(tree, defined)
		if test.success && err != nil {
			t.Errorf("%s: %v", test.body, err)
		} else if !test.success && err == nil {
			t.Errorf("%s: expected to fail validation, but no error was raised.", test.body)
		}
	}
}
