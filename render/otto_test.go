package render

import (
	"testing"

	"github.com/robertkrimen/otto"

	"github.com/glzr-io/zebar-sub000/data"
	"github.com/glzr-io/zebar-sub000/parse"
)

// ottoVars declares the same variables as ottoData, for the JavaScript side.
const ottoVars = `var n = 7, s = 'Hello', items = [1, 'two', 3.5], cpu = {usage: 42.75};`

var ottoData = d{
	"n":     7,
	"s":     "Hello",
	"items": []interface{}{1, "two", 3.5},
	"cpu":   d{"usage": 42.75},
}

// TestAgainstJavaScript evaluates expressions both here and in a JavaScript
// interpreter, and checks that they print the same way.  The interpreter only
// speaks ES5, so newer operators and methods are covered by the exec tests.
func TestAgainstJavaScript(t *testing.T) {
	var exprs = []string{
		"1 + 1",
		"0.1 + 0.2",
		"'5' * '2'",
		"'5' + 2",
		"5 - '2'",
		"1 / 0",
		"-1 / 0",
		"0 / 0",
		"7 % -3",
		"-7 % 3",
		"5.5 % 2",
		"-(1 + 1.5)",
		"+'3' + 1",
		"+true",
		"-'x'",
		"2 * 3 + 4 * 5 - 6 / 3",

		"null == undefined",
		"null === undefined",
		"'1' == 1",
		"'1' === 1",
		"NaN == NaN",
		"'b' > 'a'",
		"'10' < '9'",
		"10 < '9'",
		"null >= 0",
		"undefined >= 0",
		"[1] == 1",
		"true == 1",
		"'' == 0",
		"null == 0",

		"0 || 'd'",
		"1 && 'x'",
		"'' && 'x'",
		"!''",
		"!!'a'",
		"n > 5 ? 'big' : 'small'",
		"n > 5 ? n > 6 ? 'a' : 'b' : 'c'",

		"[1, 'a', null, [2, 3]]",
		"[] + {}",
		"[1, 2] + 3",
		"s + n",
		"s.length",
		"s.toUpperCase()",
		"s.toLowerCase()",
		"s.slice(1, -1)",
		"s.slice(-3)",
		"s.indexOf('l')",
		"s.indexOf('l', 3)",
		"s.charAt(1)",
		"s.split('l').join('-')",
		"s.split('')",
		"s.replace('l', 'L')",
		"s[0]",
		"s[10]",
		"items.length",
		"items[1]",
		"items['2']",
		"items.join(' / ')",
		"items.slice(1).join()",
		"items.slice(-2, -1)",
		"items.indexOf('two')",

		"cpu.usage",
		"cpu.usage.toFixed(2)",
		"cpu.missing",
		"cpu['usage'] * 2",
		"Math.round(cpu.usage)",
		"Math.round(-2.5)",
		"Math.round(2.4)",
		"Math.floor(-1.5)",
		"Math.ceil(1.2)",
		"Math.abs(-3)",
		"Math.max(1, 3, 2)",
		"Math.min(4, '2')",
		"Math.pow(2, 10)",
		"Math.sqrt(16)",
		"Math.max()",
		"Math.min()",

		"parseInt('42px')",
		"parseInt('0x1F')",
		"parseInt('ff', 16)",
		"parseInt('abc')",
		"parseInt('  -12.9')",
		"parseFloat('3.14abc')",
		"parseFloat('.5')",
		"parseFloat('-1e3x')",
		"isNaN('abc')",
		"isNaN('12')",
		"JSON.stringify({a: true, b: [1, 'x', null]})",
		`JSON.stringify('q"')`,
		"String(null)",
		"Number('')",
		"Number(' 12 ')",
		"Number('12px')",
		"Boolean('')",
		"Boolean('0')",
		"(255).toString(16)",
		"(3.14159).toFixed(3)",
		"(1.005).toFixed(2)",
		"(0.000001234).toFixed(8)",
	}

	var vm = otto.New()
	if _, err := vm.Run(ottoVars); err != nil {
		t.Fatal(err)
	}
	var vars = data.New(ottoData).(data.Map)

	for _, expr := range exprs {
		var expected, err = vm.Run("String(" + expr + ")")
		if err != nil {
			t.Errorf("%s: javascript error: %v", expr, err)
			continue
		}

		node, err := parse.Expr(expr)
		if err != nil {
			t.Errorf("%s: %v", expr, err)
			continue
		}
		actual, err := EvalExpr(node, vars)
		if err != nil {
			t.Errorf("%s: %v", expr, err)
			continue
		}

		if actual.String() != expected.String() {
			t.Errorf("%s: expected %q, got %q", expr, expected.String(), actual.String())
		}
	}
}
