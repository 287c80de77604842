package zebar

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/glzr-io/zebar-sub000/data"
)

func TestParseGlobals(t *testing.T) {
	var input = `
// comment
a = 1
b = 'str'
 c = a + 1
d = [a, b, null]
e = {k: true}
f = Math.max(a, c) * 10
`
	var globals, err = ParseGlobals(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	var expected = data.Map{
		"a": data.Int(1),
		"b": data.String("str"),
		"c": data.Int(2),
		"d": data.List{data.Int(1), data.String("str"), data.Null{}},
		"e": data.Map{"k": data.Bool(true)},
		"f": data.Int(20),
	}
	if diff := cmp.Diff(expected, globals); diff != "" {
		t.Errorf("globals mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGlobalsErrors(t *testing.T) {
	var tests = []struct {
		input string
		line  string
	}{
		{"a", "line 1"},
		{"a = 1\na = 2", "line 2"},
		{"a = 1\n\nb = (", "line 3"},
		{"a = missing", "line 1"},
	}
	for _, test := range tests {
		var _, err = ParseGlobals(strings.NewReader(test.input))
		if err == nil {
			t.Errorf("%q: expected an error", test.input)
			continue
		}
		if !strings.HasPrefix(err.Error(), test.line) {
			t.Errorf("%q: expected the error to start with %q, got %q", test.input, test.line, err)
		}
	}
}
