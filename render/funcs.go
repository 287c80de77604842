package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/glzr-io/zebar-sub000/data"
)

// builtins contains the values available to every template, such as Math
// and parseInt.  Variables and globals of the same name shadow them.
var builtins = data.Map{
	"Math": data.Map{
		"PI":    data.Float(math.Pi),
		"E":     data.Float(math.E),
		"round": mathFunc("round", jsRound),
		"floor": mathFunc("floor", math.Floor),
		"ceil":  mathFunc("ceil", math.Ceil),
		"abs":   mathFunc("abs", math.Abs),
		"sqrt":  mathFunc("sqrt", math.Sqrt),
		"trunc": mathFunc("trunc", math.Trunc),
		"pow":   newFunc("pow", funcPow),
		"min":   newFunc("min", funcMin),
		"max":   newFunc("max", funcMax),
	},
	"JSON": data.Map{
		"stringify": newFunc("stringify", funcStringify),
	},
	"String":     newFunc("String", funcString),
	"Number":     newFunc("Number", funcNumber),
	"Boolean":    newFunc("Boolean", funcBoolean),
	"parseInt":   newFunc("parseInt", funcParseInt),
	"parseFloat": newFunc("parseFloat", funcParseFloat),
	"isNaN":      newFunc("isNaN", funcIsNaN),
	"NaN":        data.Float(math.NaN()),
	"Infinity":   data.Float(math.Inf(1)),
}

// IsBuiltin reports whether name resolves to a built-in value.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func newFunc(name string, apply func([]data.Value) (data.Value, error)) *data.Func {
	return &data.Func{Name: name, Apply: apply}
}

// mathFunc adapts a numeric function of one argument.
func mathFunc(name string, fn func(float64) float64) *data.Func {
	return newFunc(name, func(args []data.Value) (data.Value, error) {
		return data.Number(fn(data.ToNumber(arg(args, 0)))), nil
	})
}

// arg returns the i'th argument, or undefined if it was not passed.
func arg(args []data.Value, i int) data.Value {
	if i < len(args) {
		return args[i]
	}
	return data.Undefined{}
}

// jsRound rounds to the nearest integer, with halves rounded up.
func jsRound(x float64) float64 {
	var r = math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	if r == 0 && math.Signbit(x) {
		return math.Copysign(0, -1)
	}
	return r
}

func funcPow(args []data.Value) (data.Value, error) {
	return data.Number(math.Pow(data.ToNumber(arg(args, 0)), data.ToNumber(arg(args, 1)))), nil
}

func funcMin(args []data.Value) (data.Value, error) {
	var result = math.Inf(1)
	for _, a := range args {
		var f = data.ToNumber(a)
		if math.IsNaN(f) {
			return data.Float(f), nil
		}
		result = math.Min(result, f)
	}
	return data.Number(result), nil
}

func funcMax(args []data.Value) (data.Value, error) {
	var result = math.Inf(-1)
	for _, a := range args {
		var f = data.ToNumber(a)
		if math.IsNaN(f) {
			return data.Float(f), nil
		}
		result = math.Max(result, f)
	}
	return data.Number(result), nil
}

// funcStringify implements JSON.stringify(value[, replacer[, space]]).
// Replacers are not supported.
func funcStringify(args []data.Value) (data.Value, error) {
	var v = arg(args, 0)
	switch v.(type) {
	case data.Undefined, *data.Func:
		return data.Undefined{}, nil
	}
	if !data.IsNullish(arg(args, 1)) {
		return nil, fmt.Errorf("replacer is not supported")
	}
	var str, err = data.JSON(v)
	if err != nil {
		return nil, err
	}
	var indent string
	switch space := arg(args, 2).(type) {
	case data.Int, data.Float:
		var n = int(math.Min(10, data.ToNumber(space)))
		if n > 0 {
			indent = strings.Repeat(" ", n)
		}
	case data.String:
		indent = string(space)
		if units := toUnits(indent); len(units) > 10 {
			indent = fromUnits(units[:10])
		}
	}
	if indent == "" {
		return data.String(str), nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(str), "", indent); err != nil {
		return nil, err
	}
	return data.String(buf.String()), nil
}

func funcString(args []data.Value) (data.Value, error) {
	if len(args) == 0 {
		return data.String(""), nil
	}
	return data.String(args[0].String()), nil
}

func funcNumber(args []data.Value) (data.Value, error) {
	if len(args) == 0 {
		return data.Int(0), nil
	}
	return data.Number(data.ToNumber(args[0])), nil
}

func funcBoolean(args []data.Value) (data.Value, error) {
	return data.Bool(arg(args, 0).Truthy()), nil
}

func funcIsNaN(args []data.Value) (data.Value, error) {
	return data.Bool(math.IsNaN(data.ToNumber(arg(args, 0)))), nil
}

func funcParseInt(args []data.Value) (data.Value, error) {
	var radix = data.ToNumber(arg(args, 1))
	if math.IsNaN(radix) || math.IsInf(radix, 0) {
		radix = 0
	}
	return data.Number(parseInt(arg(args, 0).String(), int(radix))), nil
}

// parseInt parses the longest prefix of s that is an integer in the given
// radix, after leading whitespace and an optional sign.  A radix of zero
// means 10, or 16 if s begins with 0x.
func parseInt(s string, radix int) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	var sign = 1.0
	if strings.HasPrefix(s, "-") {
		sign, s = -1, s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	var hexPrefix = strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
	switch {
	case radix == 0 && hexPrefix:
		radix, s = 16, s[2:]
	case radix == 0:
		radix = 10
	case radix == 16 && hexPrefix:
		s = s[2:]
	case radix < 2 || radix > 36:
		return math.NaN()
	}

	var result, digits = 0.0, 0
	for _, ch := range s {
		var d = digitValue(ch)
		if d >= radix {
			break
		}
		result = result*float64(radix) + float64(d)
		digits++
	}
	if digits == 0 {
		return math.NaN()
	}
	return sign * result
}

func digitValue(ch rune) int {
	switch {
	case '0' <= ch && ch <= '9':
		return int(ch - '0')
	case 'a' <= ch && ch <= 'z':
		return int(ch-'a') + 10
	case 'A' <= ch && ch <= 'Z':
		return int(ch-'A') + 10
	}
	return 36
}

var floatPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

func funcParseFloat(args []data.Value) (data.Value, error) {
	return data.Number(parseFloat(arg(args, 0).String())), nil
}

// parseFloat parses the longest prefix of s that is a decimal number.
func parseFloat(s string) float64 {
	var prefix = floatPrefix.FindString(strings.TrimLeftFunc(s, unicode.IsSpace))
	switch strings.TrimLeft(prefix, "+") {
	case "":
		return math.NaN()
	case "Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	// out of range values parse to ±Inf or 0, as they should
	var f, _ = strconv.ParseFloat(prefix, 64)
	return f
}
