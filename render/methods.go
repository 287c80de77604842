package render

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/glzr-io/zebar-sub000/data"
)

// method is a function called with a receiver, such as "abc".toUpperCase().
type method func(s *state, recv data.Value, args []data.Value) (data.Value, error)

// bind returns the method as a function value with its receiver fixed.
func (s *state) bind(name string, recv data.Value, m method) *data.Func {
	return &data.Func{
		Name: name,
		Apply: func(args []data.Value) (data.Value, error) {
			return m(s, recv, args)
		},
	}
}

var stringMethods = map[string]method{
	"toString":    valueToString,
	"toUpperCase": stringFunc(strings.ToUpper),
	"toLowerCase": stringFunc(strings.ToLower),
	"trim":        stringFunc(func(s string) string { return strings.TrimFunc(s, unicode.IsSpace) }),
	"trimStart":   stringFunc(func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
	"trimEnd":     stringFunc(func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
	"includes":    stringTest(strings.Contains),
	"startsWith":  stringTest(strings.HasPrefix),
	"endsWith":    stringTest(strings.HasSuffix),
	"padStart":    stringPad(true),
	"padEnd":      stringPad(false),
	"slice":       stringSlice,
	"split":       stringSplit,
	"indexOf":     stringIndexOf,
	"replace":     stringReplace(1),
	"replaceAll":  stringReplace(-1),
	"charAt":      stringCharAt,
}

var numberMethods = map[string]method{
	"toString":       numberToString,
	"toFixed":        numberToFixed,
	"toLocaleString": numberToLocaleString,
}

var listMethods = map[string]method{
	"toString": valueToString,
	"join":     listJoin,
	"includes": listIncludes,
	"indexOf":  listIndexOf,
	"slice":    listSlice,
}

func valueToString(_ *state, recv data.Value, _ []data.Value) (data.Value, error) {
	return data.String(recv.String()), nil
}

// Strings ----------

func stringFunc(fn func(string) string) method {
	return func(_ *state, recv data.Value, _ []data.Value) (data.Value, error) {
		return data.String(fn(recv.String())), nil
	}
}

func stringTest(fn func(s, substr string) bool) method {
	return func(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
		return data.Bool(fn(recv.String(), arg(args, 0).String())), nil
	}
}

// toUnits and fromUnits convert between strings and the UTF-16 code units
// that string lengths and positions are measured in.
func toUnits(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func fromUnits(units []uint16) string {
	return string(utf16.Decode(units))
}

// relativeIndex resolves a slice bound, counting negative positions from the
// end and clamping to [0, length].
func relativeIndex(v data.Value, length, def int) int {
	if _, ok := v.(data.Undefined); ok {
		return def
	}
	var f = math.Trunc(data.ToNumber(v))
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return int(math.Max(0, float64(length)+f))
	}
	return int(math.Min(f, float64(length)))
}

func stringSlice(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var units = toUnits(recv.String())
	var start = relativeIndex(arg(args, 0), len(units), 0)
	var end = relativeIndex(arg(args, 1), len(units), len(units))
	if start >= end {
		return data.String(""), nil
	}
	return data.String(fromUnits(units[start:end])), nil
}

// maxStringLength is the longest string, in UTF-16 code units, that a
// template may build.
const maxStringLength = 1<<29 - 24

func stringPad(atStart bool) method {
	return func(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
		var str = recv.String()
		var length = len(toUnits(str))
		var target = data.ToNumber(arg(args, 0))
		var fill = " "
		if f, ok := arg(args, 1).(data.String); ok {
			fill = string(f)
		} else if !data.IsNullish(arg(args, 1)) {
			fill = arg(args, 1).String()
		}
		var fillUnits = toUnits(fill)
		if math.IsNaN(target) || target <= float64(length) || len(fillUnits) == 0 {
			return recv, nil
		}
		if target > maxStringLength {
			return nil, fmt.Errorf("invalid string length %v", data.FormatFloat(target))
		}
		var need = int(target) - length
		var padding = strings.Repeat(fill, need/len(fillUnits)) + fromUnits(fillUnits[:need%len(fillUnits)])
		if atStart {
			return data.String(padding + str), nil
		}
		return data.String(str + padding), nil
	}
}

func stringSplit(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var str = recv.String()
	var limit = math.MaxInt32
	if l := arg(args, 1); !data.IsNullish(l) {
		limit = int(data.ToNumber(l))
	}
	var parts []string
	switch sep := arg(args, 0).(type) {
	case data.Undefined:
		parts = []string{str}
	default:
		if sep.String() == "" {
			for _, unit := range toUnits(str) {
				parts = append(parts, fromUnits([]uint16{unit}))
			}
		} else {
			parts = strings.Split(str, sep.String())
		}
	}
	var result = data.NewList(len(parts))
	for _, part := range parts {
		if len(result) >= limit {
			break
		}
		result = append(result, data.String(part))
	}
	return result, nil
}

func stringIndexOf(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var units, search = toUnits(recv.String()), toUnits(arg(args, 0).String())
	var from = relativeIndex(arg(args, 1), len(units), 0)
	if f := data.ToNumber(arg(args, 1)); f < 0 {
		from = 0
	}
	for i := from; i+len(search) <= len(units); i++ {
		if unitsEqual(units[i:i+len(search)], search) {
			return data.Int(i), nil
		}
	}
	return data.Int(-1), nil
}

func unitsEqual(a, b []uint16) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// stringReplace replaces the first n occurrences of a string pattern, or all
// of them if n < 0.  The replacement is inserted literally; regular
// expressions and replacement functions are not supported.
func stringReplace(n int) method {
	return func(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
		var pattern, ok = arg(args, 0).(data.String)
		if !ok {
			return nil, fmt.Errorf("pattern must be a string, got %v", describe(arg(args, 0)))
		}
		return data.String(strings.Replace(recv.String(), string(pattern), arg(args, 1).String(), n)), nil
	}
}

func stringCharAt(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var units = toUnits(recv.String())
	var i = int(math.Trunc(data.ToNumber(arg(args, 0))))
	if math.IsNaN(data.ToNumber(arg(args, 0))) {
		i = 0
	}
	if i < 0 || i >= len(units) {
		return data.String(""), nil
	}
	return data.String(fromUnits(units[i : i+1])), nil
}

// Numbers ----------

func numberToString(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var radix = 10
	if r := arg(args, 0); !data.IsNullish(r) {
		radix = int(data.ToNumber(r))
	}
	if radix < 2 || radix > 36 {
		return nil, fmt.Errorf("toString() radix must be between 2 and 36")
	}
	var f = data.ToNumber(recv)
	if radix == 10 || math.IsNaN(f) || math.IsInf(f, 0) {
		return data.String(data.FormatFloat(f)), nil
	}
	if f != math.Trunc(f) || math.Abs(f) >= 1<<53 {
		return nil, fmt.Errorf("toString(%d) of a fractional number is not supported", radix)
	}
	return data.String(strconv.FormatInt(int64(f), radix)), nil
}

// numberToFixed formats the number with a fixed number of decimals.  Ties
// round away from zero, based on the exact binary value of the number.
func numberToFixed(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var digits = 0
	if d := arg(args, 0); !data.IsNullish(d) {
		digits = int(data.ToNumber(d))
	}
	if digits < 0 || digits > 100 {
		return nil, fmt.Errorf("toFixed() digits argument must be between 0 and 100")
	}
	var f = data.ToNumber(recv)
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1e21 {
		return data.String(data.FormatFloat(f)), nil
	}
	return data.String(toFixed(f, digits)), nil
}

func toFixed(f float64, digits int) string {
	var sign = ""
	if f < 0 {
		sign, f = "-", -f
	}

	// n = floor(f * 10^digits + 1/2), computed exactly
	var x = new(big.Rat).SetFloat64(f)
	x.Mul(x, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)))
	x.Add(x, big.NewRat(1, 2))
	var n = new(big.Int).Quo(x.Num(), x.Denom())

	var str = n.String()
	if digits == 0 {
		return sign + str
	}
	if len(str) <= digits {
		str = strings.Repeat("0", digits-len(str)+1) + str
	}
	return sign + str[:len(str)-digits] + "." + str[len(str)-digits:]
}

// numberToLocaleString formats the number for display in the given locale,
// or the renderer's locale if none is given.  The minimumFractionDigits and
// maximumFractionDigits options are supported.
func numberToLocaleString(s *state, recv data.Value, args []data.Value) (data.Value, error) {
	var tag = s.locale
	if l, ok := arg(args, 0).(data.String); ok {
		var parsed, err = language.Parse(string(l))
		if err != nil {
			return nil, fmt.Errorf("incorrect locale information provided: %q", string(l))
		}
		tag = parsed
	}

	var minDigits, maxDigits = 0, 3
	if opts, ok := arg(args, 1).(data.Map); ok {
		if v, ok := opts["minimumFractionDigits"]; ok {
			minDigits = int(data.ToNumber(v))
			if maxDigits < minDigits {
				maxDigits = minDigits
			}
		}
		if v, ok := opts["maximumFractionDigits"]; ok {
			maxDigits = int(data.ToNumber(v))
		}
		if minDigits < 0 || maxDigits > 20 || minDigits > maxDigits {
			return nil, fmt.Errorf("fraction digits out of range")
		}
	}

	var f = data.ToNumber(recv)
	switch {
	case math.IsNaN(f):
		return data.String("NaN"), nil
	case math.IsInf(f, 1):
		return data.String("∞"), nil
	case math.IsInf(f, -1):
		return data.String("-∞"), nil
	}
	var p = message.NewPrinter(tag)
	return data.String(p.Sprint(number.Decimal(f,
		number.MinFractionDigits(minDigits),
		number.MaxFractionDigits(maxDigits)))), nil
}

// Lists ----------

func listJoin(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var sep = ","
	if s := arg(args, 0); !data.IsNullish(s) {
		sep = s.String()
	}
	var list = recv.(data.List)
	var items = make([]string, len(list))
	for i, item := range list {
		if !data.IsNullish(item) {
			items[i] = item.String()
		}
	}
	return data.String(strings.Join(items, sep)), nil
}

// listIncludes is like indexOf, but finds NaN.
func listIncludes(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var search = arg(args, 0)
	for _, item := range recv.(data.List) {
		if item.Equals(search) || isNaN(item) && isNaN(search) {
			return data.Bool(true), nil
		}
	}
	return data.Bool(false), nil
}

func listIndexOf(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var search = arg(args, 0)
	for i, item := range recv.(data.List) {
		if item.Equals(search) {
			return data.Int(i), nil
		}
	}
	return data.Int(-1), nil
}

func listSlice(_ *state, recv data.Value, args []data.Value) (data.Value, error) {
	var list = recv.(data.List)
	var start = relativeIndex(arg(args, 0), len(list), 0)
	var end = relativeIndex(arg(args, 1), len(list), len(list))
	if start >= end {
		return data.NewList(0), nil
	}
	return append(data.NewList(end-start), list[start:end]...), nil
}

func isNaN(v data.Value) bool {
	var f, ok = v.(data.Float)
	return ok && math.IsNaN(float64(f))
}
