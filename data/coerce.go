package data

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// IsNumber reports whether v is an Int or a Float.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

// IsNullish reports whether v is null or undefined.
func IsNullish(v Value) bool {
	switch v.(type) {
	case nil, Undefined, Null:
		return true
	}
	return false
}

// ToNumber converts v to a float64 using the usual numeric coercion rules:
// null is 0, booleans are 0 or 1, strings are parsed (blank is 0), and
// anything unparseable is NaN.
func ToNumber(v Value) float64 {
	switch v := v.(type) {
	case Int:
		return float64(v)
	case Float:
		return float64(v)
	case Bool:
		if v {
			return 1
		}
		return 0
	case Null:
		return 0
	case String:
		return parseNumber(string(v))
	case List:
		switch len(v) {
		case 0:
			return 0
		case 1:
			return ToNumber(String(v.String()))
		}
	}
	return math.NaN()
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0
	case s == "Infinity", s == "+Infinity":
		return math.Inf(1)
	case s == "-Infinity":
		return math.Inf(-1)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		if n, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	// strconv accepts forms such as "inf", "nan" and "1_000" which are not numbers here.
	for _, ch := range s {
		if !strings.ContainsRune("0123456789+-.eE", ch) {
			return math.NaN()
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return math.NaN()
}

// Number returns the most specific numeric value for f: an Int if f is
// integral and fits, otherwise a Float.
func Number(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 && !(f == 0 && math.Signbit(f)) {
		return Int(int64(f))
	}
	return Float(f)
}

// LooseEquals implements the == operator: null and undefined are equal to
// each other, and mixed primitive comparisons are made numerically.
func LooseEquals(a, b Value) bool {
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	switch a.(type) {
	case List, Map, *Func:
		switch b.(type) {
		case List, Map, *Func:
			return a.Equals(b)
		}
		return LooseEquals(String(a.String()), b)
	}
	switch b.(type) {
	case List, Map, *Func:
		return LooseEquals(a, String(b.String()))
	}
	var _, aStr = a.(String)
	var _, bStr = b.(String)
	if aStr && bStr {
		return a.Equals(b)
	}
	if _, ok := a.(Bool); ok {
		if _, ok := b.(Bool); ok {
			return a.Equals(b)
		}
	}
	return ToNumber(a) == ToNumber(b)
}

// ToGo converts v back into plain Go values: nil, bool, int64, float64,
// string, []interface{} and map[string]interface{}.
func ToGo(v Value) interface{} {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case List:
		var items = make([]interface{}, len(v))
		for i, item := range v {
			items[i] = ToGo(item)
		}
		return items
	case Map:
		var m = make(map[string]interface{}, len(v))
		for k, item := range v {
			if _, ok := item.(Undefined); ok {
				continue
			}
			m[k] = ToGo(item)
		}
		return m
	}
	return nil
}

// JSON serializes v.  Map keys are emitted in sorted order; functions and
// undefined values inside maps are omitted.
func JSON(v Value) (string, error) {
	switch v := v.(type) {
	case Undefined, *Func:
		return "undefined", nil
	case Float:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return "null", nil
		}
	}
	var buf bytes.Buffer
	var enc = json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toJSON(v)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func toJSON(v Value) interface{} {
	switch v := v.(type) {
	case Float:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil
		}
		return json.Number(v.String())
	case Int:
		return json.Number(v.String())
	case List:
		var items = make([]interface{}, len(v))
		for i, item := range v {
			items[i] = toJSON(item)
		}
		return items
	case Map:
		var m = make(map[string]interface{}, len(v))
		for k, item := range v {
			switch item.(type) {
			case Undefined, *Func:
				continue
			}
			m[k] = toJSON(item)
		}
		return m
	}
	return ToGo(v)
}
