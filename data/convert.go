package data

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	valueType = reflect.TypeOf((*Value)(nil)).Elem()
)

// Marshaler is implemented by types that convert themselves into a Value.
type Marshaler interface {
	MarshalValue() Value
}

// New converts the given data into a data value, using
// DefaultStructOptions for structs.
func New(value interface{}) Value {
	return NewWith(DefaultStructOptions, value)
}

// NewWith converts the given data value into a data value, using the provided
// StructOptions for any structs encountered.
func NewWith(convert StructOptions, value interface{}) Value {
	// quick return if we're passed an existing data.Value
	if val, ok := value.(Value); ok {
		return val
	}

	if value == nil {
		return Null{}
	}
	if m, ok := value.(Marshaler); ok {
		return m.MarshalValue()
	}

	// drill through pointers and interfaces to the underlying type
	var v = reflect.ValueOf(value)
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if !v.IsValid() {
		return Null{}
	}

	if v.Type() == timeType {
		return String(v.Interface().(time.Time).Format(convert.TimeFormat))
	}
	if v.Type() == reflect.TypeOf(time.Duration(0)) {
		return Int(v.Interface().(time.Duration).Milliseconds())
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(v.Float())
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.String:
		return String(v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return Null{}
		}
		slice := NewList(v.Len())
		for i := 0; i < v.Len(); i++ {
			slice = append(slice, NewWith(convert, v.Index(i).Interface()))
		}
		return slice
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			panic(fmt.Errorf("map keys must be strings, got %v", v.Type().Key()))
		}
		var m = make(Map, v.Len())
		for _, key := range v.MapKeys() {
			m[key.String()] = NewWith(convert, v.MapIndex(key).Interface())
		}
		return m
	case reflect.Struct:
		return convert.Data(v.Interface())
	case reflect.Func:
		return NewFunc(v)
	default:
		panic(fmt.Errorf("unexpected data type: %T (%v)", value, value))
	}
}

// DefaultStructOptions converts field names to lowerCamel and formats times
// as RFC 3339.
var DefaultStructOptions = StructOptions{
	LowerCamel: true,
	TimeFormat: time.RFC3339,
}

// StructOptions provides flexibility in conversion of structs to the
// data.Map format.
type StructOptions struct {
	LowerCamel bool   // if true, convert field names to lowerCamel.
	TimeFormat string // format string for time.Time. (if empty, use ISO-8601)
}

// Data converts the exported fields of obj into a Map.  A `json` tag on a
// field overrides its name; a tag of "-" skips the field.
func (c StructOptions) Data(obj interface{}) Map {
	var m = make(Map)
	var v = reflect.ValueOf(obj)
	var valType = v.Type()
	for i := 0; i < valType.NumField(); i++ {
		if !v.Field(i).CanInterface() {
			continue
		}
		var field = valType.Field(i)
		var key = field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			var name = strings.Split(tag, ",")[0]
			if name == "-" {
				continue
			}
			if name != "" {
				m[name] = NewWith(c, v.Field(i).Interface())
				continue
			}
		}
		if c.LowerCamel {
			var firstRune, size = utf8.DecodeRuneInString(key)
			key = string(unicode.ToLower(firstRune)) + key[size:]
		}
		m[key] = NewWith(c, v.Field(i).Interface())
	}
	return m
}

// NewFunc wraps a Go function so that it may be called from a template.
// Arguments are converted to the function's parameter types; the function may
// return one value, or a value and an error.
func NewFunc(fn reflect.Value) *Func {
	var typ = fn.Type()
	if typ.NumOut() > 2 || (typ.NumOut() == 2 && !typ.Out(1).Implements(errorType)) {
		panic(fmt.Errorf("unsupported function signature: %v", typ))
	}
	var name = typ.String()
	return &Func{
		Name: name,
		Apply: func(args []Value) (Value, error) {
			var in, err = funcArgs(typ, args)
			if err != nil {
				return nil, err
			}
			var out = fn.Call(in)
			if len(out) == 2 && !out[1].IsNil() {
				return nil, out[1].Interface().(error)
			}
			if len(out) == 0 {
				return Undefined{}, nil
			}
			return New(out[0].Interface()), nil
		},
	}
}

func funcArgs(typ reflect.Type, args []Value) ([]reflect.Value, error) {
	var numIn = typ.NumIn()
	if typ.IsVariadic() {
		if len(args) < numIn-1 {
			return nil, fmt.Errorf("expected at least %d arguments, got %d", numIn-1, len(args))
		}
	} else if len(args) > numIn {
		return nil, fmt.Errorf("expected %d arguments, got %d", numIn, len(args))
	}
	var in = make([]reflect.Value, 0, len(args))
	for i := 0; i < numIn; i++ {
		var paramType = typ.In(i)
		if typ.IsVariadic() && i == numIn-1 {
			for _, arg := range args[i:] {
				var v, err = goValue(arg, paramType.Elem())
				if err != nil {
					return nil, err
				}
				in = append(in, v)
			}
			break
		}
		var arg Value = Undefined{}
		if i < len(args) {
			arg = args[i]
		}
		var v, err = goValue(arg, paramType)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		in = append(in, v)
	}
	return in, nil
}

var errUnconvertible = errors.New("can not convert argument")

func goValue(arg Value, typ reflect.Type) (reflect.Value, error) {
	if typ == valueType {
		return reflect.ValueOf(&arg).Elem(), nil
	}
	var raw = ToGo(arg)
	if raw == nil {
		return reflect.Zero(typ), nil
	}
	var v = reflect.ValueOf(raw)
	if v.Type().AssignableTo(typ) {
		return v, nil
	}
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if IsNumber(arg) {
			return reflect.ValueOf(ToNumber(arg)).Convert(typ), nil
		}
	case reflect.String:
		return reflect.ValueOf(arg.String()).Convert(typ), nil
	case reflect.Bool:
		return reflect.ValueOf(arg.Truthy()).Convert(typ), nil
	}
	if v.Type().ConvertibleTo(typ) {
		return v.Convert(typ), nil
	}
	return reflect.Value{}, fmt.Errorf("%w %v to %v", errUnconvertible, arg, typ)
}
