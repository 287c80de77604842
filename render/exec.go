package render

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/language"

	"github.com/glzr-io/zebar-sub000/ast"
	"github.com/glzr-io/zebar-sub000/data"
	"github.com/glzr-io/zebar-sub000/errortypes"
)

// state represents the state of an execution.
type state struct {
	wr            io.Writer
	node          ast.Node     // current node, for errors
	expr          string       // source of the expression being evaluated, for errors
	val           data.Value   // temp value for expression being computed
	context       scope        // variable scope
	globals       data.Map     // values shared by every render
	locale        language.Tag // locale for toLocaleString
	iterations    int          // loop iterations performed so far
	maxIterations int
}

// at marks the state to be on node n, for error reporting.
func (s *state) at(node ast.Node) {
	s.node = node
}

// errorf formats the error and terminates processing.
func (s *state) errorf(format string, args ...interface{}) {
	var offset int
	if s.node != nil {
		offset = int(s.node.Position())
	}
	panic(&errortypes.EvalError{
		Kind:       errortypes.ExpressionEvaluationError,
		Expression: s.expr,
		Offset:     offset,
		Err:        fmt.Errorf(format, args...),
	})
}

// errRecover is the handler that turns panics into returns from the top
// level of Execute.
func (s *state) errRecover(errp *error) {
	if e := recover(); e != nil {
		switch e := e.(type) {
		case runtime.Error:
			panic(e)
		case *errortypes.EvalError:
			*errp = e
		case writeError:
			*errp = e.err
		default:
			panic(e)
		}
	}
}

// writeError wraps a failure of the output writer.
type writeError struct {
	err error
}

func (s *state) write(str string) {
	if _, err := io.WriteString(s.wr, str); err != nil {
		panic(writeError{err})
	}
}

// walk recursively goes through each node and executes the indicated logic and
// writes the output
func (s *state) walk(node ast.Node) {
	s.val = data.Undefined{}
	s.at(node)
	switch node := node.(type) {
	case *ast.ListNode:
		for _, node := range node.Nodes {
			s.walk(node)
		}

		// Output nodes ----------
	case *ast.TextNode:
		s.write(node.Text)
	case *ast.InterpolationNode:
		s.write(s.evalSource(node.Expression, node.Expr).String())

		// Control flow ----------
	case *ast.IfNode:
		for _, branch := range node.Branches {
			if branch.Cond == nil || s.evalSource(branch.Expression, branch.Cond).Truthy() {
				s.walk(branch.Body)
				break
			}
		}
	case *ast.ForNode:
		var iterable = s.evalSource(node.Expression, node.Iterable)
		s.at(node.Iterable)
		var items = s.iterate(iterable)
		for i, item := range items {
			s.tick()
			s.context.push()
			s.context.set(node.Item, item)
			if node.Index != "" {
				s.context.set(node.Index, data.Int(i))
			}
			s.walk(node.Body)
			s.context.pop()
		}
	case *ast.SwitchNode:
		var switchValue = s.evalSource(node.Expression, node.Value)
		for _, branch := range node.Branches {
			if branch.Kind == ast.DefaultBranch ||
				switchValue.Equals(s.evalSource(branch.Expression, branch.Value)) {
				s.walk(branch.Body)
				return
			}
		}

		// Values ----------
	case *ast.NullNode:
		s.val = data.Null{}
	case *ast.UndefinedNode:
		s.val = data.Undefined{}
	case *ast.BoolNode:
		s.val = data.Bool(node.True)
	case *ast.IntNode:
		s.val = data.Int(node.Value)
	case *ast.FloatNode:
		s.val = data.Float(node.Value)
	case *ast.StringNode:
		s.val = data.String(node.Value)
	case *ast.ListLiteralNode:
		var items = data.NewList(len(node.Items))
		for _, item := range node.Items {
			items = append(items, s.eval(item))
		}
		s.val = items
	case *ast.MapLiteralNode:
		var items = make(data.Map, len(node.Keys))
		for i, k := range node.Keys {
			items[k] = s.eval(node.Values[i])
		}
		s.val = items
	case *ast.IdentNode:
		s.val = s.lookup(node)
	case *ast.MemberNode, *ast.IndexNode, *ast.CallNode:
		s.val, _ = s.evalChain(node)

		// Arithmetic operators ----------
	case *ast.NegateNode:
		s.val = data.Number(-data.ToNumber(s.eval(node.Arg)))
	case *ast.PlusNode:
		s.val = data.Number(data.ToNumber(s.eval(node.Arg)))
	case *ast.AddNode:
		s.val = add(s.eval(node.Arg1), s.eval(node.Arg2))
	case *ast.SubNode:
		var arg1, arg2 = s.eval2num(node.Arg1, node.Arg2)
		s.val = data.Number(arg1 - arg2)
	case *ast.MulNode:
		var arg1, arg2 = s.eval2num(node.Arg1, node.Arg2)
		s.val = data.Number(arg1 * arg2)
	case *ast.DivNode:
		var arg1, arg2 = s.eval2num(node.Arg1, node.Arg2)
		s.val = data.Number(arg1 / arg2)
	case *ast.ModNode:
		var arg1, arg2 = s.eval2num(node.Arg1, node.Arg2)
		s.val = data.Number(math.Mod(arg1, arg2))

		// Comparisons ----------
	case *ast.EqNode:
		s.val = data.Bool(data.LooseEquals(s.eval(node.Arg1), s.eval(node.Arg2)))
	case *ast.NotEqNode:
		s.val = data.Bool(!data.LooseEquals(s.eval(node.Arg1), s.eval(node.Arg2)))
	case *ast.StrictEqNode:
		s.val = data.Bool(s.eval(node.Arg1).Equals(s.eval(node.Arg2)))
	case *ast.StrictNotEqNode:
		s.val = data.Bool(!s.eval(node.Arg1).Equals(s.eval(node.Arg2)))
	case *ast.LtNode:
		s.val = compare(s.eval(node.Arg1), s.eval(node.Arg2), func(c int) bool { return c < 0 })
	case *ast.LteNode:
		s.val = compare(s.eval(node.Arg1), s.eval(node.Arg2), func(c int) bool { return c <= 0 })
	case *ast.GtNode:
		s.val = compare(s.eval(node.Arg1), s.eval(node.Arg2), func(c int) bool { return c > 0 })
	case *ast.GteNode:
		s.val = compare(s.eval(node.Arg1), s.eval(node.Arg2), func(c int) bool { return c >= 0 })

		// Logical operators ----------
	case *ast.NotNode:
		s.val = data.Bool(!s.eval(node.Arg).Truthy())
	case *ast.AndNode:
		if arg1 := s.eval(node.Arg1); !arg1.Truthy() {
			s.val = arg1
		} else {
			s.val = s.eval(node.Arg2)
		}
	case *ast.OrNode:
		if arg1 := s.eval(node.Arg1); arg1.Truthy() {
			s.val = arg1
		} else {
			s.val = s.eval(node.Arg2)
		}
	case *ast.NullishNode:
		if arg1 := s.eval(node.Arg1); !data.IsNullish(arg1) {
			s.val = arg1
		} else {
			s.val = s.eval(node.Arg2)
		}
	case *ast.TernNode:
		if s.eval(node.Arg1).Truthy() {
			s.val = s.eval(node.Arg2)
		} else {
			s.val = s.eval(node.Arg3)
		}

	default:
		s.errorf("unknown node: %T", node)
	}
}

// tick counts a loop iteration against the limit.
func (s *state) tick() {
	s.iterations++
	if s.maxIterations > 0 && s.iterations > s.maxIterations {
		s.errorf("exceeded the limit of %d loop iterations", s.maxIterations)
	}
}

// iterate returns the elements a @for loop visits: the items of a list, the
// values of a map in key order, or the characters of a string.
func (s *state) iterate(v data.Value) []data.Value {
	switch v := v.(type) {
	case data.List:
		return v
	case data.Map:
		var items = make([]data.Value, 0, len(v))
		for _, k := range v.Keys() {
			items = append(items, v[k])
		}
		return items
	case data.String:
		var items []data.Value
		for _, ch := range string(v) {
			items = append(items, data.String(string(ch)))
		}
		return items
	}
	s.errorf("%v is not iterable", describe(v))
	panic("unreachable")
}

// lookup resolves an identifier: loop variables and render variables first,
// then globals, then the built-ins.
func (s *state) lookup(node *ast.IdentNode) data.Value {
	if val, ok := s.context.lookup(node.Name); ok {
		return val
	}
	if val, ok := s.globals[node.Name]; ok {
		return val
	}
	if val, ok := builtins[node.Name]; ok {
		return val
	}
	s.errorf("%s is not defined", node.Name)
	panic("unreachable")
}

// evalChain evaluates a member access, index expression or call.  When an
// optional link finds null or undefined, the rest of the chain is skipped
// and the whole chain evaluates to undefined.
func (s *state) evalChain(node ast.Node) (val data.Value, short bool) {
	switch node := node.(type) {
	case *ast.MemberNode:
		var obj, short = s.evalChain(node.Obj)
		if short || node.Optional && data.IsNullish(obj) {
			return data.Undefined{}, true
		}
		s.at(node)
		return s.member(obj, node.Name), false
	case *ast.IndexNode:
		var obj, short = s.evalChain(node.Obj)
		if short || node.Optional && data.IsNullish(obj) {
			return data.Undefined{}, true
		}
		var key = s.eval(node.Index)
		s.at(node)
		return s.index(obj, key), false
	case *ast.CallNode:
		var fn, short = s.evalChain(node.Func)
		if short || node.Optional && data.IsNullish(fn) {
			return data.Undefined{}, true
		}
		var args = make([]data.Value, len(node.Args))
		for i, arg := range node.Args {
			args[i] = s.eval(arg)
		}
		s.at(node)
		return s.call(node.Func, fn, args), false
	}
	return s.eval(node), false
}

// member returns the named property of obj.
func (s *state) member(obj data.Value, name string) data.Value {
	switch obj := obj.(type) {
	case data.Undefined, data.Null:
		s.errorf("cannot read properties of %v (reading '%s')", obj, name)
	case data.Map:
		return obj.Key(name)
	case data.List:
		if name == "length" {
			return data.Int(len(obj))
		}
		if m, ok := listMethods[name]; ok {
			return s.bind(name, obj, m)
		}
	case data.String:
		if name == "length" {
			return data.Int(len(utf16.Encode([]rune(string(obj)))))
		}
		if m, ok := stringMethods[name]; ok {
			return s.bind(name, obj, m)
		}
	case data.Int, data.Float:
		if m, ok := numberMethods[name]; ok {
			return s.bind(name, obj, m)
		}
	case data.Bool:
		if name == "toString" {
			return s.bind(name, obj, valueToString)
		}
	case *data.Func:
		if name == "name" {
			return data.String(obj.Name)
		}
	}
	return data.Undefined{}
}

// index returns obj[key].  Lists and strings are indexed by position; any
// other key is converted to a property name.
func (s *state) index(obj, key data.Value) data.Value {
	switch obj := obj.(type) {
	case data.Undefined, data.Null:
		s.errorf("cannot read properties of %v (reading '%s')", obj, key)
	case data.List:
		if i, ok := arrayIndex(key); ok {
			return obj.Index(i)
		}
	case data.String:
		if i, ok := arrayIndex(key); ok {
			var units = utf16.Encode([]rune(string(obj)))
			if i >= len(units) {
				return data.Undefined{}
			}
			return data.String(utf16.Decode(units[i : i+1]))
		}
	}
	return s.member(obj, key.String())
}

// arrayIndex returns the non-negative integer that key denotes, if any.
func arrayIndex(key data.Value) (int, bool) {
	switch key := key.(type) {
	case data.Int:
		return int(key), key >= 0
	case data.Float:
		var f = float64(key)
		return int(f), f >= 0 && f == math.Trunc(f) && f < math.MaxInt32
	case data.String:
		var i, err = strconv.Atoi(string(key))
		return i, err == nil && i >= 0 && strconv.Itoa(i) == string(key)
	}
	return 0, false
}

// call invokes fn with the given arguments.  callee is the expression that
// produced fn, used in error messages.
func (s *state) call(callee ast.Node, fn data.Value, args []data.Value) (result data.Value) {
	var f, ok = fn.(*data.Func)
	if !ok {
		s.errorf("%v is not a function", callee)
	}
	defer func() {
		if err := recover(); err != nil {
			if _, ok := err.(*errortypes.EvalError); ok {
				panic(err)
			}
			s.errorf("panic in %v: %v", callee, err)
		}
	}()
	result, err := f.Apply(args)
	if err != nil {
		s.errorf("%v: %w", callee, err)
	}
	if result == nil {
		return data.Undefined{}
	}
	return result
}

// evalSource evaluates an expression, recording its source for errors.
func (s *state) evalSource(source string, n ast.Node) data.Value {
	s.expr = source
	return s.eval(n)
}

func (s *state) eval(n ast.Node) data.Value {
	var prev = s.node
	s.walk(n)
	s.node = prev
	return s.val
}

// eval2num is a helper for arithmetic operators.  It evaluates the two given
// nodes and converts each result to a number.
func (s *state) eval2num(n1, n2 ast.Node) (float64, float64) {
	return data.ToNumber(s.eval(n1)), data.ToNumber(s.eval(n2))
}

// toPrimitive converts lists, maps and functions to their string form, as
// they are when used as operands.
func toPrimitive(v data.Value) data.Value {
	switch v.(type) {
	case data.List, data.Map, *data.Func:
		return data.String(v.String())
	}
	return v
}

// add concatenates if either operand is a string, and adds numerically
// otherwise.
func add(a, b data.Value) data.Value {
	a, b = toPrimitive(a), toPrimitive(b)
	var _, aStr = a.(data.String)
	var _, bStr = b.(data.String)
	if aStr || bStr {
		return data.String(a.String() + b.String())
	}
	return data.Number(data.ToNumber(a) + data.ToNumber(b))
}

// compare orders two values, comparing strings lexically and everything else
// numerically.  Comparisons involving NaN are always false.
func compare(a, b data.Value, test func(int) bool) data.Bool {
	a, b = toPrimitive(a), toPrimitive(b)
	if as, ok := a.(data.String); ok {
		if bs, ok := b.(data.String); ok {
			return data.Bool(test(strings.Compare(string(as), string(bs))))
		}
	}
	var x, y = data.ToNumber(a), data.ToNumber(b)
	switch {
	case math.IsNaN(x), math.IsNaN(y):
		return false
	case x < y:
		return data.Bool(test(-1))
	case x > y:
		return data.Bool(test(1))
	}
	return data.Bool(test(0))
}

// describe formats a value for an error message.
func describe(v data.Value) string {
	switch v := v.(type) {
	case data.String:
		return strconv.Quote(string(v))
	case data.Map:
		return "object"
	case nil:
		return "undefined"
	}
	return v.String()
}

