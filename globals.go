package zebar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/glzr-io/zebar-sub000/data"
	"github.com/glzr-io/zebar-sub000/parse"
	"github.com/glzr-io/zebar-sub000/render"
)

// ParseGlobals parses the given input, expecting the form:
//
//	<global_name> = <expression>
//
// Furthermore:
//   - Empty lines and lines beginning with '//' are ignored.
//   - An expression may refer to globals defined on earlier lines, and to the
//     built-in functions.
func ParseGlobals(input io.Reader) (data.Map, error) {
	var globals = make(data.Map)
	var scanner = bufio.NewScanner(input)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		var line = strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "//") {
			continue
		}
		var eq = strings.Index(line, "=")
		if eq == -1 {
			return nil, fmt.Errorf("line %d: no equals on line: %q", lineNum, line)
		}
		var (
			name = strings.TrimSpace(line[:eq])
			expr = strings.TrimSpace(line[eq+1:])
		)
		if _, ok := globals[name]; ok {
			return nil, fmt.Errorf("line %d: global %s is already defined", lineNum, name)
		}
		var node, err = parse.Expr(expr)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		exprValue, err := render.EvalExpr(node, globals)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		globals[name] = exprValue
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return globals, nil
}

// WithGlobalsFile parses the named globals file and adds its values to the
// engine's globals.
func WithGlobalsFile(filename string) Option {
	return func(e *Engine) error {
		var f, err = os.Open(filename)
		if err != nil {
			return err
		}
		defer f.Close()
		globals, err := ParseGlobals(f)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		for k, v := range globals {
			if err := e.addGlobal(k, v); err != nil {
				return err
			}
		}
		return nil
	}
}
