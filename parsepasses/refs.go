// Package parsepasses contains analyses that run over parsed templates.
package parsepasses

import (
	"fmt"

	"github.com/glzr-io/zebar-sub000/ast"
	"github.com/glzr-io/zebar-sub000/errortypes"
)

// Ref is a variable read by a template.
type Ref struct {
	Name       string
	Pos        ast.Pos
	Expression string // source of the expression containing the reference
}

// FreeRefs returns the variables the template reads that are not bound by an
// enclosing @for, in document order.  A variable read several times is
// returned for each read.
func FreeRefs(tree *ast.ListNode) []Ref {
	var rc refChecker
	rc.visit(tree)
	return rc.refs
}

// Names returns the distinct names of the given refs, in order of first use.
func Names(refs []Ref) []string {
	var names []string
	for _, ref := range refs {
		if !contains(names, ref.Name) {
			names = append(names, ref.Name)
		}
	}
	return names
}

// CheckRefs validates that every variable the template reads is either bound
// by an enclosing @for or reported as defined.  The error for the first
// offending reference is an *errortypes.EvalError, as rendering would produce.
func CheckRefs(tree *ast.ListNode, defined func(name string) bool) error {
	for _, ref := range FreeRefs(tree) {
		if !defined(ref.Name) {
			return &errortypes.EvalError{
				Kind:       errortypes.ExpressionEvaluationError,
				Expression: ref.Expression,
				Offset:     int(ref.Pos),
				Err:        fmt.Errorf("%s is not defined", ref.Name),
			}
		}
	}
	return nil
}

type refChecker struct {
	bound []string // loop variables in scope
	expr  string
	refs  []Ref
}

func (rc *refChecker) visit(node ast.Node) {
	switch node := node.(type) {
	case nil:
		return
	case *ast.InterpolationNode:
		rc.expr = node.Expression
	case *ast.IfBranchNode:
		rc.expr = node.Expression
	case *ast.SwitchNode:
		rc.expr = node.Expression
	case *ast.SwitchBranchNode:
		rc.expr = node.Expression
	case *ast.ForNode:
		// the iterable is evaluated outside of the loop's scope
		rc.expr = node.Expression
		rc.visit(node.Iterable)
		var initialBound = len(rc.bound)
		rc.bound = append(rc.bound, node.Item)
		if node.Index != "" {
			rc.bound = append(rc.bound, node.Index)
		}
		rc.visit(node.Body)
		rc.bound = rc.bound[:initialBound]
		return
	case *ast.IdentNode:
		if !contains(rc.bound, node.Name) {
			rc.refs = append(rc.refs, Ref{node.Name, node.Pos, rc.expr})
		}
		return
	}
	if parent, ok := node.(ast.ParentNode); ok {
		rc.recurse(parent)
	}
}

func (rc *refChecker) recurse(parent ast.ParentNode) {
	for _, child := range parent.Children() {
		rc.visit(child)
	}
}

func contains(slice []string, item string) bool {
	for _, candidate := range slice {
		if candidate == item {
			return true
		}
	}
	return false
}
