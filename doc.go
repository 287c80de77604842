/*
Package zebar renders the templates used to describe status bar widgets.

A template is plain text with embedded tags:

	CPU {{ cpu.usage.toFixed(0) }}%
	@if (battery?.isCharging) { charging } @else { {{ battery.chargePercent }}% }
	@for ((ws, i) of workspaces) { [{{ i }}:{{ ws.name }}] }
	@switch (weather.status) {
	  @case ('sunny') { ☀ }
	  @default { ☁ }
	}

Interpolations are written with {{ }}, and the control flow tags take a
parenthesized expression followed by a braced block.  Expressions use a
subset of JavaScript: literals, member access (including ?.), indexing,
calls, and the usual arithmetic, comparison and logical operators.  Only
the built-in functions (Math, JSON.stringify, parseInt, ...), the methods of
strings, numbers and lists, and functions passed in by the host are callable.

Usage example

Rendering a template against a map of provider data:

	out, err := zebar.Render("{{ cpu.usage }}%", map[string]any{
		"cpu": map[string]any{"usage": 12.5},
	})

Go structs are converted with their json tag names, or their field names
with the first letter lowercased.  For more control, create an engine:

	engine, _ := zebar.New(
		zebar.WithCacheSize(256),              // keep the 256 most recent templates
		zebar.WithGlobalsFile("globals.txt"), // name = expression, per line
		zebar.WithFuncs(map[string]any{"ago": timeAgo}),
	)
	out, err := engine.Render(source, vars)

Errors

Problems in the template text are reported as *errortypes.SyntaxError, with
the byte offset of the problem.  Problems found while rendering are reported
as *errortypes.EvalError, with the source of the failing expression.
errortypes.Caret formats either for display.

Advanced Usage

The zebar package provides a friendly interface to its sub-packages.  Tools
that inspect or rewrite templates will be better served by using
zebar/parse and zebar/render directly, and the zebar/config package loads
whole widget configurations.
*/
package zebar
