package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	var path = filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runMain(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRenderExpression(t *testing.T) {
	var vars = writeFile(t, "vars.yaml", "cpu:\n  usage: 42.4\n")
	var globals = writeFile(t, "globals.txt", "unit = '%'\n")

	var code, stdout, stderr = runMain("-vars", vars, "-globals", globals, "-e", "CPU {{ Math.round(cpu.usage) }}{{ unit }}")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "CPU 42%\n", stdout)
}

func TestRenderConfig(t *testing.T) {
	var cfg = writeFile(t, "config.yaml", `
globals:
  greeting: hello
bars:
  main:
    class_name: bar
    template: '{{ greeting }}, {{ name }}'
`)
	var vars = writeFile(t, "vars.yaml", "name: world\n")

	var code, stdout, stderr = runMain("-config", cfg, "-vars", vars)
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "bars.main.template: hello, world\n", stdout)
}

func TestSyntaxErrorCaret(t *testing.T) {
	var code, stdout, stderr = runMain("-e", "ok\n@for (x) { }")
	require.Equal(t, 1, code)
	require.Empty(t, stdout)
	require.Contains(t, stderr, "@for (x) { }\n      ^\n")
}

func TestEvalErrorCaret(t *testing.T) {
	var code, _, stderr = runMain("-e", "{{ a.b }}")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "a is not defined")
	require.Contains(t, stderr, "{{ a.b }}\n   ^\n")
}

func TestConfigErrorCaret(t *testing.T) {
	var cfg = writeFile(t, "config.yaml", "bars:\n  main:\n    template: '{{ 1 + }}'\n")
	var code, _, stderr = runMain("-config", cfg)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "bars.main.template:1:7\n{{ 1 + }}\n      ^\n")
}

func TestConfigEvalErrorPosition(t *testing.T) {
	var cfg = writeFile(t, "config.yaml", "bars:\n  main:\n    template: \"ok\\n  {{ cpu.load }}\"\n")
	var code, _, stderr = runMain("-config", cfg)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "cpu is not defined")
	require.Contains(t, stderr, "bars.main.template:2:6\n  {{ cpu.load }}\n     ^\n")
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"-e", "x", "-config", "c.yaml"},
		{"-e", "x", "-watch"},
		{"-nope"},
	} {
		var code, _, stderr = runMain(args...)
		require.Equal(t, 2, code, "%v", args)
		require.Contains(t, stderr, "Usage:", "%v", args)
	}
}
