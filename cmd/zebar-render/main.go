// zebar-render renders status bar templates from the command line, either a
// single template or every template in a widget configuration.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	zebar "github.com/glzr-io/zebar-sub000"
	"github.com/glzr-io/zebar-sub000/config"
	"github.com/glzr-io/zebar-sub000/errortypes"
)

const usage = `zebar-render renders status bar templates.

Usage:

	zebar-render [flags] -e TEMPLATE
	zebar-render [flags] -config CONFIG.yaml [-watch]

With -e, the rendered template is written to STDOUT.  With -config, every
templated property is rendered and written as "path: output", one per line.

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var fs = flag.NewFlagSet("zebar-render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	var (
		source        = fs.String("e", "", "template to render")
		configPath    = fs.String("config", "", "widget configuration to render")
		varsPath      = fs.String("vars", "", "YAML file of provider variables")
		globalsPath   = fs.String("globals", "", "globals file, with one name = expression per line")
		maxIterations = fs.Int("max-iterations", 0, "limit on loop iterations per render (0 for none)")
		watch         = fs.Bool("watch", false, "re-render the configuration whenever it changes")
		verbose       = fs.Bool("v", false, "log debug output")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if (*source == "") == (*configPath == "") || *watch && *configPath == "" {
		fs.Usage()
		return 2
	}

	var level = slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	var logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	zebar.Logger, config.Logger = logger, logger

	var vars map[string]any
	if *varsPath != "" {
		var err error
		if vars, err = config.LoadVars(*varsPath); err != nil {
			return exit(stderr, err, "")
		}
	}
	var opts = []zebar.Option{zebar.WithMaxIterations(*maxIterations)}
	if *globalsPath != "" {
		opts = append(opts, zebar.WithGlobalsFile(*globalsPath))
	}

	if *source != "" {
		var engine, err = zebar.New(opts...)
		if err != nil {
			return exit(stderr, err, "")
		}
		out, err := engine.Render(*source, vars)
		if err != nil {
			return exit(stderr, err, *source)
		}
		fmt.Fprintln(stdout, out)
		return 0
	}

	var cfg, err = config.Load(*configPath, opts...)
	if err == nil {
		err = renderConfig(stdout, cfg, vars)
	}
	if err != nil {
		return exit(stderr, err, "")
	}
	if !*watch {
		return 0
	}

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = config.Watch(ctx, *configPath, func(cfg *config.Config, err error) {
		if err == nil {
			err = renderConfig(stdout, cfg, vars)
		}
		if err != nil {
			report(stderr, err, "")
		}
	}, opts...)
	if err != nil {
		return exit(stderr, err, "")
	}
	return 0
}

func renderConfig(w io.Writer, cfg *config.Config, vars map[string]any) error {
	var outputs, err = cfg.RenderAll(vars)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, config.String(outputs))
	return err
}

// report prints the error, followed by the position of the problem and the
// offending line of the template with a caret under it, when they are known.
func report(w io.Writer, err error, source string) {
	fmt.Fprintln(w, err)
	var propErr *config.PropertyError
	if errors.As(err, &propErr) {
		source = propErr.Source
	}
	if pos := errortypes.ToErrFilePos(err); pos != nil && pos.File() != "" && pos.Line() > 0 {
		fmt.Fprintf(w, "%s:%d:%d\n", pos.File(), pos.Line(), pos.Col())
	}
	if offset, ok := errortypes.Offset(err); ok && source != "" {
		fmt.Fprintln(w, errortypes.Caret(source, offset))
	}
}

func exit(w io.Writer, err error, source string) int {
	report(w, err, source)
	return 1
}
