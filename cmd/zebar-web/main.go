/*
zebar-web is a simple development server that renders the given template.

Invoke it like so:

	zebar-web [-port 9812] [-vars vars.yaml] widget.tmpl

Every request re-reads the template and renders it as plain text, so edits
show up on reload.  Parameters may be provided to the template in the URL
query string; they take precedence over the variables file.
*/
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	zebar "github.com/glzr-io/zebar-sub000"
	"github.com/glzr-io/zebar-sub000/config"
	"github.com/glzr-io/zebar-sub000/errortypes"
)

var (
	port     = flag.Int("port", 9812, "port on which to listen")
	varsPath = flag.String("vars", "", "YAML file of provider variables")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: zebar-web [flags] TEMPLATE")
		os.Exit(2)
	}

	var vars map[string]any
	if *varsPath != "" {
		var err error
		if vars, err = config.LoadVars(*varsPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	var engine, err = zebar.New(zebar.WithoutCache(), zebar.WithMaxIterations(100000))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	slog.Info("listening", "port", *port, "template", flag.Arg(0))
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), handler(engine, flag.Arg(0), vars)); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func handler(engine *zebar.Engine, filename string, vars map[string]any) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		var source, err = os.ReadFile(filename)
		if err != nil {
			http.Error(res, err.Error(), 500)
			return
		}

		var m = make(map[string]any, len(vars))
		for k, v := range vars {
			m[k] = v
		}
		for k, v := range req.URL.Query() {
			m[k] = v[0]
		}

		out, err := engine.Render(string(source), m)
		if err != nil {
			var msg = err.Error()
			if offset, ok := errortypes.Offset(err); ok {
				msg += "\n" + errortypes.Caret(string(source), offset)
			}
			http.Error(res, msg, 500)
			return
		}

		res.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.Copy(res, bytes.NewBufferString(out))
	}
}
