package main

import (
	"fmt"
	"os"

	"github.com/jeremymatt/photo-manager/cmd/tagq/ast"
	"github.com/jeremymatt/photo-manager/cmd/tagq/check"
	"github.com/jeremymatt/photo-manager/cmd/tagq/load"
	"github.com/jeremymatt/photo-manager/cmd/tagq/query"
	"github.com/jeremymatt/photo-manager/cmd/tagq/repl"
	"github.com/jeremymatt/photo-manager/cmd/tagq/root"
	"github.com/jeremymatt/photo-manager/cmd/tagq/serve"
	"github.com/jeremymatt/photo-manager/cmd/tagq/tags"
)

func main() {
	tagq := root.Tagq
	tagq.Add(ast.Cmd)
	tagq.Add(check.Cmd)
	tagq.Add(load.Cmd)
	tagq.Add(query.Cmd)
	tagq.Add(repl.Cmd)
	tagq.Add(serve.Cmd)
	tagq.Add(tags.Cmd)
	if err := tagq.ExecRoot(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
