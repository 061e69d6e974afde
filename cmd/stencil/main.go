package main

import (
	"os"

	"github.com/stencil-lang/stencil/cli"
)

func main() {
	os.Exit(cli.Execute())
}
