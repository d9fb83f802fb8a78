package main

import (
	"os"
	"path/filepath"
	"strings"

	"orlop/internal/cli"
	"orlop/internal/tools"
)

func main() {
	// Symlinks such as orlop-rg run the tool directly.
	if invoked := filepath.Base(os.Args[0]); strings.HasPrefix(invoked, tools.WrapperPrefix) {
		cli.ExecuteWrapper(invoked, os.Args[1:])
		return
	}
	cli.Execute()
}
