package main

import (
	"fmt"
	"os"

	skim "github.com/skim-go/skim/src"
)

var version = "0.1.0"

func main() {
	opts, err := skim.ParseOptions(version, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(skim.ExitError)
	}
	os.Exit(skim.Run(opts))
}
