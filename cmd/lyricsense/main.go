package main

import (
	"fmt"
	"os"
)

var version = "1.0.0-go"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
