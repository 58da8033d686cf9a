// Command resellerctl — административный CLI панели реселлера.
package main

import (
	"fmt"
	"os"
)

// Version задаётся при сборке через -ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
