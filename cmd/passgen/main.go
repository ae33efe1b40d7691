// Command passgen generates random passwords from the shell or over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/passgen/passgen/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
