// Command storageserver runs a storage node: a sentence-structured
// document store reachable over a persistent per-client command loop.
package main

import (
	"fmt"
	"os"

	"github.com/scriptoria/scriptoria/cmd/storageserver/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
