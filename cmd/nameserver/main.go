// Command nameserver runs the directory process: the routing table and
// ACL authority every client and storage node addresses.
package main

import (
	"fmt"
	"os"

	"github.com/scriptoria/scriptoria/cmd/nameserver/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
