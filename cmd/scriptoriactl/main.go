// Command scriptoriactl is a minimal, non-interactive scriptable client
// for a scriptoria cluster: it issues a single command against the
// name node (following a REDIRECT to a storage node when the command
// requires one) and exits. The interactive, ANSI-coloured front end
// described in spec.md §1/§6 is a separate, out-of-scope collaborator;
// scriptoriactl is not a REPL and prints no banner.
package main

import (
	"fmt"
	"os"

	"github.com/scriptoria/scriptoria/cmd/scriptoriactl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "scriptoriactl:", err)
		os.Exit(1)
	}
}
