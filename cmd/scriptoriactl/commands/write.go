package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var writeCmd = &cobra.Command{
	Use:   "write <filename> <sentence_index> <word_index> <content...>",
	Short: "Insert words into a sentence and commit immediately",
	Long: `write opens a WRITE session on <sentence_index>, inserts <content...>
(joined by single spaces) starting at <word_index>, and commits with
ETIRW in the same invocation — scriptoriactl issues one command and
exits, so a single write call is one insertion plus a commit, not an
open-ended session.`,
	Args: cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		sentenceIndex, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid sentence index %q", args[1])
		}
		wordIndex, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid word index %q", args[2])
		}
		content := strings.Join(args[3:], " ")

		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		addr, err := c.Redirect(wire.VerbWrite, filename)
		if err != nil {
			return err
		}

		sc, err := dialStorage(addr)
		if err != nil {
			return err
		}
		defer sc.Close()

		if err := sc.OpenWrite(filename, sentenceIndex, username); err != nil {
			return err
		}
		reply, err := sc.SendWord(wordIndex, content)
		if err != nil {
			return err
		}
		if !wire.IsPositive(wire.Split(reply)[0]) {
			return fmt.Errorf("%s", reply)
		}
		final, err := sc.Commit()
		if err != nil {
			return err
		}
		if !wire.IsPositive(wire.Split(final)[0]) {
			return fmt.Errorf("%s", final)
		}
		fmt.Println(final)
		return nil
	},
}
