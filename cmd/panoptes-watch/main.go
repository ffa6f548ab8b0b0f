// Command panoptes-watch is a minimal demonstration of the panoptes package:
// point it at a directory and it prints every batch of changes as they
// arrive, one line per Event, until Enter is pressed (it reads one line
// from standard input; a single keypress does not stop it). It takes a single
// positional argument and exposes no flags, matching the original console
// demo this package's test suite was distilled alongside.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neXenio/panoptes"
	"github.com/neXenio/panoptes/internal/logging"
)

func main() {
	root := cobra.Command{
		Use:   "panoptes-watch <path>",
		Short: "Watch a directory tree and print change batches until Enter is pressed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(args[0])
		},
		SilenceUsage: true,
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// watch prints "<relativePath> with the type: <16-bit bitstring>" for every
// Event in every delivered Batch, in the same shape as the original
// console demo's callback.
func watch(path string) error {
	logger := logging.New(path)

	w, err := panoptes.New(path, 0, func(batch panoptes.Batch) {
		for _, e := range batch {
			fmt.Printf("%s with the type: %s\n", e.RelativePath, pad16(e.Type.Bitstring()))
		}
	}, panoptes.WithLogger(logger))
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Println("watching", path, "- press Enter to stop")
	bufio.NewReader(os.Stdin).ReadString('\n')
	return nil
}

// pad16 left-pads a bitstring to 16 characters, matching std::bitset<16>'s
// fixed-width rendering.
func pad16(s string) string {
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
