package main

import (
	"fmt"

	"github.com/joshuapare/kernelkit/drivers/keyboard"
	"github.com/joshuapare/kernelkit/kern"
	"github.com/spf13/cobra"
)

var (
	runText     string
	runStats    bool
	runHeapSize int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runText, "text", "hello, kernel\n", "Text to type through the keyboard pipeline")
	cmd.Flags().BoolVar(&runStats, "stats", false, "Dump subsystem statistics after the run")
	cmd.Flags().IntVar(&runHeapSize, "heap-size", 0, "Heap region size in bytes (default 1 MiB)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Boot a kernel, type text through it, and print the screen",
		Long: `The run command boots a kernel, feeds the given text through the
keyboard scancode pipeline, drains the executor, and prints the console
screen.

Example:
  kernctl run
  kernctl run --text "typed at boot" --stats
  kernctl run --stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun()
		},
	}
}

type RunReport struct {
	Screen string
	Stats  kern.Stats
}

func runRun() error {
	k, err := kern.Boot(kern.Config{HeapSize: runHeapSize})
	if err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}
	defer k.Close()

	seq, complete := keyboard.EncodeString(runText)
	if !complete {
		printVerbose("some characters have no scancode sequence and were skipped\n")
	}
	printVerbose("typing %d scancodes\n", len(seq))

	for _, code := range seq {
		if !k.PressKey(code) {
			// Ring full; let the stream task catch up, then retype.
			k.Drain()
			k.PressKey(code)
		}
	}
	k.Drain()

	if jsonOut {
		return printJSON(RunReport{Screen: k.Console().String(), Stats: k.Stats()})
	}

	printInfo("%s\n", k.Console().String())
	if runStats {
		printInfo("\n%s", k.DebugDump())
	}
	return nil
}
