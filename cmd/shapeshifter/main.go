// Command shapeshifter runs the relational normalization engine against a
// declarative project document.
package main

import (
	"fmt"
	"os"

	"github.com/humlab-sead/sead-shape-shifter-sub001/cmd/shapeshifter/cmd"
)

// exitCoder is implemented by errors that carry a specific process exit
// code, rather than the generic "failed" code 1.
type exitCoder interface {
	ExitCode() int
}

func main() {
	if err := cmd.Execute(); err != nil {
		if ec, ok := err.(exitCoder); ok {
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
