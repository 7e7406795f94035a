// Command bondcalc resolves bond specifications and computes yield, risk and
// spread analytics for one bond or a JSON batch.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
