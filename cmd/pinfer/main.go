// PInfer - Bayesian protein inference front end
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/PInfer/cmd/pinfer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
