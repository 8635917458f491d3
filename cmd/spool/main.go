package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// A shutdown signal is not worth an error line.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "spool: %v\n", err)
		}
		os.Exit(1)
	}
}
