/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command proxystore manages a store of the bundled sample models: it
// creates and validates their tables, imports JSON records and counts them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
