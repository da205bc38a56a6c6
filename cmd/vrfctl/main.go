// Command vrfctl is an offline toolbox for coordinator operators: proving key
// hashes, fulfillment payload encoding, word expansion and signed API headers.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
