// Command ragdesk answers questions about local documents with a local model.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/cli"
)

func main() {
	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
