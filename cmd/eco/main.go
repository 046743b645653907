// Command eco routes tasks to agent sequences, syncs comment threads into
// actions, and judges agent output against rubrics.
package main

import (
	"fmt"
	"os"

	log "github.com/ecohq/eco/internal/logging"
)

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
