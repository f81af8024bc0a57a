// Command lis runs the laboratory instrument middleware: it bridges
// ASTM and HL7/MLLP analyzer connections to a downstream HIS over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/AireshBhat/nramh-lis/cmd/lis/commands"
)

// Build-time variables injected via ldflags, mirroring
// marmos91-dittofs/cmd/dfs/main.go's version-stamping convention.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
