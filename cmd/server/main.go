// The openpedalcore server plans pedalboard power: budgets, port
// assignments and daisy chains over REST, WebSocket, MCP and the CLI.
package main

import (
	"fmt"
	"os"

	"github.com/KevinKickass/OpenPedalCore/internal/cmd"
)

// Build information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, gitCommit, buildTime)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
