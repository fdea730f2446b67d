package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statekit-inspect",
		Short: "Inspector bridge for statekit stores",
		Long: `statekit-inspect hosts the WebSocket bridge that relays store
commits to an external inspector UI and accepts time-travel and
state-import commands back.

Endpoints:

  GET /ws       inspector WebSocket connections
  GET /healthz  liveness probe
  GET /metrics  Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
