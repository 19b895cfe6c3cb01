package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xminecraft-proxy <bind-address> <backend-address>",
		Short: "Transparent Minecraft handshake proxy",
		Long: `xminecraft-proxy listens on <bind-address>, decodes the Minecraft
handshake of every client and splices the connection, byte for byte,
to <backend-address>. Legacy (pre-1.7) server list pings are dropped.

Tuning is read from the environment (HANDSHAKE_TIMEOUT, IDLE_TIMEOUT,
MAX_CONN_PER_SEC_PER_IP, HEALTH_SERVER_PORT, DISCOVERY_MODE, ...).`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], args[1])
		},
	}
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xminecraft-proxy %s (%s)\n", version, commit)
		},
	}
}
