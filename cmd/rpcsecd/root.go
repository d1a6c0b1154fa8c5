package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rpcsecd",
	Short: "rpcsecd - client-side RPC security layer daemon",
	Long: `rpcsecd binds RPC imports to security flavors, mints and refreshes
per-credential client contexts, and wraps/unwraps request bodies through a
pluggable policy registry, modeled on ptlrpc/sec.c's client side.

It provides:
  - Per-import flavor binding and adaptation (security.imports)
  - Sign/Seal/Verify/Unseal around a demo gRPC transport
  - A pluggable secret-loading framework for policy credential material
  - A netlink attribute tree <-> YAML bridge codec

For more information, visit: https://github.com/clusterfs/rpcsec`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Disable default completion command (we'll add our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
