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
	Use:   "locust",
	Short: "Locust - session-sticky HTTP/HTTPS forward proxy",
	Long: `Locust is an intercepting HTTP/HTTPS forward proxy.

It terminates client TLS with certificates it mints on the fly from an
operator-supplied root CA, selects an upstream egress proxy per domain using
a learned quality coefficient, and pins each client session to its chosen
upstream for the session's lifetime.`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
