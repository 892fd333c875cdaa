package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "subctl",
		Short:         "subctl - operator tool for the paywall subscription store",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default: DB_PATH)")

	// Add subcommands
	rootCmd.AddCommand(grantCmd(&dbPath))
	rootCmd.AddCommand(revokeCmd(&dbPath))
	rootCmd.AddCommand(expiredCmd(&dbPath))
	rootCmd.AddCommand(listCmd(&dbPath))

	return rootCmd
}
