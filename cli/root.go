// Package cli provides the command-line interface for sysrecv.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the root command and returns the exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sysrecv",
		Short: "Receive, store and search syslog messages",
		Long: `sysrecv receives syslog messages over UDP (and optionally TCP), normalizes
RFC 5424 and RFC 3164 messages into one record shape, stores them and serves
a filtered search API over the stored history.

Configuration comes from an optional YAML file (--config) and SYSRECV_*
environment variables, which take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(newRunCommand("serve", "Run ingestion and the retrieval API", true, true))
	rootCmd.AddCommand(newRunCommand("ingest", "Run the syslog listeners only", true, false))
	rootCmd.AddCommand(newRunCommand("api", "Run the retrieval API only", false, true))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
