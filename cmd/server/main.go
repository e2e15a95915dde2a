// server runs the seatdesk API and its maintenance commands.
//
// Usage:
//
//	server [serve]
//	server migrate
//	server remind
//	server user add --username=<name> [--role=staff] [--permissions=a,b]
//	server user reset-password --username=<name>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Library membership API",
	Long:  "Seatdesk serves the library membership API and runs the daily\nexpiry sweep and reminder job.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
