// api/main.go
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bookingtrack",
	Short: "Visitor, session and attribution tracking for the booking flow",
	Long: `bookingtrack runs the tracking collector and can replay a browsing
profile through the tracking engine.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, simulateCmd, tokenCmd, hashKeyCmd)
}
