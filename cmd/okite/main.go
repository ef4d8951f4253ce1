package main

import (
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "okite",
	Short:         "Wakeup confirmation bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, scheduleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// We intentionally ignore write errors to avoid shadowing the real cause.
		_, _ = os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(2)
	}
}
