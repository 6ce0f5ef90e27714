package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "audioengine",
	Short: "Audio capture/routing/mixing/delivery engine",
	Long: `audioengine - capture, route, mix, and deliver audio per a session config.

Examples:
  audioengine validate -f session.yaml
  audioengine run -f session.yaml
  audioengine journal replay --dir ./journal --session sess1
  audioengine journal query --dir ./journal --session sess1 '.[] | select(.type == "error")'`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
