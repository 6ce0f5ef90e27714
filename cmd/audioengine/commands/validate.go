package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oakmix/audioengine/pkg/audio/router"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:   "validate -f <file>",
	Short: "Check a session config against the schema without starting it",
	Long: `Parse and validate a session config YAML file (use '-' to read from stdin).

Checks the config in three passes: schema validation of the document
shape (types, required fields), domain validation of the resulting
SessionConfig (duplicate ids, dangling rule references, at least one
source and one destination or mixed output), then a dry run that
actually initializes every source endpoint and opens every destination
sink to confirm they reach Ready — without ever starting real capture —
and tears them back down (net_relay destinations cannot be dry-run from
a static file: they need a live RTPTrack, not expressible in YAML).

Examples:
  audioengine validate -f session.yaml
  cat session.yaml | audioengine validate -f -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateFile == "" {
			return fmt.Errorf("flag -f is required")
		}

		data, err := readConfigFile(validateFile)
		if err != nil {
			return err
		}

		doc, err := router.ParseConfigDocument(data)
		if err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}

		cfg, err := doc.ToSessionConfig()
		if err != nil {
			return fmt.Errorf("config conversion failed: %w", err)
		}

		if err := router.DryRun(cfg); err != nil {
			return fmt.Errorf("config rejected: %w", err)
		}

		fmt.Printf("OK: %d source(s), %d destination(s), %d rule(s)\n",
			len(cfg.Sources), len(cfg.Destinations), len(cfg.Rules))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "session config YAML file (use '-' for stdin)")
	rootCmd.AddCommand(validateCmd)
}

func readConfigFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
