// Package cmd provides the root command and CLI setup for codescan.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lazyvibe/codescan/internal/app"
)

const appVersion = "0.1.0"

var configDirFlag string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codescan",
		Short: "Scan QR codes and barcodes from a camera",
		Long: `codescan watches a camera feed for machine-readable codes and reports the
first code that passes validation.

Frames come from a capture device:
  - zbar    runs zbarcam on a video node (default /dev/video0)
  - spool   reads detections from files dropped into a directory`,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "configuration directory (default $XDG_CONFIG_HOME/codescan)")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func configDir() (string, error) {
	if configDirFlag != "" {
		return configDirFlag, nil
	}
	return app.DefaultConfigDir()
}

// loadConfig reads the configuration for the selected directory.
func loadConfig() (string, *app.Config, error) {
	dir, err := configDir()
	if err != nil {
		return "", nil, err
	}
	cfg, err := app.LoadConfig(dir)
	if err != nil {
		return "", nil, err
	}
	return dir, cfg, nil
}
