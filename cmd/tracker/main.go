package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:          "tracker",
		Short:        "Material inventory with expiry tracking",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "config/example.yaml", "path to YAML config")

	cmd.AddCommand(
		newServeCmd(&cfgPath),
		newExportCmd(&cfgPath),
		newNotifyCmd(&cfgPath),
	)
	return cmd
}
