package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/templui/travelmap/cmd/travelmap/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "travelmap",
		Short:        "Maintenance commands for the travel map",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.ImagesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
