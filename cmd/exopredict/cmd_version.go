package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exopredict/exopredict/internal/features"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and feature schema",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "exopredict %s (schema %s, %d features)\n", version, features.SchemaVersion, features.VectorLen)
	},
}
