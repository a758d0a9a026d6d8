package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "toolchat",
		Short:        "Tool-augmented chat sessions over websockets",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (default is ./config.{json,yaml})")

	root.AddCommand(serveCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
