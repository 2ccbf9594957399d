package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

func main() {
	root := &cobra.Command{
		Use:          "demozone",
		Short:        "Media intake pipeline: upload, watch, transcribe, forward",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before the config is expanded")

	root.AddCommand(serveCmd())
	root.AddCommand(processCmd())
	root.AddCommand(urlsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
