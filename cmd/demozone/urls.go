package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/demozone/internal/urllog"
)

func urlsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "urls",
		Short: "Print the recorded image URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			urls, err := urllog.ReadFile(filepath.Join(cfg.Paths.ProcessedImages, urllog.FileName))
			if err != nil {
				return err
			}
			for _, u := range urls {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}
