package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/demozone/internal/processor"
)

func processCmd() *cobra.Command {
	var (
		sessionID   string
		maxSpeakers int
	)

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Run the audio or image pipeline once on a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			session := processor.Session{ID: sessionID, MaxSpeakers: maxSpeakers}
			if session.ID == "" {
				session.ID = a.cfg.Session.DefaultID
			}
			if session.MaxSpeakers <= 0 {
				session.MaxSpeakers = a.cfg.Session.DefaultMaxSpeakers
			}

			path := args[0]
			switch {
			case hasExt(path, a.cfg.Watcher.AudioExts):
				return a.proc.ProcessAudio(ctx, path, session)
			case hasExt(path, a.cfg.Watcher.ImageExts):
				return a.proc.ProcessImage(ctx, path, session)
			default:
				return fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
			}
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: session.default_id)")
	cmd.Flags().IntVar(&maxSpeakers, "max-speakers", 0, "upper bound on speakers (default: session.default_max_speakers)")
	return cmd
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range exts {
		if strings.ToLower(strings.TrimPrefix(e, ".")) == ext {
			return true
		}
	}
	return false
}
