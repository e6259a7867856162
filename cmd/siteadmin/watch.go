package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/eliphany/siteadmin/internal/config"
	"github.com/eliphany/siteadmin/internal/content"
	"github.com/eliphany/siteadmin/internal/journal"
	"github.com/eliphany/siteadmin/internal/preview"
	"github.com/eliphany/siteadmin/internal/session"
	"github.com/eliphany/siteadmin/internal/workspace"
)

var watchPreview bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the drafts directory and apply changed drafts",
	Long: `Run the drafts daemon: watch the configured drafts directory and save
every created or changed draft file to the document store.

A draft is a YAML file describing edits to one document:

  doc: homeSettings
  fields:
    heroHeadline: "Fresh styles weekly"
  images:
    instagramImages:
      - position: 2
        path: photos/feed-3.jpg

Every existing draft is applied once on startup, then changes are picked
up with debouncing. Each applied draft runs the full save pipeline, so the
write token gate and partial-merge rules apply exactly as they do for the
interactive commands.

Example usage:
  siteadmin watch                # watch the configured drafts directory
  siteadmin watch --preview      # also serve the preview WebSocket feed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		daemonLog, err := daemonLogger(cfg)
		if err != nil {
			return err
		}
		defer daemonLog.Sync()
		sugar := daemonLog.Sugar()

		client, err := newStore(cfg)
		if err != nil {
			return err
		}
		j, err := openJournal(cfg)
		if err != nil {
			return err
		}
		defer j.Close()

		listeners := []session.Listener{journal.NewRecorder(j, sugar)}

		var previewSrv *preview.Server
		if watchPreview {
			previewSrv = preview.NewServer(&preview.Config{Port: cfg.PreviewPort, Logger: sugar})
			if err := previewSrv.Start(); err != nil {
				return fmt.Errorf("failed to start preview server: %w", err)
			}
			defer previewSrv.Stop()
			listeners = append(listeners, previewSrv)
			out.Line("Preview feed: ws://localhost:%d/ws", cfg.PreviewPort)
		}

		sessCfg := session.Config{Store: client, Listeners: listeners, Logger: sugar}

		apply := func(ctx context.Context, form *content.FormState) error {
			sess, err := session.New(sessCfg, form.Doc, form.ID)
			if err != nil {
				return err
			}
			if err := sess.Load(ctx); err != nil {
				return err
			}
			// Carry the draft's edits into the freshly loaded session.
			target := sess.Form()
			for name, value := range form.Fields {
				target.SetField(name, value)
			}
			for key, edit := range form.Slots {
				target.Slots[key] = edit
			}
			return sess.Save(ctx)
		}

		daemon, err := workspace.New(cfg.DraftsDir, apply, &workspace.Config{Logger: sugar})
		if err != nil {
			return err
		}

		out.Line("Watching %s", cfg.DraftsDir)
		out.Line("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return daemon.Start(ctx)
	},
}

// daemonLogger builds the watch daemon's logger. When a log file is
// configured, output goes both to stderr and to a size-rotated file.
func daemonLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	stderrCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		level,
	)

	if cfg.LogFile == "" {
		return zap.New(stderrCore), nil
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}),
		level,
	)

	return zap.New(zapcore.NewTee(stderrCore, fileCore)), nil
}

func init() {
	watchCmd.Flags().BoolVar(&watchPreview, "preview", false, "also serve the preview WebSocket feed")
	rootCmd.AddCommand(watchCmd)
}
