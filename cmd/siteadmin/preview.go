package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eliphany/siteadmin/internal/content"
	"github.com/eliphany/siteadmin/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Serve the preview WebSocket feed",
	Long: `Start the preview WebSocket server on its own. On startup every
settings document is fetched and broadcast as a snapshot, so a freshly
connected preview page can render immediately.

This standalone mode is mainly useful next to a separate watch daemon or
while developing the preview page itself; "siteadmin watch --preview"
serves the same feed with live save results.

WebSocket messages:
  hello:       sent once on connect
  save_result: a save attempt finished (outcome, doc, upload count)
  document:    a document snapshot for re-rendering

Example usage:
  siteadmin preview              # serve on the configured port
  ws://localhost:7777/ws         # connect a client`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newStore(cfg)
		if err != nil {
			return err
		}

		srv := preview.NewServer(&preview.Config{Port: cfg.PreviewPort, Logger: logger.Sugar()})
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start preview server: %w", err)
		}

		out.Line("Preview server started on http://localhost:%d", cfg.PreviewPort)
		out.Line("WebSocket endpoint: ws://localhost:%d/ws", cfg.PreviewPort)
		out.Line("Press Ctrl+C to stop...")

		// Broadcast current snapshots so clients render without waiting
		// for the first save.
		ids := []string{content.IDHomeSettings, content.IDAboutSettings}
		for _, b := range content.Buttons {
			ids = append(ids, b.ID)
		}
		for _, id := range ids {
			docType := id
			if _, ok := content.ButtonByID(id); ok {
				docType = content.TypeWhatsappButton
			}
			doc, err := client.Fetch(cmd.Context(), docType, id)
			if err != nil {
				out.Warn("failed to fetch %s: %v", id, err)
				continue
			}
			if doc != nil {
				srv.BroadcastDocument(docType, id, doc)
			}
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		return srv.Stop()
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
