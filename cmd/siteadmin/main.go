// siteadmin is the command-line console for managing the site's marketing
// content: home page settings, about page settings, WhatsApp call-to-action
// buttons, and the product catalog, all persisted in an external document
// store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/eliphany/siteadmin/internal/config"
	"github.com/eliphany/siteadmin/internal/journal"
	"github.com/eliphany/siteadmin/internal/session"
	"github.com/eliphany/siteadmin/internal/store"
	"github.com/eliphany/siteadmin/internal/ui"
)

var (
	cfgFile      string
	verbose      bool
	promptToken  bool
	endpointFlag string

	logger *zap.Logger
	out    = ui.NewPrinter(os.Stdout)
)

var rootCmd = &cobra.Command{
	Use:   "siteadmin",
	Short: "Administrative console for site content",
	Long: `siteadmin manages the structured marketing content of the site:
home page settings, about page settings, the six WhatsApp call-to-action
buttons, and the product catalog.

Documents live in an external document store. Reads are open; saves require
a write token, normally supplied via SITEADMIN_WRITE_TOKEN. Without a token
every save is rejected locally before a single byte reaches the store.

Saves write the form's text fields as-is and merge images against the
latest remote revision: images you did not replace or clear are carried
forward, so a save never drops an image it did not touch. Text fields have
no such guard; the saved form always wins.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: siteadmin.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&promptToken, "prompt-token", false, "prompt for the write token instead of reading it from config")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "document store endpoint (overrides config)")
}

// loadConfig reads configuration and resolves the write token.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile, endpointFlag)
	if err != nil {
		return nil, err
	}

	if promptToken {
		fmt.Fprint(os.Stderr, "Write token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("failed to read token: %w", err)
		}
		cfg.WriteToken = string(raw)
	}
	return cfg, nil
}

// newStore builds the document store client from configuration.
func newStore(cfg *config.Config) (*store.Client, error) {
	return store.New(store.Config{
		Endpoint:   cfg.Endpoint,
		Dataset:    cfg.Dataset,
		Capability: store.NewCapability(cfg.WriteToken),
		Logger:     logger.Sugar(),
	})
}

// openJournal opens the save journal, which records every save attempt.
func openJournal(cfg *config.Config) (*journal.Journal, error) {
	return journal.Open(cfg.JournalPath)
}

// sessionConfig wires a store and the journal into session configuration.
func sessionConfig(client *store.Client, j *journal.Journal) session.Config {
	return session.Config{
		Store:     client,
		Listeners: []session.Listener{journal.NewRecorder(j, logger.Sugar())},
		Logger:    logger.Sugar(),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
