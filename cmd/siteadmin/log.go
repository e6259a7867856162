package main

import (
	"github.com/spf13/cobra"

	"github.com/eliphany/siteadmin/internal/journal"
)

var (
	logDoc      string
	logFailures bool
	logLimit    int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the save journal",
	Long: `Show recorded save attempts, newest first. The journal is local to
this machine and records every attempt, including ones rejected before
reaching the store.

Example usage:
  siteadmin log                      # recent attempts
  siteadmin log --doc homeSettings   # one document's history
  siteadmin log --failures           # only failed attempts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		j, err := openJournal(cfg)
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.List(journal.Filter{
			DocID:        logDoc,
			FailuresOnly: logFailures,
			Limit:        logLimit,
		})
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			out.Muted("No recorded save attempts.")
			return nil
		}

		for _, e := range entries {
			when := e.CreatedAt.Local().Format("2006-01-02 15:04:05")
			if e.Failed() {
				out.Error("%s  %-24s  %-18s  %s", when, e.DocID, e.Outcome, e.Error)
				continue
			}
			if e.UploadedCount > 0 {
				out.Success("%s  %-24s  saved (%d images uploaded)", when, e.DocID, e.UploadedCount)
			} else {
				out.Success("%s  %-24s  saved", when, e.DocID)
			}
		}
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&logDoc, "doc", "", "filter by document id")
	logCmd.Flags().BoolVar(&logFailures, "failures", false, "show only failed attempts")
	logCmd.Flags().IntVar(&logLimit, "limit", 50, "maximum entries to show")
	rootCmd.AddCommand(logCmd)
}
