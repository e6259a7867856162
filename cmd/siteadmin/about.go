package main

import (
	"github.com/spf13/cobra"

	"github.com/eliphany/siteadmin/internal/content"
	"github.com/eliphany/siteadmin/internal/session"
)

var aboutFlags editFlags

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Edit the about page settings",
	Long: `Edit the about page settings document: page title, hero title, the
founder photo, the intro text, and the WhatsApp button label.

The intro text holds up to three paragraphs; blank paragraphs are dropped
on save rather than persisted as empty blocks.

Example usage:
  siteadmin about                                  # interactive form
  siteadmin about --set pageTitle='Our Story'      # single field
  siteadmin about --image founderImage=./team.jpg  # replace the photo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newStore(cfg)
		if err != nil {
			return err
		}
		j, err := openJournal(cfg)
		if err != nil {
			return err
		}
		defer j.Close()

		sess, err := session.New(sessionConfig(client, j), content.About, "")
		if err != nil {
			return err
		}
		return runEdit(cmd.Context(), sess, content.About, &aboutFlags)
	},
}

func init() {
	registerEditFlags(aboutCmd, &aboutFlags)
	rootCmd.AddCommand(aboutCmd)
}
