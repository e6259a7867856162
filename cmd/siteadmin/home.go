package main

import (
	"github.com/spf13/cobra"

	"github.com/eliphany/siteadmin/internal/content"
	"github.com/eliphany/siteadmin/internal/session"
)

var homeFlags editFlags

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Edit the home page settings",
	Long: `Edit the home page settings document: hero headline and subline, the
hero background image, the Instagram handle and URL, and the four-slot
Instagram gallery.

Images you do not replace or clear are carried forward from the latest
remote revision; replacing the image in slot 2 never disturbs slots 0, 1
and 3. Text fields are written exactly as the form holds them.

Example usage:
  siteadmin home                                       # interactive form
  siteadmin home --set heroHeadline='New collection'   # single field
  siteadmin home --image instagramImages:2=./feed.jpg  # replace one slot
  siteadmin home --clear heroBackgroundImage           # remove the hero image`,
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

		sess, err := session.New(sessionConfig(client, j), content.Home, "")
		if err != nil {
			return err
		}
		return runEdit(cmd.Context(), sess, content.Home, &homeFlags)
	},
}

func init() {
	registerEditFlags(homeCmd, &homeFlags)
	rootCmd.AddCommand(homeCmd)
}
