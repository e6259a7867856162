package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/eliphany/siteadmin/internal/content"
	"github.com/eliphany/siteadmin/internal/session"
)

var buttonFlags editFlags

var buttonsCmd = &cobra.Command{
	Use:   "buttons [button-id]",
	Short: "Edit the WhatsApp call-to-action buttons",
	Long: `Edit one of the six fixed WhatsApp call-to-action buttons: label,
phone number, pre-filled message, and active flag.

A button that has never been saved starts with the stock phone number and
is active. After loading, the command shows the wa.me link the site will
open so the number and message can be checked before saving.

Button ids:
  homeWpButton, wpButton, footerChatButton,
  footerWhatsappUsButton, floatingWpButton, contactWpButton

Example usage:
  siteadmin buttons                                  # pick a button, then edit
  siteadmin buttons wpButton                         # edit a specific button
  siteadmin buttons wpButton --set isActive=false    # deactivate`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}

		if id == "" {
			options := make([]huh.Option[string], 0, len(content.Buttons))
			for _, b := range content.Buttons {
				options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", b.Label, b.ID), b.ID))
			}
			err := huh.NewSelect[string]().
				Title("Select a button").
				Options(options...).
				Value(&id).
				Run()
			if err != nil {
				return fmt.Errorf("button selection cancelled: %w", err)
			}
		}

		if _, ok := content.ButtonByID(id); !ok {
			return fmt.Errorf("unknown button id %q", id)
		}

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

		sess, err := session.New(sessionConfig(client, j), content.Button, id)
		if err != nil {
			return err
		}
		if err := sess.Load(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load button %s: %w", id, err)
		}

		form := sess.Form()
		phone, _ := form.Fields["phoneNumber"].(string)
		message, _ := form.Fields["preMessage"].(string)
		out.Muted("Current link: %s", content.WaLink(phone, message))

		if err := runEdit(cmd.Context(), sess, content.Button, &buttonFlags); err != nil {
			return err
		}

		form = sess.Form()
		phone, _ = form.Fields["phoneNumber"].(string)
		message, _ = form.Fields["preMessage"].(string)
		out.Line("Link: %s", content.WaLink(phone, message))
		return nil
	},
}

func init() {
	registerEditFlags(buttonsCmd, &buttonFlags)
	rootCmd.AddCommand(buttonsCmd)
}
