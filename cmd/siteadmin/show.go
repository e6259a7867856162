package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eliphany/siteadmin/internal/content"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show <doc-id>",
	Short: "Print a document as stored",
	Long: `Fetch a document and print its raw stored form, useful for checking
exactly what the site will render.

Accepts any document id: homeSettings, aboutSettings, a button id like
wpButton, or a product id.

Example usage:
  siteadmin show homeSettings
  siteadmin show wpButton -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newStore(cfg)
		if err != nil {
			return err
		}

		// The document type only matters for error reporting here; the id
		// alone addresses the document.
		docType := id
		if _, ok := content.ButtonByID(id); ok {
			docType = content.TypeWhatsappButton
		}

		doc, err := client.Fetch(cmd.Context(), docType, id)
		if err != nil {
			return err
		}
		if doc == nil {
			out.Muted("%s does not exist yet.", id)
			return nil
		}

		switch showOutput {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		case "yaml":
			return yaml.NewEncoder(os.Stdout).Encode(doc)
		default:
			return fmt.Errorf("unknown output format %q (yaml or json)", showOutput)
		}
	},
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(showCmd)
}
