package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eliphany/siteadmin/internal/content"
	"github.com/eliphany/siteadmin/internal/session"
	"github.com/eliphany/siteadmin/internal/store"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage the product catalog",
	Long: `Manage product documents: name, short description, full description,
category, tags, and the main image.

Unlike the settings documents, products are a collection: new products get
a generated id and products can be deleted.`,
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all products",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newStore(cfg)
		if err != nil {
			return err
		}

		docs, err := client.ListProducts(cmd.Context())
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			out.Muted("No products.")
			return nil
		}

		out.Title("Products (%d)", len(docs))
		for _, doc := range docs {
			fields := content.Product.ParseFields(doc)
			id, _ := doc["_id"].(string)
			name, _ := fields["name"].(string)
			category, _ := fields["category"].(string)
			out.Line("  %-40s  %-24s  %s", id, name, category)
		}
		return nil
	},
}

var productEditFlags editFlags

var productEditCmd = &cobra.Command{
	Use:   "edit <product-id>",
	Short: "Edit an existing product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editProduct(cmd, args[0])
	},
}

var productNewFlags editFlags

var productNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a product",
	Long: `Create a product with a generated id. The main image can be attached
with --image mainImage=./photo.jpg (2 MiB limit, enforced before upload).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id := "product-" + uuid.NewString()
		out.Muted("New product id: %s", id)
		return editProductWith(cmd, id, &productNewFlags)
	},
}

var productDeleteYes bool

var productDeleteCmd = &cobra.Command{
	Use:   "delete <product-id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		if !productDeleteYes {
			confirmed := false
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", id)).
				Value(&confirmed).
				Run()
			if err != nil {
				return fmt.Errorf("delete cancelled: %w", err)
			}
			if !confirmed {
				out.Muted("Nothing deleted.")
				return nil
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newStore(cfg)
		if err != nil {
			return err
		}
		if !client.Capability().Authorized() {
			return fmt.Errorf("deleting %s: %w", id, store.ErrPermissionDenied)
		}
		if err := client.Delete(cmd.Context(), id); err != nil {
			return err
		}
		out.Success("Deleted %s", id)
		return nil
	},
}

func editProduct(cmd *cobra.Command, id string) error {
	return editProductWith(cmd, id, &productEditFlags)
}

func editProductWith(cmd *cobra.Command, id string, flags *editFlags) error {
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

	sess, err := session.New(sessionConfig(client, j), content.Product, id)
	if err != nil {
		return err
	}
	return runEdit(cmd.Context(), sess, content.Product, flags)
}

func init() {
	registerEditFlags(productEditCmd, &productEditFlags)
	registerEditFlags(productNewCmd, &productNewFlags)
	productDeleteCmd.Flags().BoolVarP(&productDeleteYes, "yes", "y", false, "delete without confirmation")

	productCmd.AddCommand(productListCmd)
	productCmd.AddCommand(productEditCmd)
	productCmd.AddCommand(productNewCmd)
	productCmd.AddCommand(productDeleteCmd)
	rootCmd.AddCommand(productCmd)
}
