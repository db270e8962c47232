package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/apiclient"
	"github.com/dmelero/compra/internal/output"
)

var addCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a product to the list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, store, user, err := mutationDeps(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		details := apiclient.Details{Description: strings.Join(args, " ")}
		details.Type, _ = cmd.Flags().GetString("type")
		details.Quantity, _ = cmd.Flags().GetString("quantity")
		details.UnitPrice, _ = cmd.Flags().GetString("price")
		details.Notes, _ = cmd.Flags().GetString("notes")
		details.Assignee, _ = cmd.Flags().GetString("assignee")
		details.Location, _ = cmd.Flags().GetString("location")

		resp, err := client.AddProduct(cmd.Context(), details, user)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("%s", resp.Message)
		return nil
	},
}

func init() {
	addCmd.Flags().String("type", "", "item type")
	addCmd.Flags().String("quantity", "", "quantity")
	addCmd.Flags().String("price", "", "unit price")
	addCmd.Flags().String("notes", "", "notes")
	addCmd.Flags().String("assignee", "", "who buys it")
	addCmd.Flags().String("location", "", "where to buy it")
	rootCmd.AddCommand(addCmd)
}
