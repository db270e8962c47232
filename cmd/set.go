package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/apiclient"
	"github.com/dmelero/compra/internal/output"
)

var setCmd = &cobra.Command{
	Use:   "set <quantity|price> <row> <value>",
	Short: "Set the quantity or unit price of a row",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		field := args[0]
		if field != "quantity" && field != "price" {
			output.Error("field must be 'quantity' or 'price', got %q", field)
			return fmt.Errorf("unknown field %q", field)
		}
		row, err := strconv.Atoi(args[1])
		if err != nil {
			output.Error("row must be a number: %q", args[1])
			return err
		}
		value := args[2]

		client, store, user, err := mutationDeps(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		var resp *apiclient.MutationResponse
		if field == "quantity" {
			resp, err = client.UpdateQuantity(cmd.Context(), row, value, user)
		} else {
			resp, err = client.UpdateUnitPrice(cmd.Context(), row, value, user)
		}
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("%s", resp.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
