package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/apiclient"
	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/output"
)

var editCmd = &cobra.Command{
	Use:   "edit <row>",
	Short: "Edit the details of a row",
	Long: `Edit rewrites the detail fields of a row. Fields not given as flags
keep their current value; the current row is fetched first so the write
carries every field.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := strconv.Atoi(args[0])
		if err != nil {
			output.Error("row must be a number: %q", args[0])
			return err
		}

		client, store, user, err := mutationDeps(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := client.GetItems(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		rec, ok := snap.ByRowIndex(row)
		if !ok {
			output.Error("row %d is not on the list", row)
			return fmt.Errorf("row %d not found", row)
		}

		details := apiclient.Details{
			Description: rec.Get(ops.ColDescription),
			Type:        rec.Get(ops.ColType),
			Quantity:    rec.Get(ops.ColQuantity),
			UnitPrice:   rec.Get(ops.ColUnitPrice),
			Notes:       rec.Get(ops.ColNotes),
			Assignee:    rec.Get(ops.ColAssignee),
			Location:    rec.Get(ops.ColLocation),
		}
		overlay(cmd, "description", &details.Description)
		overlay(cmd, "type", &details.Type)
		overlay(cmd, "quantity", &details.Quantity)
		overlay(cmd, "price", &details.UnitPrice)
		overlay(cmd, "notes", &details.Notes)
		overlay(cmd, "assignee", &details.Assignee)
		overlay(cmd, "location", &details.Location)

		resp, err := client.UpdateDetails(cmd.Context(), row, details, user)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("%s", resp.Message)
		return nil
	},
}

func overlay(cmd *cobra.Command, flag string, dst *string) {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		*dst = v
	}
}

func init() {
	editCmd.Flags().String("description", "", "new description")
	editCmd.Flags().String("type", "", "new item type")
	editCmd.Flags().String("quantity", "", "new quantity")
	editCmd.Flags().String("price", "", "new unit price")
	editCmd.Flags().String("notes", "", "new notes")
	editCmd.Flags().String("assignee", "", "new assignee")
	editCmd.Flags().String("location", "", "new shopping location")
	rootCmd.AddCommand(editCmd)
}
