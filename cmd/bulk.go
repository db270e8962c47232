package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/apiclient"
	"github.com/dmelero/compra/internal/output"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <row>...",
	Short: "Apply the same field values to several rows at once",
	Long: `Bulk applies any of --status, --assignee, --location and --type to all
the given rows in a single write. Fields left out keep their values.

  compra bulk 12 13 17 --status Comprado
  compra bulk 12 13 --assignee Ana --location Mercadona`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := make([]int, 0, len(args))
		for _, arg := range args {
			row, err := strconv.Atoi(arg)
			if err != nil {
				output.Error("row must be a number: %q", arg)
				return err
			}
			rows = append(rows, row)
		}

		var fields apiclient.BulkFields
		fields.Status, _ = cmd.Flags().GetString("status")
		fields.Assignee, _ = cmd.Flags().GetString("assignee")
		fields.Location, _ = cmd.Flags().GetString("location")
		fields.Type, _ = cmd.Flags().GetString("type")

		client, store, user, err := mutationDeps(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		resp, err := client.BulkUpdate(cmd.Context(), rows, fields, user)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("%s", resp.Message)
		return nil
	},
}

func init() {
	bulkCmd.Flags().String("status", "", "status to set")
	bulkCmd.Flags().String("assignee", "", "assignee to set")
	bulkCmd.Flags().String("location", "", "shopping location to set")
	bulkCmd.Flags().String("type", "", "item type to set")
	rootCmd.AddCommand(bulkCmd)
}
