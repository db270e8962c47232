package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/export"
	"github.com/dmelero/compra/internal/output"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the list to an .xlsx workbook",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "compra.xlsx"
		if len(args) == 1 {
			path = args[0]
		}

		client, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		snap, err := client.GetItems(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		title, err := client.GetSheetTitle(cmd.Context())
		if err != nil {
			// Title is cosmetic; export anyway.
			title = ""
		}

		if err := export.WriteFile(path, snap, title); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Exported %d rows to %s", len(snap.Visible()), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
