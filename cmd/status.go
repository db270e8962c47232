package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status <row> <status>",
	Short: "Change the status of a row",
	Long: `Change the status of a row. The status is free text; 'buy' and 'pend'
are shorthands for the usual two.

  compra status 14 Comprado
  compra status 14 buy`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := strconv.Atoi(args[0])
		if err != nil {
			output.Error("row must be a number: %q", args[0])
			return err
		}
		status := args[1]
		switch status {
		case "buy":
			status = ops.StatusBought
		case "pend":
			status = ops.StatusPending
		}

		client, store, user, err := mutationDeps(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		resp, err := client.UpdateStatus(cmd.Context(), row, status, user)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("%s", resp.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
