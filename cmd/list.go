package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/cache"
	"github.com/dmelero/compra/internal/output"
	"github.com/dmelero/compra/internal/view"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the shopping list, with optional filters and grouping",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient(cmd)
		if err != nil {
			return err
		}

		filter, err := resolveFilter(cmd)
		if err != nil {
			return err
		}

		snap, err := client.GetItems(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		filtered := view.Apply(snap, filter).Sorted()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return output.JSON(filtered)
		}
		groups := view.GroupBy(filtered, groupColumn(filter.GroupBy))
		output.List(groups, view.Sum(filtered))
		return nil
	},
}

// resolveFilter merges a saved filter (when --filter names one) with the
// per-field flags, flags winning, and stores the result under --save.
func resolveFilter(cmd *cobra.Command) (cache.Filter, error) {
	var filter cache.Filter

	savedName, _ := cmd.Flags().GetString("filter")
	saveName, _ := cmd.Flags().GetString("save")
	if savedName != "" || saveName != "" {
		store, err := openCache()
		if err != nil {
			return filter, err
		}
		defer store.Close()

		if savedName != "" {
			f, ok, err := store.LoadFilter(savedName)
			if err != nil {
				output.Error("%v", err)
				return filter, err
			}
			if !ok {
				output.Error("no saved filter named %q", savedName)
				return filter, fmt.Errorf("filter %q not found", savedName)
			}
			filter = f
		}
		applyFilterFlags(cmd, &filter)

		if saveName != "" {
			if err := store.SaveFilter(saveName, filter); err != nil {
				output.Error("%v", err)
				return filter, err
			}
			output.Success("Filter %q saved.", saveName)
		}
		return filter, nil
	}

	applyFilterFlags(cmd, &filter)
	return filter, nil
}

func applyFilterFlags(cmd *cobra.Command, f *cache.Filter) {
	if v, _ := cmd.Flags().GetString("status"); cmd.Flags().Changed("status") {
		f.Status = v
	}
	if v, _ := cmd.Flags().GetString("assignee"); cmd.Flags().Changed("assignee") {
		f.Assignee = v
	}
	if v, _ := cmd.Flags().GetString("location"); cmd.Flags().Changed("location") {
		f.Location = v
	}
	if v, _ := cmd.Flags().GetString("type"); cmd.Flags().Changed("type") {
		f.Type = v
	}
	if v, _ := cmd.Flags().GetString("search"); cmd.Flags().Changed("search") {
		f.Search = v
	}
	if v, _ := cmd.Flags().GetString("group"); cmd.Flags().Changed("group") {
		f.GroupBy = v
	}
}

// groupColumn maps the flag shorthand to the sheet column name.
func groupColumn(key string) string {
	switch key {
	case "status", "estado":
		return "Estado"
	case "assignee", "asignado":
		return "Asignado a"
	case "location", "lugar":
		return "Lugar de Compra"
	case "type", "tipo":
		return "Tipo de Elemento"
	default:
		return key
	}
}

func init() {
	listCmd.Flags().String("status", "", "filter by status")
	listCmd.Flags().String("assignee", "", "filter by assignee")
	listCmd.Flags().String("location", "", "filter by shopping location")
	listCmd.Flags().String("type", "", "filter by item type")
	listCmd.Flags().String("search", "", "free-text search over description and notes")
	listCmd.Flags().String("group", "", "group by column (status, assignee, location, type)")
	listCmd.Flags().String("filter", "", "use a saved filter")
	listCmd.Flags().String("save", "", "save the resulting filter under this name")
	listCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}
