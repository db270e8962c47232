package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/apiclient"
	"github.com/dmelero/compra/internal/output"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the household members and their app access",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		members, err := client.GetMembers(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return output.JSON(members)
		}
		for _, m := range members {
			if m.Access != "" {
				output.Info("%s (%s)", m.Name, m.Access)
			} else {
				output.Info("%s", m.Name)
			}
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the budget summary block",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		if label, _ := cmd.Flags().GetString("pin"); label != "" {
			if err := store.Pin(label); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Pinned %q.", label)
		}
		if label, _ := cmd.Flags().GetString("unpin"); label != "" {
			if err := store.Unpin(label); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Unpinned %q.", label)
		}

		client, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		summary, err := client.GetSummary(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		pinned, err := store.PinnedLabels()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		summary = pinnedFirst(summary, pinned)
		if only, _ := cmd.Flags().GetBool("pinned"); only {
			summary = summary[:countPinned(summary, pinned)]
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return output.JSON(summary)
		}
		isPinned := toSet(pinned)
		for _, item := range summary {
			if isPinned[item.Label] {
				output.Info("* %-28s %s", item.Label, item.Value)
			} else {
				output.Info("  %-28s %s", item.Label, item.Value)
			}
		}
		return nil
	},
}

// pinnedFirst reorders the summary so pinned labels come first, in pin order,
// with the rest following in sheet order.
func pinnedFirst(summary []apiclient.SummaryItem, pinned []string) []apiclient.SummaryItem {
	if len(pinned) == 0 {
		return summary
	}
	byLabel := make(map[string]apiclient.SummaryItem, len(summary))
	for _, item := range summary {
		byLabel[item.Label] = item
	}
	isPinned := toSet(pinned)
	out := make([]apiclient.SummaryItem, 0, len(summary))
	for _, label := range pinned {
		if item, ok := byLabel[label]; ok {
			out = append(out, item)
		}
	}
	for _, item := range summary {
		if !isPinned[item.Label] {
			out = append(out, item)
		}
	}
	return out
}

func countPinned(summary []apiclient.SummaryItem, pinned []string) int {
	isPinned := toSet(pinned)
	n := 0
	for _, item := range summary {
		if isPinned[item.Label] {
			n++
		}
	}
	return n
}

func toSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, label := range labels {
		set[label] = true
	}
	return set
}

func init() {
	membersCmd.Flags().Bool("json", false, "output as JSON")
	summaryCmd.Flags().Bool("json", false, "output as JSON")
	summaryCmd.Flags().String("pin", "", "pin a summary label")
	summaryCmd.Flags().String("unpin", "", "unpin a summary label")
	summaryCmd.Flags().Bool("pinned", false, "show only pinned labels")
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(summaryCmd)
}
