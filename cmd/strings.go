package cmd

import (
	"github.com/marcus/plansync/internal/edits"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var stringCmd = &cobra.Command{
	Use:     "string",
	Short:   "Edit localized more-info text",
	GroupID: "edit",
}

var stringSetCmd = &cobra.Command{
	Use:   "set <target> <phase-id> <question> <text>",
	Short: "Set the more-info text of a qualification in the session language",
	Long: `Set the more-info text of a qualification.

The text is written to the location strings table under --key, or under a
key derived from the target, phase and question. The qualification is
linked to the key.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpSetString, args[0])
		if err != nil {
			return err
		}
		a.Phase, a.Question, a.Text = args[1], args[2], args[3]
		a.Key, _ = cmd.Flags().GetString("key")
		return runEdit(cmd.Context(), a, func(res edits.Result) {
			output.Success("Set string %s", res.ID)
		})
	},
}

var linkCmd = &cobra.Command{
	Use:     "link",
	Short:   "Edit more-info links",
	GroupID: "edit",
}

var linkSetCmd = &cobra.Command{
	Use:   "set <target> <phase-id> <question> <url>",
	Short: "Set the more-info URL of a qualification",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpSetLink, args[0])
		if err != nil {
			return err
		}
		a.Phase, a.Question, a.URL = args[1], args[2], args[3]
		return runEdit(cmd.Context(), a, func(edits.Result) {
			output.Success("Set link for %s %s", a.Target(), a.Phase)
		})
	},
}

func init() {
	stringSetCmd.Flags().String("key", "", "String id to write (default: derived)")
	stringCmd.AddCommand(stringSetCmd)
	linkCmd.AddCommand(linkSetCmd)
	rootCmd.AddCommand(stringCmd, linkCmd)
}
