package cmd

import (
	"github.com/marcus/plansync/internal/edits"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var qualCmd = &cobra.Command{
	Use:     "qual",
	Aliases: []string{"qualifier"},
	Short:   "Add, remove or rename phase qualifications",
	GroupID: "edit",
}

var qualAddCmd = &cobra.Command{
	Use:     "add <target> <phase-id> <question>",
	Short:   "Append a qualification to a phase",
	Example: `  plansync qual add wa/king phase_1b "Teachers and school staff"`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpAddQualifier, args[0])
		if err != nil {
			return err
		}
		a.Phase, a.Question = args[1], args[2]
		return runEdit(cmd.Context(), a, func(edits.Result) {
			output.Success("Added qualification to %s %s", a.Target(), a.Phase)
		})
	},
}

var qualRemoveCmd = &cobra.Command{
	Use:     "remove <target> <phase-id> <question>",
	Aliases: []string{"rm"},
	Short:   "Remove a qualification",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpRemoveQualifier, args[0])
		if err != nil {
			return err
		}
		a.Phase, a.Question = args[1], args[2]
		return runEdit(cmd.Context(), a, func(edits.Result) {
			output.Success("Removed qualification from %s %s", a.Target(), a.Phase)
		})
	},
}

var qualRenameCmd = &cobra.Command{
	Use:   "rename <target> <phase-id> <question> <new-question>",
	Short: "Change the question of a qualification",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpUpdateQualifier, args[0])
		if err != nil {
			return err
		}
		a.Phase, a.Question, a.NewQuestion = args[1], args[2], args[3]
		return runEdit(cmd.Context(), a, func(edits.Result) {
			output.Success("Updated qualification in %s %s", a.Target(), a.Phase)
		})
	},
}

func init() {
	qualCmd.AddCommand(qualAddCmd, qualRemoveCmd, qualRenameCmd)
	rootCmd.AddCommand(qualCmd)
}
